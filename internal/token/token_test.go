package token

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rickgao/pair-factory/internal/address"
	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/host"
	"github.com/rickgao/pair-factory/internal/kv"
)

func TestToken(t *testing.T) {
	ctx := context.Background()
	deps := host.Deps{Storage: kv.NewCache(kv.NewMemory()), API: address.Default()}
	env := host.Env{Contract: host.ContractInfo{Address: "contract0002"}}
	c := New(nil)

	_, err := c.Query(ctx, deps, env, []byte(`{"token_info":{}}`))
	require.True(t, errors.Is(err, errs.ErrNotFound), "error = %v", err)

	_, err = c.Instantiate(ctx, deps, env, host.MessageInfo{Sender: "contract0001"},
		[]byte(`{"name":"terraswap liquidity token","symbol":"uLP","decimals":6,"mint":{"minter":"contract0001"}}`))
	require.NoError(t, err)

	data, err := c.Query(ctx, deps, env, []byte(`{"token_info":{}}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"terraswap liquidity token","symbol":"uLP","decimals":6,"minter":"contract0001"}`, string(data))

	_, err = c.Execute(ctx, deps, env, host.MessageInfo{Sender: "addr0000"}, []byte(`{"transfer":{}}`))
	require.True(t, errors.Is(err, errs.ErrUnsupported))
}

func TestToken_InstantiateRejects(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{"not json", `{`},
		{"no symbol", `{"name":"lp","decimals":6}`},
		{"bad minter", `{"name":"lp","symbol":"uLP","decimals":6,"mint":{"minter":"??"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := host.Deps{Storage: kv.NewCache(kv.NewMemory()), API: address.Default()}
			_, err := New(nil).Instantiate(context.Background(), deps, host.Env{}, host.MessageInfo{}, []byte(tt.msg))
			require.True(t, errors.Is(err, errs.ErrValidation), "error = %v", err)
		})
	}
}
