package chain_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rickgao/pair-factory/internal/chain"
	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/factory"
	"github.com/rickgao/pair-factory/internal/host"
	"github.com/rickgao/pair-factory/internal/kv"
	"github.com/rickgao/pair-factory/internal/model"
	"github.com/rickgao/pair-factory/internal/pair"
	"github.com/rickgao/pair-factory/internal/token"
)

const (
	tokenCode   = 1
	pairCode    = 2
	factoryCode = 3
)

// failing rejects every call.
type failing struct{}

func (failing) Instantiate(context.Context, host.Deps, host.Env, host.MessageInfo, []byte) (*host.Response, error) {
	return nil, errors.New("boom")
}
func (failing) Execute(context.Context, host.Deps, host.Env, host.MessageInfo, []byte) (*host.Response, error) {
	return nil, errors.New("boom")
}
func (failing) Reply(context.Context, host.Deps, host.Env, host.Reply) (*host.Response, error) {
	return nil, errors.New("boom")
}
func (failing) Query(context.Context, host.Deps, host.Env, []byte) ([]byte, error) {
	return nil, errors.New("boom")
}
func (failing) Migrate(context.Context, host.Deps, host.Env, []byte) (*host.Response, error) {
	return nil, errors.New("boom")
}

type setup struct {
	rt      *chain.Runtime
	store   *kv.Memory
	factory string
}

func newSetup(t *testing.T, tokenContract host.Contract) setup {
	t.Helper()
	ctx := context.Background()

	store := kv.NewMemory()
	rt := chain.New(store, chain.WithClock(func() time.Time { return time.Unix(1700000000, 0) }))
	require.NoError(t, rt.StoreCode(tokenCode, tokenContract))
	require.NoError(t, rt.StoreCode(pairCode, pair.New(nil)))
	require.NoError(t, rt.StoreCode(factoryCode, factory.New(factory.DefaultConfig(), nil)))

	msg, err := json.Marshal(factory.InstantiateMsg{TokenCodeID: tokenCode, PairCodeID: pairCode})
	require.NoError(t, err)
	res, err := rt.Instantiate(ctx, "addr0000", factoryCode, msg, "addr0000", "factory")
	require.NoError(t, err)

	return setup{rt: rt, store: store, factory: res.ContractAddress}
}

func createPairMsg(t *testing.T, assets [2]model.AssetInfo) []byte {
	t.Helper()
	msg, err := json.Marshal(factory.ExecuteMsg{CreatePair: &factory.CreatePairMsg{AssetInfos: assets}})
	require.NoError(t, err)
	return msg
}

func queryPair(t *testing.T, s setup, assets [2]model.AssetInfo) (model.PairInfo, error) {
	t.Helper()
	msg, err := json.Marshal(factory.QueryMsg{Pair: &factory.PairQuery{AssetInfos: assets}})
	require.NoError(t, err)
	data, err := s.rt.Query(context.Background(), s.factory, msg)
	if err != nil {
		return model.PairInfo{}, err
	}
	var info model.PairInfo
	require.NoError(t, json.Unmarshal(data, &info))
	return info, nil
}

func eventAttr(events []host.Event, key string) string {
	for _, ev := range events {
		for _, a := range ev.Attributes {
			if a.Key == key {
				return a.Value
			}
		}
	}
	return ""
}

func TestRuntime_CreatePairEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := newSetup(t, token.New(nil))
	require.Equal(t, "contract0001", s.factory)

	addr, err := s.rt.Lookup(ctx, "factory")
	require.NoError(t, err)
	require.Equal(t, s.factory, addr)

	assets := [2]model.AssetInfo{model.NativeToken("uusd"), model.Token("asset0000")}
	res, err := s.rt.Execute(ctx, "addr0001", s.factory, createPairMsg(t, assets))
	require.NoError(t, err)
	require.NotEmpty(t, res.TxID)
	require.Equal(t, "create_pair", eventAttr(res.Events, "action"))
	require.Equal(t, "contract0002", eventAttr(res.Events, "pair_contract_addr"))
	require.Equal(t, "contract0003", eventAttr(res.Events, "liquidity_token_addr"))

	info, err := queryPair(t, s, [2]model.AssetInfo{assets[1], assets[0]})
	require.NoError(t, err)
	require.Equal(t, model.PairInfo{AssetInfos: assets, ContractAddr: "contract0002", LiquidityToken: "contract0003"}, info)

	// The pair is administered by the factory.
	meta, err := s.rt.Contract(ctx, "contract0002")
	require.NoError(t, err)
	require.Equal(t, s.factory, meta.Admin)
	require.Equal(t, uint64(pairCode), meta.CodeID)

	// Nothing is left pending once the transaction commits.
	data, err := s.rt.Query(ctx, s.factory, []byte(`{"pending":{}}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"pending":[]}`, string(data))

	_, err = s.rt.Execute(ctx, "addr0001", s.factory, createPairMsg(t, assets))
	require.True(t, errors.Is(err, errs.ErrAlreadyExists), "error = %v", err)
}

func TestRuntime_FailedChildRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newSetup(t, failing{})

	before := s.store.Len()
	height, err := s.rt.Height(ctx)
	require.NoError(t, err)

	assets := [2]model.AssetInfo{model.NativeToken("uluna"), model.NativeToken("uusd")}
	_, err = s.rt.Execute(ctx, "addr0000", s.factory, createPairMsg(t, assets))
	require.Error(t, err)

	var txErr *chain.TxError
	require.True(t, errors.As(err, &txErr))
	require.NotEmpty(t, txErr.TxID)

	require.Equal(t, before, s.store.Len(), "failed transaction must not write")
	after, err := s.rt.Height(ctx)
	require.NoError(t, err)
	require.Equal(t, height, after)

	_, err = queryPair(t, s, assets)
	require.True(t, errors.Is(err, errs.ErrNotFound), "error = %v", err)

	data, err := s.rt.Query(ctx, s.factory, []byte(`{"pending":{}}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"pending":[]}`, string(data))
}

func TestRuntime_MigratePair(t *testing.T) {
	ctx := context.Background()
	s := newSetup(t, token.New(nil))

	_, err := s.rt.Execute(ctx, "addr0000", s.factory,
		createPairMsg(t, [2]model.AssetInfo{model.NativeToken("uusd"), model.Token("asset0000")}))
	require.NoError(t, err)

	const pairCodeV2 = 4
	require.NoError(t, s.rt.StoreCode(pairCodeV2, pair.New(nil)))

	// Only the owner can ask the factory to migrate.
	msg := []byte(fmt.Sprintf(`{"migrate_pair":{"contract":"contract0002","code_id":%d}}`, pairCodeV2))
	_, err = s.rt.Execute(ctx, "addr0009", s.factory, msg)
	require.True(t, errors.Is(err, errs.ErrUnauthorized), "error = %v", err)

	_, err = s.rt.Execute(ctx, "addr0000", s.factory, msg)
	require.NoError(t, err)

	meta, err := s.rt.Contract(ctx, "contract0002")
	require.NoError(t, err)
	require.Equal(t, uint64(pairCodeV2), meta.CodeID)

	// The factory is the pair's admin; nobody else may migrate it directly.
	_, err = s.rt.Migrate(ctx, "addr0000", "contract0002", pairCode, []byte(`{}`))
	require.True(t, errors.Is(err, errs.ErrUnauthorized), "error = %v", err)
}

func TestRuntime_MigrateFactory(t *testing.T) {
	ctx := context.Background()
	s := newSetup(t, token.New(nil))

	_, err := s.rt.Migrate(ctx, "addr0000", s.factory, factoryCode, []byte(`{}`))
	require.NoError(t, err)

	_, err = s.rt.Migrate(ctx, "addr0000", s.factory, 99, []byte(`{}`))
	require.True(t, errors.Is(err, errs.ErrNotFound), "error = %v", err)
}

func TestRuntime_LabelsAndCodes(t *testing.T) {
	ctx := context.Background()
	s := newSetup(t, token.New(nil))

	require.True(t, errors.Is(s.rt.StoreCode(pairCode, pair.New(nil)), errs.ErrAlreadyExists))

	_, err := s.rt.Instantiate(ctx, "addr0000", factoryCode, []byte(`{"token_code_id":1,"pair_code_id":2}`), "", "factory")
	require.True(t, errors.Is(err, errs.ErrAlreadyExists), "error = %v", err)

	_, err = s.rt.Lookup(ctx, "missing")
	require.True(t, errors.Is(err, errs.ErrNotFound), "error = %v", err)

	_, err = s.rt.Execute(ctx, "addr0000", "contract0099", []byte(`{}`))
	require.True(t, errors.Is(err, errs.ErrNotFound), "error = %v", err)
}

func TestRuntime_HeightAdvancesOnCommit(t *testing.T) {
	ctx := context.Background()
	s := newSetup(t, token.New(nil))

	h1, err := s.rt.Height(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), h1)

	res, err := s.rt.Execute(ctx, "addr0000", s.factory, []byte(`{"update_config":{"pair_code_id":2}}`))
	require.NoError(t, err)
	require.Equal(t, uint64(2), res.Height)
}
