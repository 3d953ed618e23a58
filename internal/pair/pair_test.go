package pair

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rickgao/pair-factory/internal/address"
	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/host"
	"github.com/rickgao/pair-factory/internal/kv"
	"github.com/rickgao/pair-factory/internal/model"
)

func TestPair_Lifecycle(t *testing.T) {
	ctx := context.Background()
	deps := host.Deps{Storage: kv.NewCache(kv.NewMemory()), API: address.Default()}
	env := host.Env{Contract: host.ContractInfo{Address: "contract0004"}}
	c := New(nil)

	assets := [2]model.AssetInfo{model.NativeToken("uusd"), model.Token("asset0000")}
	msg, err := json.Marshal(model.PairInstantiateMsg{AssetInfos: assets, TokenCodeID: 1})
	require.NoError(t, err)

	resp, err := c.Instantiate(ctx, deps, env, host.MessageInfo{Sender: "contract0003"}, msg)
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)

	sub := resp.Messages[0]
	require.Equal(t, uint64(lpTokenReplyID), sub.ID)
	require.Equal(t, host.ReplySuccess, sub.ReplyOn)
	require.Equal(t, uint64(1), sub.Msg.Instantiate.CodeID)

	var tokenMsg model.TokenInstantiateMsg
	require.NoError(t, json.Unmarshal(sub.Msg.Instantiate.Msg, &tokenMsg))
	require.Equal(t, "contract0004", tokenMsg.Mint.Minter)
	require.Equal(t, uint8(LPTokenDecimals), tokenMsg.Decimals)

	ack := host.Reply{ID: lpTokenReplyID, Result: host.SubMsgResult{Ok: &host.SubMsgResponse{
		Data: host.EncodeInstantiateResponse(host.InstantiateResponse{ContractAddress: "contract0005"}),
	}}}
	_, err = c.Reply(ctx, deps, env, ack)
	require.NoError(t, err)

	data, err := c.Query(ctx, deps, env, []byte(`{"pair":{}}`))
	require.NoError(t, err)

	var info model.PairInfo
	require.NoError(t, json.Unmarshal(data, &info))
	require.Equal(t, model.PairInfo{AssetInfos: assets, ContractAddr: "contract0004", LiquidityToken: "contract0005"}, info)

	// A second token reply is rejected.
	_, err = c.Reply(ctx, deps, env, ack)
	require.True(t, errors.Is(err, errs.ErrAlreadyExists), "error = %v", err)
}

func TestPair_Rejects(t *testing.T) {
	ctx := context.Background()
	deps := host.Deps{Storage: kv.NewCache(kv.NewMemory()), API: address.Default()}
	c := New(nil)

	_, err := c.Instantiate(ctx, deps, host.Env{}, host.MessageInfo{}, []byte(`{"asset_infos":[{"token":{"contract_addr":"X"}},{"native_token":{"denom":"uusd"}}],"token_code_id":1}`))
	require.True(t, errors.Is(err, errs.ErrValidation), "error = %v", err)

	_, err = c.Reply(ctx, deps, host.Env{}, host.Reply{ID: 9})
	require.True(t, errors.Is(err, errs.ErrProtocolViolation), "error = %v", err)

	_, err = c.Execute(ctx, deps, host.Env{}, host.MessageInfo{}, []byte(`{"swap":{}}`))
	require.True(t, errors.Is(err, errs.ErrUnsupported))

	_, err = c.Query(ctx, deps, host.Env{}, []byte(`{"pair":{}}`))
	require.True(t, errors.Is(err, errs.ErrNotFound))
}
