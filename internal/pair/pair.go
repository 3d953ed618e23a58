// Package pair is the pair template the factory instantiates. On creation it
// instantiates its liquidity token and records the result; it answers the
// factory's {"pair":{}} query. Swaps and liquidity provision are not modelled.
package pair

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/host"
	"github.com/rickgao/pair-factory/internal/model"
)

// infoKey is the length-prefixed singleton key the pair stores its
// PairInfo under.
var infoKey = []byte("\x00\x09pair_info")

// lpTokenReplyID correlates the liquidity token instantiation.
const lpTokenReplyID = 1

// Liquidity token parameters.
const (
	LPTokenName     = "terraswap liquidity token"
	LPTokenSymbol   = "uLP"
	LPTokenDecimals = 6
)

type queryMsg struct {
	Pair *struct{} `json:"pair,omitempty"`
}

// Contract implements host.Contract.
type Contract struct {
	logger *slog.Logger
}

var _ host.Contract = (*Contract)(nil)

// New creates a pair contract.
func New(logger *slog.Logger) *Contract {
	if logger == nil {
		logger = slog.Default()
	}
	return &Contract{logger: logger}
}

// Instantiate records the pair and dispatches its liquidity token.
func (c *Contract) Instantiate(ctx context.Context, deps host.Deps, env host.Env, _ host.MessageInfo, msg []byte) (*host.Response, error) {
	var m model.PairInstantiateMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		return nil, fmt.Errorf("%w: pair instantiate msg: %w", errs.ErrValidation, err)
	}
	for _, a := range m.AssetInfos {
		if err := a.Validate(deps.API); err != nil {
			return nil, err
		}
	}

	info := model.PairInfo{
		AssetInfos:   m.AssetInfos,
		ContractAddr: env.Contract.Address,
	}
	if err := save(deps, info); err != nil {
		return nil, err
	}

	tokenMsg, err := json.Marshal(model.TokenInstantiateMsg{
		Name:     LPTokenName,
		Symbol:   LPTokenSymbol,
		Decimals: LPTokenDecimals,
		Mint:     &model.MinterResponse{Minter: env.Contract.Address},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal token instantiate msg: %w", err)
	}

	c.logger.Debug("pair instantiated",
		"contract", env.Contract.Address,
		"pair", model.PairName(m.AssetInfos),
		"token_code_id", m.TokenCodeID,
	)

	return host.NewResponse().AddSubMessage(host.SubMsg{
		ID: lpTokenReplyID,
		Msg: host.Msg{Instantiate: &host.InstantiateMsg{
			CodeID: m.TokenCodeID,
			Msg:    tokenMsg,
		}},
		ReplyOn: host.ReplySuccess,
	}), nil
}

func (c *Contract) Execute(context.Context, host.Deps, host.Env, host.MessageInfo, []byte) (*host.Response, error) {
	return nil, fmt.Errorf("%w: pair execute", errs.ErrUnsupported)
}

// Reply records the liquidity token address.
func (c *Contract) Reply(ctx context.Context, deps host.Deps, _ host.Env, reply host.Reply) (*host.Response, error) {
	if reply.ID != lpTokenReplyID {
		return nil, fmt.Errorf("%w: unknown reply id %d", errs.ErrProtocolViolation, reply.ID)
	}
	if !reply.Result.IsOk() {
		return nil, fmt.Errorf("liquidity token creation failed: %s", reply.Result.Err)
	}

	ack, err := host.DecodeInstantiateResponse(reply.Result.Ok.Data)
	if err != nil {
		return nil, err
	}
	if err := deps.API.Validate(ack.ContractAddress); err != nil {
		return nil, fmt.Errorf("%w: liquidity token address: %w", errs.ErrDecoding, err)
	}

	info, err := load(ctx, deps)
	if err != nil {
		return nil, err
	}
	if info.LiquidityToken != "" {
		return nil, fmt.Errorf("%w: liquidity token already set", errs.ErrAlreadyExists)
	}
	info.LiquidityToken = ack.ContractAddress
	if err := save(deps, info); err != nil {
		return nil, err
	}

	return host.NewResponse().AddAttribute("liquidity_token_addr", info.LiquidityToken), nil
}

func (c *Contract) Query(ctx context.Context, deps host.Deps, _ host.Env, msg []byte) ([]byte, error) {
	var q queryMsg
	if err := json.Unmarshal(msg, &q); err != nil || q.Pair == nil {
		return nil, fmt.Errorf("%w: unknown pair query %s", errs.ErrValidation, msg)
	}
	data, err := deps.Storage.Get(ctx, infoKey)
	if err != nil {
		return nil, fmt.Errorf("load pair info: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: pair info", errs.ErrNotFound)
	}
	return data, nil
}

// Migrate accepts any upgrade; the pair keeps its state as is.
func (c *Contract) Migrate(_ context.Context, _ host.Deps, env host.Env, _ []byte) (*host.Response, error) {
	c.logger.Info("pair migrated", "contract", env.Contract.Address)
	return host.NewResponse(), nil
}

func load(ctx context.Context, deps host.Deps) (model.PairInfo, error) {
	data, err := deps.Storage.Get(ctx, infoKey)
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("load pair info: %w", err)
	}
	if data == nil {
		return model.PairInfo{}, fmt.Errorf("%w: pair info", errs.ErrNotFound)
	}
	var info model.PairInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return model.PairInfo{}, fmt.Errorf("%w: pair info: %w", errs.ErrDecoding, err)
	}
	return info, nil
}

func save(deps host.Deps, info model.PairInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal pair info: %w", err)
	}
	deps.Storage.Set(infoKey, data)
	return nil
}
