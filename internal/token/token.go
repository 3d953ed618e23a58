// Package token is the liquidity token template. It records what it was
// created with and reports it back; balances and transfers are not modelled.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/host"
	"github.com/rickgao/pair-factory/internal/model"
)

var infoKey = []byte("token_info")

// InfoResponse answers {"token_info":{}}.
type InfoResponse struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Minter   string `json:"minter,omitempty"`
}

type queryMsg struct {
	TokenInfo *struct{} `json:"token_info,omitempty"`
}

// Contract implements host.Contract.
type Contract struct {
	logger *slog.Logger
}

var _ host.Contract = (*Contract)(nil)

// New creates a token contract.
func New(logger *slog.Logger) *Contract {
	if logger == nil {
		logger = slog.Default()
	}
	return &Contract{logger: logger}
}

func (c *Contract) Instantiate(ctx context.Context, deps host.Deps, env host.Env, _ host.MessageInfo, msg []byte) (*host.Response, error) {
	var m model.TokenInstantiateMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		return nil, fmt.Errorf("%w: token instantiate msg: %w", errs.ErrValidation, err)
	}
	if m.Name == "" || m.Symbol == "" {
		return nil, fmt.Errorf("%w: token name and symbol are required", errs.ErrValidation)
	}
	if m.Mint != nil {
		if err := deps.API.Validate(m.Mint.Minter); err != nil {
			return nil, fmt.Errorf("minter: %w", err)
		}
	}

	info := InfoResponse{Name: m.Name, Symbol: m.Symbol, Decimals: m.Decimals}
	if m.Mint != nil {
		info.Minter = m.Mint.Minter
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("marshal token info: %w", err)
	}
	deps.Storage.Set(infoKey, data)

	c.logger.Debug("token instantiated", "contract", env.Contract.Address, "symbol", m.Symbol, "minter", info.Minter)
	return host.NewResponse(), nil
}

func (c *Contract) Execute(context.Context, host.Deps, host.Env, host.MessageInfo, []byte) (*host.Response, error) {
	return nil, fmt.Errorf("%w: token execute", errs.ErrUnsupported)
}

func (c *Contract) Reply(context.Context, host.Deps, host.Env, host.Reply) (*host.Response, error) {
	return nil, fmt.Errorf("%w: token dispatches no sub-messages", errs.ErrUnsupported)
}

func (c *Contract) Query(ctx context.Context, deps host.Deps, _ host.Env, msg []byte) ([]byte, error) {
	var q queryMsg
	if err := json.Unmarshal(msg, &q); err != nil || q.TokenInfo == nil {
		return nil, fmt.Errorf("%w: unknown token query %s", errs.ErrValidation, msg)
	}
	data, err := deps.Storage.Get(ctx, infoKey)
	if err != nil {
		return nil, fmt.Errorf("load token info: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: token info", errs.ErrNotFound)
	}
	return data, nil
}

func (c *Contract) Migrate(context.Context, host.Deps, host.Env, []byte) (*host.Response, error) {
	return host.NewResponse(), nil
}
