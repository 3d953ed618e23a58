package factory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rickgao/pair-factory/internal/host"
	"github.com/rickgao/pair-factory/internal/state"
)

// ContractName is recorded in contract_info at instantiation.
const ContractName = "pair-factory"

// ContractVersion is the state version written by this code.
const ContractVersion = "1"

// Config holds Factory settings that are not part of contract state.
type Config struct {
	Limits state.Limits // Page sizes for ListPairs
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Limits: state.DefaultLimits()}
}

// Factory is the pair factory contract. It is stateless; everything it
// knows lives in the storage handed to each entry point.
type Factory struct {
	cfg    Config
	logger *slog.Logger
}

var _ host.Contract = (*Factory)(nil)

// New creates a Factory.
func New(cfg Config, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Limits.Max == 0 {
		cfg.Limits = state.DefaultLimits()
	}
	return &Factory{cfg: cfg, logger: logger}
}

// log prefers the logger the host supplied for this invocation.
func (f *Factory) log(deps host.Deps) *slog.Logger {
	if deps.Logger != nil {
		return deps.Logger
	}
	return f.logger
}

// Instantiate decodes an InstantiateMsg and calls Init.
func (f *Factory) Instantiate(ctx context.Context, deps host.Deps, _ host.Env, info host.MessageInfo, msg []byte) (*host.Response, error) {
	var m InstantiateMsg
	if err := decode(msg, &m); err != nil {
		return nil, err
	}
	return f.Init(ctx, deps, info, m)
}

// Execute decodes an ExecuteMsg and routes it.
func (f *Factory) Execute(ctx context.Context, deps host.Deps, env host.Env, info host.MessageInfo, msg []byte) (*host.Response, error) {
	var m ExecuteMsg
	if err := decode(msg, &m); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}

	switch {
	case m.UpdateConfig != nil:
		return f.UpdateConfig(ctx, deps, info, *m.UpdateConfig)
	case m.CreatePair != nil:
		return f.CreatePair(ctx, deps, env, info, m.CreatePair.AssetInfos)
	default:
		return f.MigratePair(ctx, deps, info, m.MigratePair.Contract, m.MigratePair.CodeID)
	}
}

// Reply routes acknowledgments. Every sub-message the factory dispatches
// with a reply is a pair creation.
func (f *Factory) Reply(ctx context.Context, deps host.Deps, _ host.Env, reply host.Reply) (*host.Response, error) {
	return f.OnCreateAck(ctx, deps, reply)
}

// Query decodes a QueryMsg and returns the JSON encoded answer.
func (f *Factory) Query(ctx context.Context, deps host.Deps, _ host.Env, msg []byte) ([]byte, error) {
	var m QueryMsg
	if err := decode(msg, &m); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}

	var (
		resp any
		err  error
	)
	switch {
	case m.Config != nil:
		resp, err = f.GetConfig(ctx, deps)
	case m.Pair != nil:
		resp, err = f.GetPair(ctx, deps, m.Pair.AssetInfos)
	case m.Pairs != nil:
		resp, err = f.ListPairs(ctx, deps, m.Pairs.StartAfter, m.Pairs.Limit)
	default:
		resp, err = f.GetPending(ctx, deps)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal query response: %w", err)
	}
	return data, nil
}

// Migrate is the factory's upgrade entry point. The state layout has not
// changed since version 1, so it only records the running version.
func (f *Factory) Migrate(ctx context.Context, deps host.Deps, _ host.Env, msg []byte) (*host.Response, error) {
	var m MigrateMsg
	if err := decode(msg, &m); err != nil {
		return nil, err
	}

	prev, _, err := state.LoadContractInfo(ctx, deps.Storage)
	if err != nil {
		return nil, fmt.Errorf("load contract info: %w", err)
	}
	if err := state.SaveContractInfo(deps.Storage, state.ContractInfo{Contract: ContractName, Version: ContractVersion}); err != nil {
		return nil, err
	}

	f.log(deps).Info("factory migrated",
		"from_version", prev.Version,
		"to_version", ContractVersion,
	)
	return host.NewResponse(), nil
}
