package factory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/host"
	"github.com/rickgao/pair-factory/internal/model"
	"github.com/rickgao/pair-factory/internal/pairkey"
	"github.com/rickgao/pair-factory/internal/state"
)

// Init stores the configuration with the caller as owner. First call wins;
// the host only instantiates a contract once.
func (f *Factory) Init(ctx context.Context, deps host.Deps, info host.MessageInfo, msg InstantiateMsg) (*host.Response, error) {
	if err := deps.API.Validate(info.Sender); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}

	cfg := state.Config{
		Owner:       info.Sender,
		TokenCodeID: msg.TokenCodeID,
		PairCodeID:  msg.PairCodeID,
	}
	if err := state.NewConfigStore(deps.Storage).Save(cfg); err != nil {
		return nil, err
	}
	if err := state.SaveContractInfo(deps.Storage, state.ContractInfo{Contract: ContractName, Version: ContractVersion}); err != nil {
		return nil, err
	}

	f.log(deps).Info("factory initialized",
		"owner", cfg.Owner,
		"token_code_id", cfg.TokenCodeID,
		"pair_code_id", cfg.PairCodeID,
	)
	return host.NewResponse(), nil
}

// UpdateConfig changes the provided fields. Only the owner may call it.
func (f *Factory) UpdateConfig(ctx context.Context, deps host.Deps, info host.MessageInfo, msg UpdateConfigMsg) (*host.Response, error) {
	store := state.NewConfigStore(deps.Storage)
	cfg, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if info.Sender != cfg.Owner {
		return nil, fmt.Errorf("%w: %s is not the owner", errs.ErrUnauthorized, info.Sender)
	}

	if msg.Owner != nil {
		if err := deps.API.Validate(*msg.Owner); err != nil {
			return nil, fmt.Errorf("owner: %w", err)
		}
		cfg.Owner = *msg.Owner
	}
	if msg.TokenCodeID != nil {
		cfg.TokenCodeID = *msg.TokenCodeID
	}
	if msg.PairCodeID != nil {
		cfg.PairCodeID = *msg.PairCodeID
	}

	if err := store.Save(cfg); err != nil {
		return nil, err
	}

	f.log(deps).Info("factory config updated",
		"owner", cfg.Owner,
		"token_code_id", cfg.TokenCodeID,
		"pair_code_id", cfg.PairCodeID,
	)
	return host.NewResponse().AddAttribute("action", "update_config"), nil
}

// CreatePair stages a pending creation and dispatches the pair instantiation.
// Anyone may call it.
func (f *Factory) CreatePair(ctx context.Context, deps host.Deps, env host.Env, _ host.MessageInfo, assets [2]model.AssetInfo) (*host.Response, error) {
	cfg, err := state.NewConfigStore(deps.Storage).Load(ctx)
	if err != nil {
		return nil, err
	}

	key, err := pairkey.Derive(deps.API, assets)
	if err != nil {
		return nil, err
	}
	if assets[0].Equal(assets[1]) {
		return nil, fmt.Errorf("%w: pair of identical assets %s", errs.ErrValidation, assets[0])
	}

	pairs := state.NewPairStore(deps.Storage, f.cfg.Limits)
	if _, found, err := pairs.Get(ctx, key); err != nil {
		return nil, err
	} else if found {
		return nil, fmt.Errorf("%w: pair %s", errs.ErrAlreadyExists, model.PairName(assets))
	}

	pending := state.NewPendingStage(deps.Storage)
	if id, found, err := pending.InFlight(ctx, key); err != nil {
		return nil, err
	} else if found {
		return nil, fmt.Errorf("%w: pair %s is already being created (reply %d)", errs.ErrAlreadyExists, model.PairName(assets), id)
	}

	id, err := pending.NextID(ctx)
	if err != nil {
		return nil, err
	}
	if err := pending.Stage(state.PendingPair{ID: id, PairKey: key, AssetInfos: assets}); err != nil {
		return nil, err
	}

	initMsg, err := json.Marshal(model.PairInstantiateMsg{
		AssetInfos:  assets,
		TokenCodeID: cfg.TokenCodeID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal pair instantiate msg: %w", err)
	}

	f.log(deps).Info("pair creation dispatched",
		"pair", model.PairName(assets),
		"pair_key", key.String(),
		"reply_id", id,
		"pair_code_id", cfg.PairCodeID,
	)

	return host.NewResponse().
		AddAttribute("action", "create_pair").
		AddAttribute("pair", model.PairName(assets)).
		AddSubMessage(host.SubMsg{
			ID: id,
			Msg: host.Msg{Instantiate: &host.InstantiateMsg{
				CodeID: cfg.PairCodeID,
				Msg:    initMsg,
				Admin:  env.Contract.Address,
			}},
			ReplyOn: host.ReplySuccess,
		}), nil
}

// OnCreateAck commits the registry entry for the creation staged under
// reply.ID. It is only ever invoked by the host.
func (f *Factory) OnCreateAck(ctx context.Context, deps host.Deps, reply host.Reply) (*host.Response, error) {
	// A failed creation leaves the pending record staged.
	if !reply.Result.IsOk() {
		return nil, fmt.Errorf("pair creation %d failed: %s", reply.ID, reply.Result.Err)
	}

	pending := state.NewPendingStage(deps.Storage)
	rec, err := pending.Take(ctx, reply.ID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: reply %d has no pending creation", errs.ErrProtocolViolation, reply.ID)
		}
		return nil, err
	}

	ack, err := host.DecodeInstantiateResponse(reply.Result.Ok.Data)
	if err != nil {
		return nil, err
	}
	if ack.ContractAddress == "" {
		return nil, fmt.Errorf("%w: instantiate response has no contract address", errs.ErrDecoding)
	}
	if err := deps.API.Validate(ack.ContractAddress); err != nil {
		return nil, fmt.Errorf("%w: pair contract address: %w", errs.ErrDecoding, err)
	}

	lpToken, err := queryLiquidityToken(ctx, deps, ack.ContractAddress)
	if err != nil {
		return nil, err
	}

	entry := model.PairInfo{
		AssetInfos:     rec.AssetInfos,
		ContractAddr:   ack.ContractAddress,
		LiquidityToken: lpToken,
	}
	if err := state.NewPairStore(deps.Storage, f.cfg.Limits).Put(ctx, rec.PairKey, entry); err != nil {
		return nil, err
	}

	f.log(deps).Info("pair registered",
		"pair", model.PairName(rec.AssetInfos),
		"pair_key", rec.PairKey.String(),
		"reply_id", reply.ID,
		"pair_contract_addr", entry.ContractAddr,
		"liquidity_token_addr", entry.LiquidityToken,
	)

	return host.NewResponse().
		AddAttribute("pair_contract_addr", entry.ContractAddr).
		AddAttribute("liquidity_token_addr", entry.LiquidityToken), nil
}

// MigratePair forwards an upgrade directive to a pair contract. Only the
// owner may call it. Nothing in the registry changes.
func (f *Factory) MigratePair(ctx context.Context, deps host.Deps, info host.MessageInfo, contract string, codeID *uint64) (*host.Response, error) {
	cfg, err := state.NewConfigStore(deps.Storage).Load(ctx)
	if err != nil {
		return nil, err
	}
	if info.Sender != cfg.Owner {
		return nil, fmt.Errorf("%w: %s is not the owner", errs.ErrUnauthorized, info.Sender)
	}
	if err := deps.API.Validate(contract); err != nil {
		return nil, fmt.Errorf("contract: %w", err)
	}

	newCodeID := cfg.PairCodeID
	if codeID != nil {
		newCodeID = *codeID
	}

	f.log(deps).Info("pair migration dispatched",
		"contract", contract,
		"new_code_id", newCodeID,
	)

	return host.NewResponse().AddMessage(host.Msg{Migrate: &host.MigrateMsg{
		Contract:  contract,
		NewCodeID: newCodeID,
		Msg:       []byte("{}"),
	}}), nil
}

// pairInfoQuery is the pair contract's query for its own PairInfo.
var pairInfoQuery = []byte(`{"pair":{}}`)

// queryLiquidityToken asks a freshly created pair for its liquidity token.
func queryLiquidityToken(ctx context.Context, deps host.Deps, pairAddr string) (string, error) {
	data, err := deps.Querier.QueryWasmSmart(ctx, pairAddr, pairInfoQuery)
	if err != nil {
		return "", fmt.Errorf("query pair %s: %w", pairAddr, err)
	}
	var info model.PairInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return "", fmt.Errorf("%w: pair %s info: %w", errs.ErrDecoding, pairAddr, err)
	}
	if err := deps.API.Validate(info.LiquidityToken); err != nil {
		return "", fmt.Errorf("pair %s liquidity token: %w", pairAddr, err)
	}
	return info.LiquidityToken, nil
}
