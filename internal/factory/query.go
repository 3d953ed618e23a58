package factory

import (
	"context"
	"fmt"

	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/host"
	"github.com/rickgao/pair-factory/internal/model"
	"github.com/rickgao/pair-factory/internal/pairkey"
	"github.com/rickgao/pair-factory/internal/state"
)

// GetConfig returns the current configuration.
func (f *Factory) GetConfig(ctx context.Context, deps host.Deps) (ConfigResponse, error) {
	cfg, err := state.NewConfigStore(deps.Storage).Load(ctx)
	if err != nil {
		return ConfigResponse{}, err
	}
	return ConfigResponse{
		Owner:       cfg.Owner,
		TokenCodeID: cfg.TokenCodeID,
		PairCodeID:  cfg.PairCodeID,
	}, nil
}

// GetPair returns the entry for an unordered asset pair.
func (f *Factory) GetPair(ctx context.Context, deps host.Deps, assets [2]model.AssetInfo) (model.PairInfo, error) {
	key, err := pairkey.Derive(deps.API, assets)
	if err != nil {
		return model.PairInfo{}, err
	}
	info, found, err := state.NewPairStore(deps.Storage, f.cfg.Limits).Get(ctx, key)
	if err != nil {
		return model.PairInfo{}, err
	}
	if !found {
		return model.PairInfo{}, fmt.Errorf("%w: pair %s", errs.ErrNotFound, model.PairName(assets))
	}
	return info, nil
}

// ListPairs returns registry entries in ascending key order, starting
// strictly after the key of startAfter when it is given.
func (f *Factory) ListPairs(ctx context.Context, deps host.Deps, startAfter *[2]model.AssetInfo, limit *uint32) (PairsResponse, error) {
	var cursor *pairkey.Key
	if startAfter != nil {
		key, err := pairkey.Derive(deps.API, *startAfter)
		if err != nil {
			return PairsResponse{}, err
		}
		cursor = &key
	}

	entries, err := state.NewPairStore(deps.Storage, f.cfg.Limits).List(ctx, cursor, limit)
	if err != nil {
		return PairsResponse{}, err
	}

	pairs := make([]model.PairInfo, 0, len(entries))
	for _, e := range entries {
		pairs = append(pairs, e.Info)
	}
	return PairsResponse{Pairs: pairs}, nil
}

// GetPending lists creations that were dispatched but not yet acknowledged.
func (f *Factory) GetPending(ctx context.Context, deps host.Deps) (PendingResponse, error) {
	pending, err := state.NewPendingStage(deps.Storage).List(ctx)
	if err != nil {
		return PendingResponse{}, err
	}
	if pending == nil {
		pending = []state.PendingPair{}
	}
	return PendingResponse{Pending: pending}, nil
}
