package factory

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/model"
	"github.com/rickgao/pair-factory/internal/state"
)

// InstantiateMsg initializes the factory.
type InstantiateMsg struct {
	TokenCodeID uint64 `json:"token_code_id"`
	PairCodeID  uint64 `json:"pair_code_id"`
}

// ExecuteMsg is the factory's execute message. Exactly one field is set.
type ExecuteMsg struct {
	UpdateConfig *UpdateConfigMsg `json:"update_config,omitempty"`
	CreatePair   *CreatePairMsg   `json:"create_pair,omitempty"`
	MigratePair  *MigratePairMsg  `json:"migrate_pair,omitempty"`
}

// UpdateConfigMsg changes the provided fields and leaves the rest alone.
type UpdateConfigMsg struct {
	Owner       *string `json:"owner,omitempty"`
	TokenCodeID *uint64 `json:"token_code_id,omitempty"`
	PairCodeID  *uint64 `json:"pair_code_id,omitempty"`
}

// CreatePairMsg requests a new pair.
type CreatePairMsg struct {
	AssetInfos [2]model.AssetInfo `json:"asset_infos"`
}

// MigratePairMsg upgrades a pair contract. CodeID defaults to the configured pair template.
type MigratePairMsg struct {
	Contract string  `json:"contract"`
	CodeID   *uint64 `json:"code_id,omitempty"`
}

// QueryMsg is the factory's query message. Exactly one field is set.
type QueryMsg struct {
	Config  *struct{}   `json:"config,omitempty"`
	Pair    *PairQuery  `json:"pair,omitempty"`
	Pairs   *PairsQuery `json:"pairs,omitempty"`
	Pending *struct{}   `json:"pending,omitempty"`
}

// PairQuery looks up one pair.
type PairQuery struct {
	AssetInfos [2]model.AssetInfo `json:"asset_infos"`
}

// PairsQuery pages through the registry.
type PairsQuery struct {
	StartAfter *[2]model.AssetInfo `json:"start_after,omitempty"`
	Limit      *uint32             `json:"limit,omitempty"`
}

// MigrateMsg is the factory's own upgrade message. It has no fields.
type MigrateMsg struct{}

// ConfigResponse answers the config query.
type ConfigResponse struct {
	Owner       string `json:"owner"`
	TokenCodeID uint64 `json:"token_code_id"`
	PairCodeID  uint64 `json:"pair_code_id"`
}

// PairsResponse answers the pairs query.
type PairsResponse struct {
	Pairs []model.PairInfo `json:"pairs"`
}

// PendingResponse answers the pending query.
type PendingResponse struct {
	Pending []state.PendingPair `json:"pending"`
}

// decode unmarshals a JSON message strictly.
func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: parse message: %w", errs.ErrValidation, err)
	}
	return nil
}

func countSet(ptrs ...bool) int {
	n := 0
	for _, set := range ptrs {
		if set {
			n++
		}
	}
	return n
}

func (m ExecuteMsg) validate() error {
	if countSet(m.UpdateConfig != nil, m.CreatePair != nil, m.MigratePair != nil) != 1 {
		return fmt.Errorf("%w: execute message must set exactly one variant", errs.ErrValidation)
	}
	return nil
}

func (m QueryMsg) validate() error {
	if countSet(m.Config != nil, m.Pair != nil, m.Pairs != nil, m.Pending != nil) != 1 {
		return fmt.Errorf("%w: query message must set exactly one variant", errs.ErrValidation)
	}
	return nil
}
