package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/kv"
)

// Config holds the factory's administrative parameters.
type Config struct {
	Owner       string `json:"owner"`         // Only identity allowed to update config or migrate pairs
	TokenCodeID uint64 `json:"token_code_id"` // Template for liquidity tokens
	PairCodeID  uint64 `json:"pair_code_id"`  // Template for pair contracts
}

// ConfigStore reads and writes the configuration singleton.
type ConfigStore struct {
	rw kv.ReadWriter
}

// NewConfigStore wraps the factory's storage.
func NewConfigStore(rw kv.ReadWriter) ConfigStore {
	return ConfigStore{rw: rw}
}

// Load returns the configuration. A missing value means the factory was
// never initialized.
func (s ConfigStore) Load(ctx context.Context) (Config, error) {
	var cfg Config
	found, err := getJSON(ctx, s.rw, ConfigKey, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if !found {
		return Config{}, fmt.Errorf("%w: config", errs.ErrNotFound)
	}
	return cfg, nil
}

// Save overwrites the configuration.
func (s ConfigStore) Save(cfg Config) error {
	return setJSON(s.rw, ConfigKey, cfg)
}

// ContractInfo records what code a contract's state belongs to.
type ContractInfo struct {
	Contract string `json:"contract"`
	Version  string `json:"version"`
}

// LoadContractInfo returns the stored contract info, if any.
func LoadContractInfo(ctx context.Context, r kv.Reader) (ContractInfo, bool, error) {
	var info ContractInfo
	found, err := getJSON(ctx, r, ContractInfoKey, &info)
	return info, found, err
}

// SaveContractInfo overwrites the stored contract info.
func SaveContractInfo(w kv.Writer, info ContractInfo) error {
	return setJSON(w, ContractInfoKey, info)
}

func getJSON(ctx context.Context, r kv.Reader, key []byte, v any) (bool, error) {
	data, err := r.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: unmarshal %q: %v", errs.ErrDecoding, key, err)
	}
	return true, nil
}

func setJSON(w kv.Writer, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	w.Set(key, data)
	return nil
}
