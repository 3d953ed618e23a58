package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/kv"
	"github.com/rickgao/pair-factory/internal/model"
	"github.com/rickgao/pair-factory/internal/pairkey"
)

// Default page sizes for List.
const (
	DefaultLimit = 10
	MaxLimit     = 30
)

// Limits clamps page sizes requested by callers.
type Limits struct {
	Default uint32
	Max     uint32
}

// DefaultLimits returns the standard page sizes.
func DefaultLimits() Limits {
	return Limits{Default: DefaultLimit, Max: MaxLimit}
}

// Clamp applies the default to an omitted limit and caps it at Max.
func (l Limits) Clamp(limit *uint32) int {
	n := l.Default
	if limit != nil {
		n = *limit
	}
	if n > l.Max {
		n = l.Max
	}
	return int(n)
}

// PairEntry is a registry entry together with the key it is stored under.
type PairEntry struct {
	Key  pairkey.Key    `json:"key"`
	Info model.PairInfo `json:"info"`
}

// PairStore is the committed mapping from canonical key to pair.
type PairStore struct {
	rw     kv.ReadWriter
	limits Limits
}

// NewPairStore wraps the factory's storage.
func NewPairStore(rw kv.ReadWriter, limits Limits) PairStore {
	return PairStore{rw: rw, limits: limits}
}

// Get returns the entry under key, if any.
func (s PairStore) Get(ctx context.Context, key pairkey.Key) (model.PairInfo, bool, error) {
	var info model.PairInfo
	found, err := getJSON(ctx, s.rw, pairKey(key), &info)
	if err != nil {
		return model.PairInfo{}, false, fmt.Errorf("load pair %s: %w", key, err)
	}
	return info, found, nil
}

// Put stores a new entry. Entries are immutable: an existing key is an error,
// never an overwrite.
func (s PairStore) Put(ctx context.Context, key pairkey.Key, info model.PairInfo) error {
	_, found, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%w: pair %s", errs.ErrAlreadyExists, model.PairName(info.AssetInfos))
	}
	return setJSON(s.rw, pairKey(key), info)
}

// List returns up to limit entries in ascending key order, starting strictly
// after startAfter when it is set.
func (s PairStore) List(ctx context.Context, startAfter *pairkey.Key, limit *uint32) ([]PairEntry, error) {
	n := s.limits.Clamp(limit)
	if n == 0 {
		return []PairEntry{}, nil
	}

	start := PairPrefix
	if startAfter != nil {
		// The smallest key after startAfter is startAfter followed by a zero byte.
		start = append(pairKey(*startAfter), 0x00)
	}

	out := make([]PairEntry, 0, n)
	var iterErr error
	err := s.rw.Iterate(ctx, start, kv.PrefixEnd(PairPrefix), func(key, value []byte) bool {
		k, err := pairkey.FromBytes(key[len(PairPrefix):])
		if err != nil {
			iterErr = err
			return false
		}
		var info model.PairInfo
		if iterErr = unmarshal(value, &info); iterErr != nil {
			return false
		}
		out = append(out, PairEntry{Key: k, Info: info})
		return len(out) < n
	})
	if err != nil {
		return nil, fmt.Errorf("iterate pairs: %w", err)
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return out, nil
}

func unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: stored value: %v", errs.ErrDecoding, err)
	}
	return nil
}
