package state

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/kv"
	"github.com/rickgao/pair-factory/internal/model"
	"github.com/rickgao/pair-factory/internal/pairkey"
)

// PendingPair correlates a dispatched creation with the entry it will produce.
type PendingPair struct {
	ID         uint64             `json:"id"`       // Correlation id echoed by the host's reply
	PairKey    pairkey.Key        `json:"pair_key"` // Canonical key the entry will be stored under
	AssetInfos [2]model.AssetInfo `json:"asset_infos"`
}

// PendingStage holds in-flight creations keyed by correlation id. Each reply
// can only consume the record staged under its own id.
type PendingStage struct {
	rw kv.ReadWriter
}

// NewPendingStage wraps the factory's storage.
func NewPendingStage(rw kv.ReadWriter) PendingStage {
	return PendingStage{rw: rw}
}

// NextID allocates the next correlation id. Ids start at 1 and never repeat.
func (s PendingStage) NextID(ctx context.Context) (uint64, error) {
	data, err := s.rw.Get(ctx, ReplySeqKey)
	if err != nil {
		return 0, fmt.Errorf("load reply seq: %w", err)
	}
	var last uint64
	if data != nil {
		if len(data) != 8 {
			return 0, fmt.Errorf("%w: reply seq is %d bytes", errs.ErrDecoding, len(data))
		}
		last = binary.BigEndian.Uint64(data)
	}
	next := last + 1
	s.rw.Set(ReplySeqKey, binary.BigEndian.AppendUint64(nil, next))
	return next, nil
}

// Stage records rec under rec.ID and marks its pair key as in flight.
func (s PendingStage) Stage(rec PendingPair) error {
	if err := setJSON(s.rw, pendingKey(rec.ID), rec); err != nil {
		return err
	}
	s.rw.Set(inFlightKey(rec.PairKey), binary.BigEndian.AppendUint64(nil, rec.ID))
	return nil
}

// Get returns the record staged under id without consuming it.
func (s PendingStage) Get(ctx context.Context, id uint64) (PendingPair, bool, error) {
	var rec PendingPair
	found, err := getJSON(ctx, s.rw, pendingKey(id), &rec)
	if err != nil {
		return PendingPair{}, false, fmt.Errorf("load pending %d: %w", id, err)
	}
	return rec, found, nil
}

// Take reads and clears the record staged under id. It fails with
// ErrNotFound when nothing is staged under id.
func (s PendingStage) Take(ctx context.Context, id uint64) (PendingPair, error) {
	rec, found, err := s.Get(ctx, id)
	if err != nil {
		return PendingPair{}, err
	}
	if !found {
		return PendingPair{}, fmt.Errorf("%w: pending creation %d", errs.ErrNotFound, id)
	}
	s.rw.Delete(pendingKey(id))
	s.rw.Delete(inFlightKey(rec.PairKey))
	return rec, nil
}

// InFlight returns the correlation id of a pending creation for key, if any.
func (s PendingStage) InFlight(ctx context.Context, key pairkey.Key) (uint64, bool, error) {
	data, err := s.rw.Get(ctx, inFlightKey(key))
	if err != nil {
		return 0, false, fmt.Errorf("load in-flight %s: %w", key, err)
	}
	if data == nil {
		return 0, false, nil
	}
	if len(data) != 8 {
		return 0, false, fmt.Errorf("%w: in-flight id is %d bytes", errs.ErrDecoding, len(data))
	}
	return binary.BigEndian.Uint64(data), true, nil
}

// List returns all pending records in ascending id order.
func (s PendingStage) List(ctx context.Context) ([]PendingPair, error) {
	var (
		out     []PendingPair
		iterErr error
	)
	err := s.rw.Iterate(ctx, PendingPrefix, kv.PrefixEnd(PendingPrefix), func(_, value []byte) bool {
		var rec PendingPair
		if iterErr = unmarshal(value, &rec); iterErr != nil {
			return false
		}
		out = append(out, rec)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("iterate pending: %w", err)
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return out, nil
}
