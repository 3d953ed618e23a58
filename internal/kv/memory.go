package kv

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Store. Keys are kept sorted; Go string order is
// byte order, so it matches the SQL stores.
type Memory struct {
	mu     sync.RWMutex
	keys   []string
	values map[string][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Get returns the value at key, or nil.
func (m *Memory) Get(_ context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.values[string(key)]), nil
}

// Iterate scans [start, end) in ascending order over a snapshot of the keys.
func (m *Memory) Iterate(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error {
	m.mu.RLock()
	lo := 0
	if start != nil {
		lo, _ = slices.BinarySearch(m.keys, string(start))
	}
	hi := len(m.keys)
	if end != nil {
		hi, _ = slices.BinarySearch(m.keys, string(end))
	}
	type entry struct {
		key   []byte
		value []byte
	}
	var snapshot []entry
	if lo < hi {
		snapshot = make([]entry, 0, hi-lo)
		for _, k := range m.keys[lo:hi] {
			snapshot = append(snapshot, entry{key: []byte(k), value: clone(m.values[k])})
		}
	}
	m.mu.RUnlock()

	for _, e := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(e.key, e.value) {
			return nil
		}
	}
	return nil
}

// Apply commits ops under the write lock.
func (m *Memory) Apply(_ context.Context, ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, op := range ops {
		k := string(op.Key)
		i, found := slices.BinarySearch(m.keys, k)
		if op.Delete {
			if found {
				m.keys = slices.Delete(m.keys, i, i+1)
				delete(m.values, k)
			}
			continue
		}
		if !found {
			m.keys = slices.Insert(m.keys, i, k)
		}
		m.values[k] = clone(op.Value)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
