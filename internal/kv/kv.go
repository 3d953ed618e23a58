// Package kv is the ordered key-value abstraction every contract's state
// lives in.
//
// Stores are byte-ordered: Iterate visits keys in ascending bytes.Compare
// order. All mutation goes through a Cache, which buffers writes until the
// invocation that produced them succeeds and is then flushed to its parent
// with a single atomic Apply.
package kv

import (
	"context"
)

// Reader provides point lookups and ordered range scans.
type Reader interface {
	// Get returns the value stored at key, or nil if there is none.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Iterate calls fn for every key in [start, end) in ascending order.
	// A nil start means the first key, a nil end means past the last key.
	// Iteration stops early when fn returns false.
	Iterate(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error
}

// Writer buffers mutations.
type Writer interface {
	Set(key, value []byte)
	Delete(key []byte)
}

// ReadWriter is the storage handle given to contract entry points.
type ReadWriter interface {
	Reader
	Writer
}

// Op is a single buffered mutation.
type Op struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Backend accepts batches of mutations atomically.
type Backend interface {
	Reader

	// Apply commits all ops or none of them.
	Apply(ctx context.Context, ops []Op) error
}

// Store is a durable Backend.
type Store interface {
	Backend
	Close() error
}

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil if there is none.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
