package kv

import (
	"bytes"
	"context"
	"slices"
)

type cacheEntry struct {
	value   []byte
	deleted bool
}

// Cache is a write buffer over a parent Backend. Reads see buffered writes
// first; Flush hands them to the parent in one Apply. A Cache is itself a
// Backend, so frames nest.
//
// A Cache is not safe for concurrent use.
type Cache struct {
	parent Backend
	dirty  map[string]cacheEntry
}

// NewCache creates an empty write buffer over parent.
func NewCache(parent Backend) *Cache {
	return &Cache{
		parent: parent,
		dirty:  make(map[string]cacheEntry),
	}
}

// Get returns the buffered value if key was written, else the parent's.
func (c *Cache) Get(ctx context.Context, key []byte) ([]byte, error) {
	if e, ok := c.dirty[string(key)]; ok {
		if e.deleted {
			return nil, nil
		}
		return clone(e.value), nil
	}
	return c.parent.Get(ctx, key)
}

// Set buffers a write.
func (c *Cache) Set(key, value []byte) {
	if value == nil {
		value = []byte{}
	}
	c.dirty[string(key)] = cacheEntry{value: clone(value)}
}

// Delete buffers a deletion.
func (c *Cache) Delete(key []byte) {
	c.dirty[string(key)] = cacheEntry{deleted: true}
}

// Apply buffers ops as if they had been written with Set and Delete.
func (c *Cache) Apply(_ context.Context, ops []Op) error {
	for _, op := range ops {
		if op.Delete {
			c.Delete(op.Key)
		} else {
			c.Set(op.Key, op.Value)
		}
	}
	return nil
}

// Iterate merges buffered writes with the parent's range in key order.
func (c *Cache) Iterate(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error {
	pending := c.dirtyKeys(start, end)

	stopped := false
	// emitUntil flushes buffered keys strictly below limit (all when limit is nil).
	emitUntil := func(limit []byte) bool {
		for len(pending) > 0 {
			k := pending[0]
			if limit != nil && bytes.Compare([]byte(k), limit) >= 0 {
				return true
			}
			pending = pending[1:]
			e := c.dirty[k]
			if e.deleted {
				continue
			}
			if !fn([]byte(k), clone(e.value)) {
				stopped = true
				return false
			}
		}
		return true
	}

	err := c.parent.Iterate(ctx, start, end, func(key, value []byte) bool {
		if !emitUntil(key) {
			return false
		}
		if e, ok := c.dirty[string(key)]; ok {
			// Buffered write shadows the parent; it is next in pending.
			pending = pending[1:]
			if e.deleted {
				return true
			}
			if !fn(key, clone(e.value)) {
				stopped = true
				return false
			}
			return true
		}
		if !fn(key, value) {
			stopped = true
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if stopped {
		return nil
	}
	emitUntil(nil)
	return nil
}

// dirtyKeys returns the buffered keys in [start, end), sorted.
func (c *Cache) dirtyKeys(start, end []byte) []string {
	keys := make([]string, 0, len(c.dirty))
	for k := range c.dirty {
		if start != nil && bytes.Compare([]byte(k), start) < 0 {
			continue
		}
		if end != nil && bytes.Compare([]byte(k), end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Ops returns the buffered mutations in key order.
func (c *Cache) Ops() []Op {
	keys := c.dirtyKeys(nil, nil)
	ops := make([]Op, 0, len(keys))
	for _, k := range keys {
		e := c.dirty[k]
		ops = append(ops, Op{Key: []byte(k), Value: clone(e.value), Delete: e.deleted})
	}
	return ops
}

// Len returns the number of buffered mutations.
func (c *Cache) Len() int {
	return len(c.dirty)
}

// Flush applies the buffered mutations to the parent and clears the buffer.
// On error the buffer is left intact.
func (c *Cache) Flush(ctx context.Context) error {
	if len(c.dirty) == 0 {
		return nil
	}
	if err := c.parent.Apply(ctx, c.Ops()); err != nil {
		return err
	}
	c.dirty = make(map[string]cacheEntry)
	return nil
}

// Discard drops all buffered mutations.
func (c *Cache) Discard() {
	c.dirty = make(map[string]cacheEntry)
}
