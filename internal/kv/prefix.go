package kv

import "context"

type prefixed struct {
	parent ReadWriter
	prefix []byte
}

// Prefix returns a view of rw in which every key is transparently prefixed.
// Iteration never leaves the prefix.
func Prefix(rw ReadWriter, prefix []byte) ReadWriter {
	return &prefixed{parent: rw, prefix: clone(prefix)}
}

func (p *prefixed) key(k []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(k))
	out = append(out, p.prefix...)
	return append(out, k...)
}

func (p *prefixed) Get(ctx context.Context, key []byte) ([]byte, error) {
	return p.parent.Get(ctx, p.key(key))
}

func (p *prefixed) Set(key, value []byte) {
	p.parent.Set(p.key(key), value)
}

func (p *prefixed) Delete(key []byte) {
	p.parent.Delete(p.key(key))
}

func (p *prefixed) Iterate(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error {
	s := p.key(start)
	var e []byte
	if end != nil {
		e = p.key(end)
	} else {
		e = PrefixEnd(p.prefix)
	}
	n := len(p.prefix)
	return p.parent.Iterate(ctx, s, e, func(key, value []byte) bool {
		return fn(key[n:], value)
	})
}
