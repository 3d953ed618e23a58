// Package pairkey derives the order-independent registry key of an asset pair.
package pairkey

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/rickgao/pair-factory/internal/address"
	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/model"
)

// Size is the width of a Key in bytes.
const Size = sha256.Size

// Key identifies an unordered pair of asset descriptors.
type Key [Size]byte

// Derive sorts the raw forms of both descriptors and hashes them, so the
// result does not depend on the order the caller supplied them in.
func Derive(api address.API, assets [2]model.AssetInfo) (Key, error) {
	a, err := assets[0].Raw(api)
	if err != nil {
		return Key{}, err
	}
	b, err := assets[1].Raw(api)
	if err != nil {
		return Key{}, err
	}
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}

	// Length prefixes keep (a, b) and (a', b') with a||b == a'||b' apart.
	buf := make([]byte, 0, 2*binary.MaxVarintLen64+len(a)+len(b))
	buf = binary.AppendUvarint(buf, uint64(len(a)))
	buf = append(buf, a...)
	buf = binary.AppendUvarint(buf, uint64(len(b)))
	buf = append(buf, b...)

	return sha256.Sum256(buf), nil
}

// Bytes returns the key as a slice.
func (k Key) Bytes() []byte {
	return k[:]
}

// String returns the lowercase hex encoding.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// FromBytes copies a Size-byte slice into a Key.
func FromBytes(b []byte) (Key, error) {
	var k Key
	if len(b) != Size {
		return k, fmt.Errorf("%w: pair key must be %d bytes, got %d", errs.ErrValidation, Size, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// ParseKey decodes the hex form produced by String.
func ParseKey(s string) (Key, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("%w: pair key: %v", errs.ErrValidation, err)
	}
	return FromBytes(b)
}

// MarshalText encodes the key as hex so it reads naturally in JSON.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes the hex form.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
