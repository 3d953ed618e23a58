// Package address validates and normalizes caller and contract identities.
//
// The factory treats identities as opaque comparable tokens; this package is
// the single place that decides whether a string is a well-formed identity.
package address

import (
	"fmt"

	"github.com/rickgao/pair-factory/internal/errs"
)

const (
	// MinLength is the shortest accepted identity.
	MinLength = 3
	// MaxLength is the longest accepted identity.
	MaxLength = 90
)

// API converts identities between their human and canonical forms.
type API interface {
	// Validate reports whether s is a well-formed, normalized identity.
	Validate(s string) error

	// Canonicalize returns the raw comparable form of s.
	Canonicalize(s string) ([]byte, error)

	// Humanize is the inverse of Canonicalize.
	Humanize(raw []byte) (string, error)
}

type localAPI struct{}

// Default returns the API used by the local runtime: identities are
// lowercase alphanumeric strings and their canonical form is the raw bytes.
func Default() API {
	return localAPI{}
}

func (localAPI) Validate(s string) error {
	if len(s) < MinLength {
		return fmt.Errorf("%w: address %q too short", errs.ErrValidation, s)
	}
	if len(s) > MaxLength {
		return fmt.Errorf("%w: address %q too long", errs.ErrValidation, s)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return fmt.Errorf("%w: address %q contains invalid character %q", errs.ErrValidation, s, c)
		}
	}
	return nil
}

func (a localAPI) Canonicalize(s string) ([]byte, error) {
	if err := a.Validate(s); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (a localAPI) Humanize(raw []byte) (string, error) {
	s := string(raw)
	if err := a.Validate(s); err != nil {
		return "", err
	}
	return s, nil
}
