package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rickgao/pair-factory/internal/address"
	"github.com/rickgao/pair-factory/internal/errs"
)

// -----------------------------------------------------------------------------
// Asset Descriptors
// -----------------------------------------------------------------------------

// AssetKind tags an AssetInfo as a native ledger unit or a token contract.
type AssetKind uint8

const (
	AssetKindNative AssetKind = iota + 1 // Native ledger denomination
	AssetKindToken                       // Contract-backed token
)

func (k AssetKind) String() string {
	switch k {
	case AssetKindNative:
		return "native"
	case AssetKindToken:
		return "token"
	default:
		return "unknown"
	}
}

// AssetInfo identifies a fungible unit. Exactly one of Denom or ContractAddr
// is meaningful, selected by Kind.
type AssetInfo struct {
	Kind         AssetKind
	Denom        string // Native denomination (e.g., "uluna")
	ContractAddr string // Token contract address
}

// NativeToken returns the descriptor of a native denomination.
func NativeToken(denom string) AssetInfo {
	return AssetInfo{Kind: AssetKindNative, Denom: denom}
}

// Token returns the descriptor of a contract-backed token.
func Token(contractAddr string) AssetInfo {
	return AssetInfo{Kind: AssetKindToken, ContractAddr: contractAddr}
}

// IsNative reports whether a is a native denomination.
func (a AssetInfo) IsNative() bool {
	return a.Kind == AssetKindNative
}

// Equal compares tag and payload. A native "abc" never equals a token "abc".
func (a AssetInfo) Equal(b AssetInfo) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == AssetKindNative {
		return a.Denom == b.Denom
	}
	return a.ContractAddr == b.ContractAddr
}

// String renders the payload: the denom for native assets, the address for tokens.
func (a AssetInfo) String() string {
	if a.Kind == AssetKindNative {
		return a.Denom
	}
	return a.ContractAddr
}

// Validate checks that the payload is well-formed for its kind.
func (a AssetInfo) Validate(api address.API) error {
	switch a.Kind {
	case AssetKindNative:
		return validateDenom(a.Denom)
	case AssetKindToken:
		if err := api.Validate(a.ContractAddr); err != nil {
			return fmt.Errorf("token contract_addr: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown asset kind %d", errs.ErrValidation, a.Kind)
	}
}

// Raw returns the normalized comparable form: one tag byte followed by the
// denom bytes or the canonical contract address.
func (a AssetInfo) Raw(api address.API) ([]byte, error) {
	if err := a.Validate(api); err != nil {
		return nil, err
	}
	if a.Kind == AssetKindNative {
		return append([]byte{byte(AssetKindNative)}, a.Denom...), nil
	}
	canonical, err := api.Canonicalize(a.ContractAddr)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(AssetKindToken)}, canonical...), nil
}

// validateDenom accepts 2..128 chars of [a-zA-Z0-9/:._-], starting with a letter.
func validateDenom(denom string) error {
	if len(denom) < 2 || len(denom) > 128 {
		return fmt.Errorf("%w: denom %q must be 2-128 characters", errs.ErrValidation, denom)
	}
	first := denom[0]
	if (first < 'a' || first > 'z') && (first < 'A' || first > 'Z') {
		return fmt.Errorf("%w: denom %q must start with a letter", errs.ErrValidation, denom)
	}
	for i := 1; i < len(denom); i++ {
		c := denom[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '/', c == ':', c == '.', c == '_', c == '-':
		default:
			return fmt.Errorf("%w: denom %q contains invalid character %q", errs.ErrValidation, denom, c)
		}
	}
	return nil
}

// ParseAssetInfo parses the CLI form "native:<denom>" or "token:<address>".
func ParseAssetInfo(s string) (AssetInfo, error) {
	kind, payload, ok := strings.Cut(s, ":")
	if !ok || payload == "" {
		return AssetInfo{}, fmt.Errorf("%w: asset %q must be native:<denom> or token:<address>", errs.ErrValidation, s)
	}
	switch kind {
	case "native":
		return NativeToken(payload), nil
	case "token":
		return Token(payload), nil
	default:
		return AssetInfo{}, fmt.Errorf("%w: unknown asset kind %q", errs.ErrValidation, kind)
	}
}

type nativeTokenJSON struct {
	Denom string `json:"denom"`
}

type tokenJSON struct {
	ContractAddr string `json:"contract_addr"`
}

type assetInfoJSON struct {
	NativeToken *nativeTokenJSON `json:"native_token,omitempty"`
	Token       *tokenJSON       `json:"token,omitempty"`
}

// MarshalJSON encodes the externally tagged form
// {"native_token":{"denom":...}} or {"token":{"contract_addr":...}}.
func (a AssetInfo) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AssetKindNative:
		return json.Marshal(assetInfoJSON{NativeToken: &nativeTokenJSON{Denom: a.Denom}})
	case AssetKindToken:
		return json.Marshal(assetInfoJSON{Token: &tokenJSON{ContractAddr: a.ContractAddr}})
	default:
		return nil, fmt.Errorf("%w: cannot encode asset kind %d", errs.ErrValidation, a.Kind)
	}
}

// UnmarshalJSON decodes the externally tagged form. Exactly one variant must be present.
func (a *AssetInfo) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var v assetInfoJSON
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: asset info: %v", errs.ErrValidation, err)
	}

	switch {
	case v.NativeToken != nil && v.Token == nil:
		*a = NativeToken(v.NativeToken.Denom)
	case v.Token != nil && v.NativeToken == nil:
		*a = Token(v.Token.ContractAddr)
	default:
		return fmt.Errorf("%w: asset info must set exactly one of native_token or token", errs.ErrValidation)
	}
	return nil
}

// PairName renders a pair the way creation events report it: "<a>-<b>".
func PairName(assets [2]AssetInfo) string {
	return assets[0].String() + "-" + assets[1].String()
}

// -----------------------------------------------------------------------------
// Registry Types
// -----------------------------------------------------------------------------

// PairInfo is a committed registry entry as reported to callers.
type PairInfo struct {
	AssetInfos     [2]AssetInfo `json:"asset_infos"`
	ContractAddr   string       `json:"contract_addr"`   // Pair contract created by the factory
	LiquidityToken string       `json:"liquidity_token"` // Liquidity token created by the pair
}

// -----------------------------------------------------------------------------
// Child Creation Messages
// -----------------------------------------------------------------------------

// PairInstantiateMsg is sent to the pair template when the factory creates a pair.
type PairInstantiateMsg struct {
	AssetInfos  [2]AssetInfo `json:"asset_infos"`
	TokenCodeID uint64       `json:"token_code_id"` // Template for the liquidity token
}

// MinterResponse names the account allowed to mint a token.
type MinterResponse struct {
	Minter string  `json:"minter"`
	Cap    *uint64 `json:"cap,omitempty"`
}

// TokenInstantiateMsg is sent to the token template when a pair creates its
// liquidity token.
type TokenInstantiateMsg struct {
	Name     string          `json:"name"`
	Symbol   string          `json:"symbol"`
	Decimals uint8           `json:"decimals"`
	Mint     *MinterResponse `json:"mint,omitempty"`
}
