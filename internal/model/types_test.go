package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rickgao/pair-factory/internal/address"
	"github.com/rickgao/pair-factory/internal/errs"
)

func TestAssetInfo_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b AssetInfo
		want bool
	}{
		{"same native", NativeToken("uluna"), NativeToken("uluna"), true},
		{"different native", NativeToken("uluna"), NativeToken("uusd"), false},
		{"same token", Token("asset0001"), Token("asset0001"), true},
		{"different token", Token("asset0001"), Token("asset0002"), false},
		{"tag differs, payload collides", NativeToken("asset0001"), Token("asset0001"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Errorf("Equal() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssetInfo_Validate(t *testing.T) {
	api := address.Default()

	tests := []struct {
		name    string
		asset   AssetInfo
		wantErr bool
	}{
		{"native", NativeToken("uluna"), false},
		{"ibc denom", NativeToken("ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2"), false},
		{"factory denom", NativeToken("factory/addr0000/ulp"), false},
		{"token", Token("asset0001"), false},
		{"empty denom", NativeToken(""), true},
		{"single char denom", NativeToken("u"), true},
		{"digit first", NativeToken("1luna"), true},
		{"space in denom", NativeToken("u luna"), true},
		{"bad token address", Token("Asset0001"), true},
		{"zero kind", AssetInfo{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.asset.Validate(api)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errs.ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestAssetInfo_RawKeepsTag(t *testing.T) {
	api := address.Default()

	native, err := NativeToken("asset0001").Raw(api)
	if err != nil {
		t.Fatalf("Raw(native) failed: %v", err)
	}
	token, err := Token("asset0001").Raw(api)
	if err != nil {
		t.Fatalf("Raw(token) failed: %v", err)
	}
	if string(native) == string(token) {
		t.Errorf("native and token raw forms collide: %q", native)
	}
	if native[0] != byte(AssetKindNative) || token[0] != byte(AssetKindToken) {
		t.Errorf("tag bytes = %d, %d, want %d, %d", native[0], token[0], AssetKindNative, AssetKindToken)
	}
}

func TestAssetInfo_JSON(t *testing.T) {
	t.Run("native", func(t *testing.T) {
		data, err := json.Marshal(NativeToken("uluna"))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		want := `{"native_token":{"denom":"uluna"}}`
		if string(data) != want {
			t.Errorf("Marshal() = %s, want %s", data, want)
		}
	})

	t.Run("token", func(t *testing.T) {
		data, err := json.Marshal(Token("asset0001"))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		want := `{"token":{"contract_addr":"asset0001"}}`
		if string(data) != want {
			t.Errorf("Marshal() = %s, want %s", data, want)
		}
	})

	t.Run("pair array", func(t *testing.T) {
		input := `[{"token":{"contract_addr":"asset0001"}},{"native_token":{"denom":"uusd"}}]`
		var assets [2]AssetInfo
		if err := json.Unmarshal([]byte(input), &assets); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if !assets[0].Equal(Token("asset0001")) {
			t.Errorf("assets[0] = %+v, want token asset0001", assets[0])
		}
		if !assets[1].Equal(NativeToken("uusd")) {
			t.Errorf("assets[1] = %+v, want native uusd", assets[1])
		}
	})

	t.Run("rejects malformed", func(t *testing.T) {
		inputs := []string{
			`{}`,
			`{"native_token":{"denom":"uusd"},"token":{"contract_addr":"asset0001"}}`,
			`{"cw20":{"contract_addr":"asset0001"}}`,
			`"uusd"`,
		}
		for _, input := range inputs {
			var a AssetInfo
			err := json.Unmarshal([]byte(input), &a)
			if !errors.Is(err, errs.ErrValidation) {
				t.Errorf("Unmarshal(%s) error = %v, want ErrValidation", input, err)
			}
		}
	})

	t.Run("zero value", func(t *testing.T) {
		if _, err := json.Marshal(AssetInfo{}); err == nil {
			t.Error("expected error marshaling zero AssetInfo")
		}
	})
}

func TestParseAssetInfo(t *testing.T) {
	tests := []struct {
		input   string
		want    AssetInfo
		wantErr bool
	}{
		{"native:uluna", NativeToken("uluna"), false},
		{"token:asset0001", Token("asset0001"), false},
		{"uluna", AssetInfo{}, true},
		{"native:", AssetInfo{}, true},
		{"cw20:asset0001", AssetInfo{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAssetInfo(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAssetInfo(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseAssetInfo(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPairName(t *testing.T) {
	got := PairName([2]AssetInfo{Token("asset0001"), NativeToken("uusd")})
	if got != "asset0001-uusd" {
		t.Errorf("PairName() = %q, want %q", got, "asset0001-uusd")
	}
}
