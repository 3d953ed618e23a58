package host

import (
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/rickgao/pair-factory/internal/errs"
)

func TestInstantiateResponse_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   InstantiateResponse
	}{
		{"address only", InstantiateResponse{ContractAddress: "contract0001"}},
		{"address and data", InstantiateResponse{ContractAddress: "contract0002", Data: []byte{1, 2, 3}}},
		{"empty", InstantiateResponse{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInstantiateResponse(EncodeInstantiateResponse(tt.in))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got.ContractAddress != tt.in.ContractAddress {
				t.Errorf("ContractAddress = %q, want %q", got.ContractAddress, tt.in.ContractAddress)
			}
			if string(got.Data) != string(tt.in.Data) {
				t.Errorf("Data = %v, want %v", got.Data, tt.in.Data)
			}
		})
	}
}

func TestDecodeInstantiateResponse_SkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 7, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = append(b, EncodeInstantiateResponse(InstantiateResponse{ContractAddress: "contract0001"})...)

	got, err := DecodeInstantiateResponse(b)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.ContractAddress != "contract0001" {
		t.Errorf("ContractAddress = %q, want %q", got.ContractAddress, "contract0001")
	}
}

func TestDecodeInstantiateResponse_Malformed(t *testing.T) {
	full := EncodeInstantiateResponse(InstantiateResponse{ContractAddress: "contract0001"})

	var wrongType []byte
	wrongType = protowire.AppendTag(wrongType, fieldContractAddress, protowire.VarintType)
	wrongType = protowire.AppendVarint(wrongType, 1)

	tests := []struct {
		name  string
		input []byte
	}{
		{"truncated string", full[:len(full)-3]},
		{"bare tag", full[:1]},
		{"invalid tag", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{"wrong wire type", wrongType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInstantiateResponse(tt.input)
			if !errors.Is(err, errs.ErrDecoding) {
				t.Errorf("Decode() error = %v, want ErrDecoding", err)
			}
		})
	}
}

func TestReplyOn(t *testing.T) {
	tests := []struct {
		on        ReplyOn
		onSuccess bool
		onError   bool
	}{
		{ReplyNever, false, false},
		{ReplySuccess, true, false},
		{ReplyError, false, true},
		{ReplyAlways, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.on.String(), func(t *testing.T) {
			if got := tt.on.OnSuccess(); got != tt.onSuccess {
				t.Errorf("OnSuccess() = %v, want %v", got, tt.onSuccess)
			}
			if got := tt.on.OnError(); got != tt.onError {
				t.Errorf("OnError() = %v, want %v", got, tt.onError)
			}
		})
	}
}
