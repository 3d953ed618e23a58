package host

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/rickgao/pair-factory/internal/errs"
)

// Field numbers of MsgInstantiateContractResponse.
const (
	fieldContractAddress protowire.Number = 1
	fieldData            protowire.Number = 2
)

// InstantiateResponse is the data the host returns for a successful
// instantiate sub-message.
type InstantiateResponse struct {
	ContractAddress string
	Data            []byte
}

// EncodeInstantiateResponse produces the protobuf envelope.
func EncodeInstantiateResponse(r InstantiateResponse) []byte {
	var b []byte
	if r.ContractAddress != "" {
		b = protowire.AppendTag(b, fieldContractAddress, protowire.BytesType)
		b = protowire.AppendString(b, r.ContractAddress)
	}
	if len(r.Data) > 0 {
		b = protowire.AppendTag(b, fieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Data)
	}
	return b
}

// DecodeInstantiateResponse parses the protobuf envelope. Unknown fields
// are skipped; truncated or mistyped fields are decoding errors.
func DecodeInstantiateResponse(b []byte) (InstantiateResponse, error) {
	var r InstantiateResponse
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return InstantiateResponse{}, fmt.Errorf("%w: instantiate response tag: %v", errs.ErrDecoding, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldContractAddress && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return InstantiateResponse{}, fmt.Errorf("%w: contract_address: %v", errs.ErrDecoding, protowire.ParseError(n))
			}
			r.ContractAddress = v
			b = b[n:]
		case num == fieldData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return InstantiateResponse{}, fmt.Errorf("%w: data: %v", errs.ErrDecoding, protowire.ParseError(n))
			}
			r.Data = append([]byte(nil), v...)
			b = b[n:]
		case num == fieldContractAddress || num == fieldData:
			return InstantiateResponse{}, fmt.Errorf("%w: field %d has wire type %d", errs.ErrDecoding, num, typ)
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return InstantiateResponse{}, fmt.Errorf("%w: field %d: %v", errs.ErrDecoding, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return r, nil
}
