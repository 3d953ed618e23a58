package chain

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/kv"
)

// Runtime metadata keys.
var (
	heightKey      = []byte("r/height")
	contractSeqKey = []byte("r/contract_seq")
	contractPrefix = []byte("r/contract/")
	labelPrefix    = []byte("r/label/")
)

// ContractMeta is what the runtime records about an instantiated contract.
type ContractMeta struct {
	Address string `json:"address"`
	CodeID  uint64 `json:"code_id"`
	Creator string `json:"creator"`
	Admin   string `json:"admin,omitempty"`
	Label   string `json:"label,omitempty"`
}

func storagePrefix(addr string) []byte {
	return []byte("c/" + addr + "/")
}

func contractKey(addr string) []byte {
	return append(append([]byte{}, contractPrefix...), addr...)
}

func labelKey(label string) []byte {
	return append(append([]byte{}, labelPrefix...), label...)
}

func loadMeta(ctx context.Context, r kv.Reader, addr string) (ContractMeta, error) {
	data, err := r.Get(ctx, contractKey(addr))
	if err != nil {
		return ContractMeta{}, fmt.Errorf("load contract %s: %w", addr, err)
	}
	if data == nil {
		return ContractMeta{}, fmt.Errorf("%w: contract %s", errs.ErrNotFound, addr)
	}
	var meta ContractMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return ContractMeta{}, fmt.Errorf("%w: contract %s metadata: %w", errs.ErrDecoding, addr, err)
	}
	return meta, nil
}

func saveMeta(w kv.Writer, meta ContractMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal contract metadata: %w", err)
	}
	w.Set(contractKey(meta.Address), data)
	return nil
}

// incr bumps the big-endian counter at key and returns the new value.
func incr(ctx context.Context, rw kv.ReadWriter, key []byte) (uint64, error) {
	data, err := rw.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", key, err)
	}
	var n uint64
	if data != nil {
		if len(data) != 8 {
			return 0, fmt.Errorf("%w: counter %s is %d bytes", errs.ErrDecoding, key, len(data))
		}
		n = binary.BigEndian.Uint64(data)
	}
	n++
	rw.Set(key, binary.BigEndian.AppendUint64(nil, n))
	return n, nil
}

func readCounter(ctx context.Context, r kv.Reader, key []byte) (uint64, error) {
	data, err := r.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", key, err)
	}
	if data == nil {
		return 0, nil
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: counter %s is %d bytes", errs.ErrDecoding, key, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
