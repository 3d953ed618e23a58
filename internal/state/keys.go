package state

import (
	"encoding/binary"

	"github.com/rickgao/pair-factory/internal/pairkey"
)

var (
	ConfigKey       = []byte("config")
	ContractInfoKey = []byte("contract_info")
	ReplySeqKey     = []byte("reply_seq")

	PendingPrefix  = []byte("tmp_pair_info") // PendingPrefix + big-endian id
	InFlightPrefix = []byte("tmp_pair_key")  // InFlightPrefix + pair key
	PairPrefix     = []byte("pair_info")     // PairPrefix + pair key
)

func pendingKey(id uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, PendingPrefix...), id)
}

func inFlightKey(key pairkey.Key) []byte {
	return append(append([]byte{}, InFlightPrefix...), key[:]...)
}

func pairKey(key pairkey.Key) []byte {
	return append(append([]byte{}, PairPrefix...), key[:]...)
}
