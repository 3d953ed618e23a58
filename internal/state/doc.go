// Package state holds the factory's persisted regions.
//
// Layout (fixed string prefixes over the contract's namespaced store):
//   - config:              configuration singleton
//   - contract_info:       contract name and version
//   - reply_seq:           last issued correlation id
//   - tmp_pair_info + id:  pending creation records, by correlation id
//   - tmp_pair_key + key:  in-flight index, canonical key to correlation id
//   - pair_info + key:     committed registry entries, by canonical key
//
// Values are JSON encoded.
package state
