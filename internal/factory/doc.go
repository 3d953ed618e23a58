// Package factory implements the pair factory contract: a registry of pair
// contracts keyed by an order-independent pair key, where each pair is
// created by an asynchronous sub-message and only registered once the host
// acknowledges the creation.
//
// Creation is two-phase:
//
//  1. CreatePair derives the pair key, rejects duplicates, stages a pending
//     record under a fresh correlation id and dispatches an instantiate
//     sub-message carrying that id.
//  2. OnCreateAck consumes the record staged under the reply's id, decodes
//     the new pair's address from the acknowledgment, asks the pair for its
//     liquidity token and commits the registry entry.
//
// Pending records are keyed by correlation id, so several creations may be
// in flight and an acknowledgment can never be attributed to another request.
// The host must still deliver each acknowledgment at most once.
package factory
