// Package host defines the boundary between contracts and the ledger that
// runs them.
//
// A contract never talks to another contract directly. It returns a Response
// whose sub-messages the host dispatches after the entry point returns; when
// a sub-message asks for it, the host later calls the contract's Reply entry
// point with the sub-message's correlation id and result.
//
// The host guarantees:
//   - invocations are serialized; no two entry points of the same contract run concurrently
//   - each invocation's writes are applied atomically or not at all
//   - each sub-message produces at most one Reply, carrying the sub-message's ID
package host
