// Package chain is a single-process ledger that hosts contracts.
//
// A Runtime owns one kv.Backend. Each contract gets its own key namespace
// ("c/<address>/") and the runtime keeps contract metadata under "r/".
// Every top-level call (Instantiate, Execute, Migrate) is one transaction:
// the entry point, every sub-message it dispatches, the dispatched
// contracts' own entry points and any replies all run before the call
// returns, each in a nested write buffer. A failing frame is discarded
// along with its events; the root frame reaches the backend in a single
// Apply only when the whole transaction succeeds.
//
// Calls are serialized. Queries run against the caller's current frame, so
// a contract can read a child it created earlier in the same transaction.
package chain
