// Package database opens the durable key-value stores ledger state is kept in.
//
// Three drivers are supported:
//   - memory: an in-process kv.Memory, lost on exit (tests and dry runs)
//   - sqlite: a single-file database via ncruces/go-sqlite3 (the CLI default)
//   - postgres: a shared PostgreSQL database via pgxpool, schema managed by golang-migrate
//
// Every driver stores one table of (key, value) byte pairs ordered by key and
// applies each batch of mutations in a single transaction.
package database
