// Package sqlite is a kv.Store backed by a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/rickgao/pair-factory/internal/kv"
)

// BLOB keys compare with memcmp, which matches kv ordering.
const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   BLOB PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID`

// Store is a kv.Store over one SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

var _ kv.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select key: %w", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (s *Store) Iterate(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error {
	query := `SELECT key, value FROM kv`
	var (
		conds []string
		args  []any
	)
	if start != nil {
		conds = append(conds, `key >= ?`)
		args = append(args, start)
	}
	if end != nil {
		conds = append(conds, `key < ?`)
		args = append(args, end)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("select range: %w", err)
	}

	// Collect first: the single connection is held until rows is closed.
	type row struct{ key, value []byte }
	var out []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.key, &r.value); err != nil {
			rows.Close()
			return fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate rows: %w", err)
	}
	rows.Close()

	for _, r := range out {
		if !fn(r.key, r.value) {
			break
		}
	}
	return nil
}

func (s *Store) Apply(ctx context.Context, ops []kv.Op) error {
	if len(ops) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, op := range ops {
		if op.Delete {
			_, err = tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, op.Key)
		} else {
			value := op.Value
			if value == nil {
				value = []byte{}
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
				op.Key, value)
		}
		if err != nil {
			return fmt.Errorf("apply op: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
