package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/pair-factory/internal/config"
	"github.com/rickgao/pair-factory/internal/kv"
)

// Connect creates a single connection pool.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// PostgresStore is a kv.Store over the kv table. BYTEA compares bytewise, so
// ORDER BY key matches kv ordering.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ kv.Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an open pool. The schema must already exist.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select key: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) Iterate(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error {
	if start == nil {
		start = []byte{}
	}
	rows, err := s.pool.Query(ctx,
		`SELECT key, value FROM kv WHERE key >= $1 AND ($2::bytea IS NULL OR key < $2) ORDER BY key`,
		start, end)
	if err != nil {
		return fmt.Errorf("select range: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if !fn(key, value) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

func (s *PostgresStore) Apply(ctx context.Context, ops []kv.Op) error {
	if len(ops) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, op := range ops {
			if op.Delete {
				batch.Queue(`DELETE FROM kv WHERE key = $1`, op.Key)
				continue
			}
			batch.Queue(`INSERT INTO kv (key, value) VALUES ($1, $2)
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, op.Key, op.Value)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("apply %d ops: %w", len(ops), err)
		}
		return nil
	})
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
