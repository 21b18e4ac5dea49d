// Package pgstore keeps cart values in a PostgreSQL key/value table.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rahdeg/alt-commmerce/internal/storage"
)

const defaultTable = "cart_storage"

// Store implements storage.Storage on a pgx pool. Values are kept as text rather than jsonb
// so that whatever was written is read back byte for byte.
type Store struct {
	pool  *pgxpool.Pool
	table string
	owned bool
}

var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Updater = (*Store)(nil)
)

// New opens a pool for dsn and makes sure the table exists.
func New(ctx context.Context, dsn, table string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("pgstore: dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	s := NewWithPool(pool, table)
	s.owned = true
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithPool wraps a pool owned by the caller.
func NewWithPool(pool *pgxpool.Pool, table string) *Store {
	table = strings.TrimSpace(table)
	if table == "" {
		table = defaultTable
	}
	return &Store{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

// EnsureSchema creates the backing table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("pgstore: ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if strings.TrimSpace(key) == "" {
		return nil, storage.ErrInvalidKey
	}
	var value string
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.table), key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: get %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return storage.ErrInvalidKey
	}
	if _, err := s.pool.Exec(ctx, s.upsertSQL(), key, string(value)); err != nil {
		return fmt.Errorf("pgstore: set %s: %w", key, err)
	}
	return nil
}

// Update runs fn inside a transaction. A transaction-scoped advisory lock on the key covers
// keys that have no row yet; SELECT ... FOR UPDATE additionally holds the row against plain
// Set calls.
func (s *Store) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	if strings.TrimSpace(key) == "" {
		return storage.ErrInvalidKey
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pgstore: begin %s: %w", key, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("pgstore: lock %s: %w", key, err)
	}
	var current []byte
	var value string
	err = tx.QueryRow(ctx, fmt.Sprintf(`SELECT value FROM %s WHERE key = $1 FOR UPDATE`, s.table), key).Scan(&value)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return fmt.Errorf("pgstore: get %s: %w", key, err)
	default:
		current = []byte(value)
	}

	next, err := fn(current)
	if errors.Is(err, storage.ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, s.upsertSQL(), key, string(next)); err != nil {
		return fmt.Errorf("pgstore: set %s: %w", key, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pgstore: commit %s: %w", key, err)
	}
	return nil
}

func (s *Store) upsertSQL() string {
	return fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, s.table)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return storage.ErrInvalidKey
	}
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.table), key); err != nil {
		return fmt.Errorf("pgstore: delete %s: %w", key, err)
	}
	return nil
}

// Close releases the pool when the store opened it.
func (s *Store) Close() error {
	if s.owned {
		s.pool.Close()
	}
	return nil
}
