package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	createTableQuery = `CREATE TABLE IF NOT EXISTS kv_store (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`
	selectValueQuery = `SELECT value FROM kv_store WHERE key = $1`
	upsertValueQuery = `INSERT INTO kv_store (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
)

// Postgres stores values in a kv_store table. The caller owns db and registers
// the driver (github.com/lib/pq).
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps db. Call EnsureSchema before first use on a fresh database.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the kv_store table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createTableQuery); err != nil {
		return fmt.Errorf("creating kv_store: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowContext(ctx, selectValueQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("selecting %q: %w", key, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	if _, err := p.db.ExecContext(ctx, upsertValueQuery, key, value); err != nil {
		return fmt.Errorf("upserting %q: %w", key, err)
	}
	return nil
}
