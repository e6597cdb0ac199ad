// Copyright 2025 RGB Core Project

package state

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq" // postgres driver
)

// PostgresKV is a KV backed by a single key/value table in Postgres,
// scoped to the one table a contract-state snapshot needs.
type PostgresKV struct {
	db     *sql.DB
	table  string
	logger *log.Logger
}

// PostgresOption configures a PostgresKV.
type PostgresOption func(*PostgresKV)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) PostgresOption {
	return func(p *PostgresKV) { p.logger = logger }
}

// NewPostgresKV opens a connection pool against dsn and ensures its
// backing table exists. table defaults to "rgbcore_state" when empty.
func NewPostgresKV(dsn, table string, opts ...PostgresOption) (*PostgresKV, error) {
	if table == "" {
		table = "rgbcore_state"
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	p := &PostgresKV{
		db:     db,
		table:  table,
		logger: log.New(log.Writer(), "[state/postgres] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(p)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key   TEXT PRIMARY KEY,
		value BYTEA NOT NULL
	)`, p.table)
	if _, err := p.db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return p, nil
}

// Close releases the underlying connection pool.
func (p *PostgresKV) Close() error { return p.db.Close() }

// Get implements KV.
func (p *PostgresKV) Get(key []byte) ([]byte, error) {
	var value []byte
	q := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", p.table)
	err := p.db.QueryRow(q, string(key)).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query state key: %w", err)
	}
	return value, nil
}

// Set implements KV via an upsert.
func (p *PostgresKV) Set(key, value []byte) error {
	q := fmt.Sprintf(`INSERT INTO %s (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, p.table)
	if _, err := p.db.Exec(q, string(key), value); err != nil {
		p.logger.Printf("set %q failed: %v", key, err)
		return fmt.Errorf("upsert state key: %w", err)
	}
	return nil
}
