package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultTable holds one row per persistence key.
const DefaultTable = "fieldbind_values"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DBPool is the subset of *pgxpool.Pool used by PostgresKV, so tests can
// substitute a mock pool.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresKV stores entries in a key/value table.
type PostgresKV struct {
	pool  DBPool
	table string
}

// PostgresOption customises a PostgresKV.
type PostgresOption func(*PostgresKV)

// WithTable overrides DefaultTable.
func WithTable(name string) PostgresOption {
	return func(p *PostgresKV) {
		if name != "" {
			p.table = name
		}
	}
}

func NewPostgresKV(pool DBPool, opts ...PostgresOption) (*PostgresKV, error) {
	if pool == nil {
		return nil, errors.New("store: database pool is required")
	}
	kv := &PostgresKV{pool: pool, table: DefaultTable}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	if !tableName.MatchString(kv.table) {
		return nil, fmt.Errorf("store: invalid table name %q", kv.table)
	}
	return kv, nil
}

// Table returns the backing table name.
func (p *PostgresKV) Table() string { return p.table }

// EnsureSchema creates the backing table when it does not exist.
func (p *PostgresKV) EnsureSchema(ctx context.Context) error {
	sql := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`, p.table)
	if _, err := p.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("store: create table %s: %w", p.table, err)
	}
	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrKeyRequired
	}
	var text string
	err := p.pool.QueryRow(ctx, p.selectSQL(), key).Scan(&text)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get %q: %w", key, err)
	}
	return text, true, nil
}

func (p *PostgresKV) Set(ctx context.Context, key, text string) error {
	if key == "" {
		return ErrKeyRequired
	}
	if _, err := p.pool.Exec(ctx, p.upsertSQL(), key, text); err != nil {
		return fmt.Errorf("store: set %q: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	if _, err := p.pool.Exec(ctx, p.deleteSQL(), key); err != nil {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) Keys(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, p.keysSQL())
	if err != nil {
		return nil, fmt.Errorf("store: list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("store: scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list keys: %w", err)
	}
	return keys, nil
}

func (p *PostgresKV) selectSQL() string {
	return fmt.Sprintf("SELECT value FROM %s WHERE key = $1", p.table)
}

func (p *PostgresKV) upsertSQL() string {
	return fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, p.table)
}

func (p *PostgresKV) deleteSQL() string {
	return fmt.Sprintf("DELETE FROM %s WHERE key = $1", p.table)
}

func (p *PostgresKV) keysSQL() string {
	return fmt.Sprintf("SELECT key FROM %s ORDER BY key", p.table)
}
