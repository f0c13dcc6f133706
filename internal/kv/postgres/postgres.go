// Package postgres implements kv.KV on PostgreSQL via the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/solace-journal/solace-server/internal/kv"
	"github.com/solace-journal/solace-server/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_items (
    key        TEXT PRIMARY KEY,
    value      BYTEA NOT NULL,
    expires_at BIGINT NOT NULL DEFAULT 0,
    updated_at BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS kv_log (
    id         BIGSERIAL PRIMARY KEY,
    key        TEXT NOT NULL,
    value      BYTEA NOT NULL,
    created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS kv_log_key_idx ON kv_log (key, id);
`

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Store implements kv.KV backed by PostgreSQL.
type Store struct {
	db        *sql.DB
	opTimeout time.Duration
}

var _ kv.KV = (*Store)(nil)

// New wraps an open connection and ensures the key-value schema exists.
func New(db *sql.DB, opTimeout time.Duration) (*Store, error) {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("postgres kv schema: %w", err)
	}
	return &Store{db: db, opTimeout: opTimeout}, nil
}

// DB exposes the underlying connection (health probes, tests).
func (s *Store) DB() *sql.DB { return s.db }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return fmt.Errorf("postgres %s: %w: %v", op, model.ErrUnavailable, err)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var value []byte
	var expires int64
	row := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM kv_items WHERE key = $1`, key)
	if err := row.Scan(&value, &expires); err != nil {
		return nil, mapErr("get", err)
	}
	if expires > 0 && expires <= time.Now().UnixNano() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM kv_items WHERE key = $1 AND expires_at = $2`, key, expires)
		return nil, model.ErrNotFound
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	now := time.Now().UnixNano()
	var expires int64
	if ttl > 0 {
		expires = now + ttl.Nanoseconds()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO kv_items (key, value, expires_at, updated_at) VALUES ($1,$2,$3,$4)
        ON CONFLICT (key) DO UPDATE SET value=excluded.value, expires_at=excluded.expires_at, updated_at=excluded.updated_at
    `, key, value, expires, now)
	return mapErr("set", err)
}

func (s *Store) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	// Single conditional write: wins only when the key is missing or holds an
	// expired value. Losers see zero rows affected.
	now := time.Now().UnixNano()
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO kv_items (key, value, expires_at, updated_at) VALUES ($1,$2,0,$3)
        ON CONFLICT (key) DO UPDATE SET value=excluded.value, expires_at=0, updated_at=excluded.updated_at
        WHERE kv_items.expires_at > 0 AND kv_items.expires_at <= $4
    `, key, value, now, now)
	if err != nil {
		return false, mapErr("set-if-absent", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapErr("set-if-absent", err)
	}
	return n > 0, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_items WHERE key = $1`, key)
	return mapErr("delete", err)
}

// likeEscaper makes a prefix match literally inside a LIKE pattern; key
// namespaces contain `_` (and could contain `%`), which LIKE would otherwise
// treat as wildcards.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
        SELECT key FROM kv_items
        WHERE key LIKE $1 ESCAPE '\' AND (expires_at = 0 OR expires_at > $2)
        ORDER BY key
    `, likeEscaper.Replace(prefix)+"%", time.Now().UnixNano())
	if err != nil {
		return nil, mapErr("list-keys", err)
	}
	defer func() { _ = rows.Close() }()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, mapErr("list-keys", err)
		}
		keys = append(keys, k)
	}
	return keys, mapErr("list-keys", rows.Err())
}

func (s *Store) Append(ctx context.Context, key string, value []byte) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_log (key, value, created_at) VALUES ($1,$2,$3)`,
		key, value, time.Now().UnixNano())
	return mapErr("append", err)
}

func (s *Store) ReadLog(ctx context.Context, key string, limit int) ([][]byte, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, `
            SELECT value FROM (
                SELECT id, value FROM kv_log WHERE key = $1 ORDER BY id DESC LIMIT $2
            ) tail ORDER BY tail.id ASC
        `, key, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT value FROM kv_log WHERE key = $1 ORDER BY id ASC`, key)
	}
	if err != nil {
		return nil, mapErr("read-log", err)
	}
	defer func() { _ = rows.Close() }()

	out := [][]byte{}
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, mapErr("read-log", err)
		}
		out = append(out, v)
	}
	return out, mapErr("read-log", rows.Err())
}

func (s *Store) CountLog(ctx context.Context, key string) (int, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var n int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv_log WHERE key = $1`, key)
	if err := row.Scan(&n); err != nil {
		return 0, mapErr("count-log", err)
	}
	return n, nil
}

func (s *Store) DeleteLog(ctx context.Context, key string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_log WHERE key = $1`, key)
	return mapErr("delete-log", err)
}
