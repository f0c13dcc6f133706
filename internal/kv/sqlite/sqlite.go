// Package sqlite implements kv.KV on a local SQLite file. It is the default
// driver for development and tests; the postgres driver serves deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/solace-journal/solace-server/internal/kv"
	"github.com/solace-journal/solace-server/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_items (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    expires_at INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS kv_log (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    key        TEXT NOT NULL,
    value      BLOB NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS kv_log_key_idx ON kv_log (key, id);
`

// Store implements kv.KV backed by SQLite.
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
		return nil, fmt.Errorf("sqlite kv schema: %w", err)
	}
	return &Store{db: db, opTimeout: opTimeout}, nil
}

// DB exposes the underlying connection (health probes, tests).
func (s *Store) DB() *sql.DB { return s.db }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// opCtx bounds calls without a caller-supplied deadline by the default timeout.
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
	return fmt.Errorf("sqlite %s: %w: %v", op, model.ErrUnavailable, err)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var value []byte
	var expires int64
	row := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM kv_items WHERE key = ?`, key)
	if err := row.Scan(&value, &expires); err != nil {
		return nil, mapErr("get", err)
	}
	if expires > 0 && expires <= time.Now().UnixNano() {
		// lazily expired; best-effort cleanup
		_, _ = s.db.ExecContext(ctx, `DELETE FROM kv_items WHERE key = ? AND expires_at = ?`, key, expires)
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
        INSERT INTO kv_items (key, value, expires_at, updated_at) VALUES (?,?,?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value, expires_at=excluded.expires_at, updated_at=excluded.updated_at
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
        INSERT INTO kv_items (key, value, expires_at, updated_at) VALUES (?,?,0,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value, expires_at=0, updated_at=excluded.updated_at
        WHERE kv_items.expires_at > 0 AND kv_items.expires_at <= ?
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

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_items WHERE key = ?`, key)
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
        WHERE key LIKE ? ESCAPE '\' AND (expires_at = 0 OR expires_at > ?)
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
		`INSERT INTO kv_log (key, value, created_at) VALUES (?,?,?)`,
		key, value, time.Now().UnixNano())
	return mapErr("append", err)
}

func (s *Store) ReadLog(ctx context.Context, key string, limit int) ([][]byte, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var rows *sql.Rows
	var err error
	if limit > 0 {
		// most recent `limit` records, returned in append order
		rows, err = s.db.QueryContext(ctx, `
            SELECT value FROM (
                SELECT id, value FROM kv_log WHERE key = ? ORDER BY id DESC LIMIT ?
            ) ORDER BY id ASC
        `, key, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT value FROM kv_log WHERE key = ? ORDER BY id ASC`, key)
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
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv_log WHERE key = ?`, key)
	if err := row.Scan(&n); err != nil {
		return 0, mapErr("count-log", err)
	}
	return n, nil
}

func (s *Store) DeleteLog(ctx context.Context, key string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_log WHERE key = ?`, key)
	return mapErr("delete-log", err)
}
