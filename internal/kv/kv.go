// Package kv defines the key-value transport used by all domain stores.
//
// The client owns no domain semantics: callers own the encode/decode contract
// for their own key namespaces. Implementations live under internal/kv/<driver>/
// (postgres, sqlite) and must be safe for concurrent use.
package kv

import (
	"context"
	"time"
)

// KV is the transport contract shared by every store.
//
// Error mapping is uniform across drivers: an absent key is model.ErrNotFound,
// a transport or timeout failure is model.ErrUnavailable. A timeout is never
// reported as a miss. Deletes of absent keys succeed.
type KV interface {
	// Get returns the value stored at key, or model.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key, replacing any prior value. A ttl of zero means
	// the value never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetIfAbsent stores value only when key holds no live value, atomically.
	// It reports whether this call performed the write. This is the single
	// transactional primitive in the system; the identity resolver's
	// first-sight allocation depends on it.
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// ListKeys returns all live keys with the given prefix, sorted.
	ListKeys(ctx context.Context, prefix string) ([]string, error)

	// Append adds value to the log stored at key. Logs grow under
	// monotonically increasing sequence numbers, so appends never rewrite the
	// whole value and never race each other.
	Append(ctx context.Context, key string, value []byte) error

	// ReadLog returns log records in append order. When limit > 0 only the
	// most recent limit records are returned, still in append order. An absent
	// log yields an empty slice, not an error.
	ReadLog(ctx context.Context, key string, limit int) ([][]byte, error)

	// CountLog returns the number of records in the log without loading them.
	CountLog(ctx context.Context, key string) (int, error)

	// DeleteLog removes the entire log at key. Idempotent.
	DeleteLog(ctx context.Context, key string) error
}
