// Package kvtest holds a driver compliance suite plus helpers for tests that
// need a real kv.KV without caring about the backing driver.
package kvtest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/solace-journal/solace-server/internal/kv"
	"github.com/solace-journal/solace-server/internal/kv/sqlite"
	"github.com/solace-journal/solace-server/internal/model"
)

// NewTempStore returns a kv.KV backed by a SQLite file under t.TempDir().
func NewTempStore(t *testing.T) kv.KV {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s, err := sqlite.New(db, 5*time.Second)
	if err != nil {
		t.Fatalf("sqlite kv: %v", err)
	}
	return s
}

// Run exercises a compliance suite against a kv.KV implementation.
// Keys are uniquely prefixed so the suite is safe against shared databases
// (the env-gated postgres run points at a real instance).
func Run(t *testing.T, makeKV func(t *testing.T) kv.KV) {
	t.Helper()

	s := makeKV(t)
	ctx := context.Background()
	p := "kvtest/" + uuid.New().String() + "/"

	// Get on an absent key is ErrNotFound, never a transport error.
	if _, err := s.Get(ctx, p+"missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get absent: want ErrNotFound, got %v", err)
	}

	// Set then Get round-trips.
	if err := s.Set(ctx, p+"a", []byte("one"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := s.Get(ctx, p+"a"); err != nil || string(got) != "one" {
		t.Fatalf("Get: got=%q err=%v", got, err)
	}

	// Set replaces.
	if err := s.Set(ctx, p+"a", []byte("two"), 0); err != nil {
		t.Fatalf("Set replace: %v", err)
	}
	if got, _ := s.Get(ctx, p+"a"); string(got) != "two" {
		t.Fatalf("Get after replace: got=%q", got)
	}

	// SetIfAbsent wins only once.
	ok, err := s.SetIfAbsent(ctx, p+"once", []byte("first"))
	if err != nil || !ok {
		t.Fatalf("SetIfAbsent first: ok=%v err=%v", ok, err)
	}
	ok, err = s.SetIfAbsent(ctx, p+"once", []byte("second"))
	if err != nil || ok {
		t.Fatalf("SetIfAbsent second: ok=%v err=%v", ok, err)
	}
	if got, _ := s.Get(ctx, p+"once"); string(got) != "first" {
		t.Fatalf("SetIfAbsent loser overwrote value: got=%q", got)
	}

	// Expired values behave as absent, including for SetIfAbsent.
	if err := s.Set(ctx, p+"ttl", []byte("gone"), time.Nanosecond); err != nil {
		t.Fatalf("Set ttl: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := s.Get(ctx, p+"ttl"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get expired: want ErrNotFound, got %v", err)
	}
	if ok, err := s.SetIfAbsent(ctx, p+"ttl", []byte("fresh")); err != nil || !ok {
		t.Fatalf("SetIfAbsent over expired: ok=%v err=%v", ok, err)
	}

	// Delete is idempotent.
	if err := s.Delete(ctx, p+"a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, p+"a"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
	if _, err := s.Get(ctx, p+"a"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get deleted: want ErrNotFound, got %v", err)
	}

	// ListKeys returns sorted keys under a prefix and nothing else.
	for _, k := range []string{"dates/2024-03-02", "dates/2024-03-01", "dates/2024-01-15"} {
		if err := s.Set(ctx, p+k, []byte("x"), 0); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	keys, err := s.ListKeys(ctx, p+"dates/")
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	want := []string{p + "dates/2024-01-15", p + "dates/2024-03-01", p + "dates/2024-03-02"}
	if len(keys) != len(want) {
		t.Fatalf("ListKeys: n=%d want=%d (%v)", len(keys), len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("ListKeys[%d]=%q want %q", i, keys[i], want[i])
		}
	}

	// Prefixes match literally: `_` and `%` in a prefix are not wildcards.
	for _, k := range []string{"u_/2026-01-01", "u1/2026-01-01", "a%b/x", "axb/x"} {
		if err := s.Set(ctx, p+k, []byte("x"), 0); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	keys, err = s.ListKeys(ctx, p+"u_/")
	if err != nil {
		t.Fatalf("ListKeys literal underscore: %v", err)
	}
	if len(keys) != 1 || keys[0] != p+"u_/2026-01-01" {
		t.Fatalf("ListKeys %q matched beyond the literal prefix: %v", p+"u_/", keys)
	}
	keys, err = s.ListKeys(ctx, p+"a%")
	if err != nil {
		t.Fatalf("ListKeys literal percent: %v", err)
	}
	if len(keys) != 1 || keys[0] != p+"a%b/x" {
		t.Fatalf("ListKeys %q matched beyond the literal prefix: %v", p+"a%", keys)
	}

	// Logs: append order preserved, count without bodies, bounded tail reads.
	logKey := p + "log"
	for _, v := range []string{"r1", "r2", "r3", "r4"} {
		if err := s.Append(ctx, logKey, []byte(v)); err != nil {
			t.Fatalf("Append %s: %v", v, err)
		}
	}
	recs, err := s.ReadLog(ctx, logKey, 0)
	if err != nil || len(recs) != 4 {
		t.Fatalf("ReadLog: n=%d err=%v", len(recs), err)
	}
	for i, v := range []string{"r1", "r2", "r3", "r4"} {
		if string(recs[i]) != v {
			t.Fatalf("ReadLog[%d]=%q want %q", i, recs[i], v)
		}
	}
	tail, err := s.ReadLog(ctx, logKey, 2)
	if err != nil || len(tail) != 2 || string(tail[0]) != "r3" || string(tail[1]) != "r4" {
		t.Fatalf("ReadLog tail: got=%v err=%v", tail, err)
	}
	if n, err := s.CountLog(ctx, logKey); err != nil || n != 4 {
		t.Fatalf("CountLog: n=%d err=%v", n, err)
	}

	// Absent log reads empty, and DeleteLog is idempotent.
	if empty, err := s.ReadLog(ctx, p+"nolog", 0); err != nil || len(empty) != 0 {
		t.Fatalf("ReadLog absent: n=%d err=%v", len(empty), err)
	}
	if err := s.DeleteLog(ctx, logKey); err != nil {
		t.Fatalf("DeleteLog: %v", err)
	}
	if err := s.DeleteLog(ctx, logKey); err != nil {
		t.Fatalf("DeleteLog absent: %v", err)
	}
	if n, _ := s.CountLog(ctx, logKey); n != 0 {
		t.Fatalf("CountLog after delete: n=%d", n)
	}
}
