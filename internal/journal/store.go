// Package journal persists per-user, per-calendar-date entries: an append-only
// message log plus an optional generated summary.
//
// Two namespaces back each entry: a small record at journal/<user>/<date>
// (summary, creation time) and a message log at jmsg/<user>/<date>. Messages
// grow append-only under log sequence numbers, so concurrent appends to the
// same date never rewrite each other. The summary field is last-writer-wins,
// a documented relaxation.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/solace-journal/solace-server/internal/kv"
	"github.com/solace-journal/solace-server/internal/model"
)

const (
	entryPrefix = "journal/"
	msgPrefix   = "jmsg/"

	dateLayout = "2006-01-02"
)

func entryKey(canonicalID, date string) string { return entryPrefix + canonicalID + "/" + date }
func msgKey(canonicalID, date string) string   { return msgPrefix + canonicalID + "/" + date }
func userEntryPrefix(canonicalID string) string { return entryPrefix + canonicalID + "/" }

// entryRecord is the persisted per-date record. Message bodies live in the
// log namespace, never here.
type entryRecord struct {
	Date      string    `json:"date"`
	Summary   *string   `json:"summary,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EntryUpdate carries one upsert: messages to append, a summary to assign, or
// both. A nil Summary leaves any existing summary untouched.
type EntryUpdate struct {
	Messages []model.ConversationTurn
	Summary  *string
}

// Store is the journal store. It is the sole writer of the journal/ and jmsg/
// key namespaces.
type Store struct {
	kv kv.KV
}

func NewStore(store kv.KV) *Store { return &Store{kv: store} }

// ValidDate reports whether date is a well-formed ISO-8601 calendar date.
func ValidDate(date string) bool {
	_, err := time.Parse(dateLayout, date)
	return err == nil
}

// Upsert creates the entry for (canonicalID, date) when absent, appends any
// messages, and assigns the summary when one is supplied. Prior messages are
// never overwritten or truncated.
func (s *Store) Upsert(ctx context.Context, canonicalID, date string, upd EntryUpdate) error {
	if canonicalID == "" {
		return fmt.Errorf("%w: canonical id is required", model.ErrValidation)
	}
	if !ValidDate(date) {
		return fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", model.ErrValidation, date)
	}

	// At most one record per (user, date): the conditional write makes
	// concurrent first upserts converge on a single record.
	rec := entryRecord{Date: date, CreatedAt: time.Now().UTC()}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode journal record: %w", err)
	}
	if _, err := s.kv.SetIfAbsent(ctx, entryKey(canonicalID, date), b); err != nil {
		return err
	}

	for _, m := range upd.Messages {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: unknown role %q", model.ErrValidation, m.Role)
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = time.Now().UTC()
		}
		mb, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode journal message: %w", err)
		}
		if err := s.kv.Append(ctx, msgKey(canonicalID, date), mb); err != nil {
			return err
		}
	}

	if upd.Summary != nil {
		cur, err := s.getRecord(ctx, canonicalID, date)
		if err != nil {
			return err
		}
		cur.Summary = upd.Summary
		cb, err := json.Marshal(cur)
		if err != nil {
			return fmt.Errorf("encode journal record: %w", err)
		}
		if err := s.kv.Set(ctx, entryKey(canonicalID, date), cb, 0); err != nil {
			return err
		}
	}
	return nil
}

// GetEntry returns the full entry for (canonicalID, date), or model.ErrNotFound.
func (s *Store) GetEntry(ctx context.Context, canonicalID, date string) (*model.JournalEntry, error) {
	if !ValidDate(date) {
		return nil, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", model.ErrValidation, date)
	}
	rec, err := s.getRecord(ctx, canonicalID, date)
	if err != nil {
		return nil, err
	}

	recs, err := s.kv.ReadLog(ctx, msgKey(canonicalID, date), 0)
	if err != nil {
		return nil, err
	}
	msgs := make([]model.ConversationTurn, 0, len(recs))
	for _, mb := range recs {
		var t model.ConversationTurn
		if err := json.Unmarshal(mb, &t); err != nil {
			return nil, fmt.Errorf("decode journal message for %s/%s: %w", canonicalID, date, err)
		}
		msgs = append(msgs, t)
	}
	return &model.JournalEntry{Date: date, Messages: msgs, Summary: rec.Summary}, nil
}

// ListDates returns the user's known dates in chronological order. The sort is
// explicit; store key ordering is not relied on.
func (s *Store) ListDates(ctx context.Context, canonicalID string) ([]string, error) {
	keys, err := s.kv.ListKeys(ctx, userEntryPrefix(canonicalID))
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(keys))
	for _, k := range keys {
		dates = append(dates, strings.TrimPrefix(k, userEntryPrefix(canonicalID)))
	}
	sort.Strings(dates) // ISO dates sort chronologically
	return dates, nil
}

// Overview aggregates {date, messageCount, hasSummary} per known date without
// materializing message bodies. Read-only: safe to call repeatedly.
func (s *Store) Overview(ctx context.Context, canonicalID string) (*model.JournalOverview, error) {
	dates, err := s.ListDates(ctx, canonicalID)
	if err != nil {
		return nil, err
	}
	days := make([]model.JournalDay, 0, len(dates))
	for _, d := range dates {
		rec, err := s.getRecord(ctx, canonicalID, d)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				// record deleted between list and read; skip
				continue
			}
			return nil, err
		}
		n, err := s.kv.CountLog(ctx, msgKey(canonicalID, d))
		if err != nil {
			return nil, err
		}
		days = append(days, model.JournalDay{Date: d, MessageCount: n, HasSummary: rec.Summary != nil})
	}
	return &model.JournalOverview{
		UserID:     canonicalID,
		TotalDates: len(days),
		Dates:      dates,
		Entries:    days,
	}, nil
}

// DeleteAll removes every dated entry and message log for the user.
// Idempotent; used only by profile reset.
func (s *Store) DeleteAll(ctx context.Context, canonicalID string) error {
	dates, err := s.ListDates(ctx, canonicalID)
	if err != nil {
		return err
	}
	for _, d := range dates {
		if err := s.kv.DeleteLog(ctx, msgKey(canonicalID, d)); err != nil {
			return err
		}
		if err := s.kv.Delete(ctx, entryKey(canonicalID, d)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) getRecord(ctx context.Context, canonicalID, date string) (*entryRecord, error) {
	b, err := s.kv.Get(ctx, entryKey(canonicalID, date))
	if err != nil {
		return nil, err
	}
	var rec entryRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode journal record for %s/%s: %w", canonicalID, date, err)
	}
	return &rec, nil
}
