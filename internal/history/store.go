// Package history persists the append-only conversation log per canonical user.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/solace-journal/solace-server/internal/kv"
	"github.com/solace-journal/solace-server/internal/model"
)

const logPrefix = "history/"

func logKey(canonicalID string) string { return logPrefix + canonicalID }

// Store is the conversation history store. It is the sole writer of the
// history/ key namespace.
type Store struct {
	kv kv.KV
}

func NewStore(store kv.KV) *Store { return &Store{kv: store} }

// Append adds a turn to the user's log. Prior entries are never reordered or
// dropped. A zero timestamp is stamped with the current time.
func (s *Store) Append(ctx context.Context, canonicalID string, turn model.ConversationTurn) error {
	if canonicalID == "" {
		return fmt.Errorf("%w: canonical id is required", model.ErrValidation)
	}
	if !turn.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", model.ErrValidation, turn.Role)
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	b, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}
	return s.kv.Append(ctx, logKey(canonicalID), b)
}

// ReadAll returns the user's turns in insertion order. A user with no history
// yields an empty slice, not an error.
func (s *Store) ReadAll(ctx context.Context, canonicalID string) ([]model.ConversationTurn, error) {
	return s.read(ctx, canonicalID, 0)
}

// ReadRecent returns the most recent limit turns, still in insertion order.
func (s *Store) ReadRecent(ctx context.Context, canonicalID string, limit int) ([]model.ConversationTurn, error) {
	return s.read(ctx, canonicalID, limit)
}

func (s *Store) read(ctx context.Context, canonicalID string, limit int) ([]model.ConversationTurn, error) {
	recs, err := s.kv.ReadLog(ctx, logKey(canonicalID), limit)
	if err != nil {
		return nil, err
	}
	turns := make([]model.ConversationTurn, 0, len(recs))
	for _, b := range recs {
		var t model.ConversationTurn
		if err := json.Unmarshal(b, &t); err != nil {
			return nil, fmt.Errorf("decode turn for %s: %w", canonicalID, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Clear deletes the entire log. Idempotent; used only by reset flows.
func (s *Store) Clear(ctx context.Context, canonicalID string) error {
	return s.kv.DeleteLog(ctx, logKey(canonicalID))
}
