// Package persona persists the singleton AI identity record.
package persona

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/solace-journal/solace-server/internal/kv"
	"github.com/solace-journal/solace-server/internal/model"
)

// singletonKey is the fixed key for the one process-wide persona record.
const singletonKey = "persona/identity"

// Store is the AI identity store. At most one record exists; absence is a
// valid state reported as model.ErrNotFound.
type Store struct {
	kv kv.KV
}

func NewStore(store kv.KV) *Store { return &Store{kv: store} }

// Get returns the persona, or model.ErrNotFound when not yet bootstrapped.
func (s *Store) Get(ctx context.Context) (*model.AIIdentity, error) {
	b, err := s.kv.Get(ctx, singletonKey)
	if err != nil {
		return nil, err
	}
	var id model.AIIdentity
	if err := json.Unmarshal(b, &id); err != nil {
		return nil, fmt.Errorf("decode persona: %w", err)
	}
	return &id, nil
}

// Set replaces the persona wholesale. Partial updates read-merge at the
// caller boundary, never here.
func (s *Store) Set(ctx context.Context, id model.AIIdentity) error {
	if id.Name == "" {
		return fmt.Errorf("%w: persona name is required", model.ErrValidation)
	}
	b, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode persona: %w", err)
	}
	return s.kv.Set(ctx, singletonKey, b, 0)
}

// Delete forgets the persona. Idempotent; distinct from any per-user deletion.
func (s *Store) Delete(ctx context.Context) error {
	return s.kv.Delete(ctx, singletonKey)
}
