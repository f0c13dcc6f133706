// Package identity maps raw caller-supplied identifiers to canonical users.
//
// Two explicit namespaces back the mapping: an alias index (alias/<rawId> →
// canonical id) and the canonical user records (user/<canonicalId>). Once an
// alias is mapped its canonical id is never reassigned.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solace-journal/solace-server/internal/kv"
	"github.com/solace-journal/solace-server/internal/model"
)

const (
	aliasPrefix = "alias/"
	userPrefix  = "user/"

	// maxAllocAttempts bounds retries when concurrent first-sight resolutions
	// race on the same alias.
	maxAllocAttempts = 3
)

func aliasKey(rawID string) string      { return aliasPrefix + rawID }
func userKey(canonicalID string) string { return userPrefix + canonicalID }

// Resolver resolves raw identifiers to canonical user ids.
type Resolver struct {
	kv  kv.KV
	log zerolog.Logger
}

func NewResolver(store kv.KV, log zerolog.Logger) *Resolver {
	return &Resolver{kv: store, log: log.With().Str("component", "identity").Logger()}
}

// Resolve returns the canonical id for rawID, allocating one on first sight.
//
// The first-sight path allocates a fresh id and claims the alias with an
// atomic set-if-absent; a loser of that race discards its id and re-reads the
// winner's mapping. Resolution never fabricates an id on transport failure:
// any ErrUnavailable aborts and propagates.
func (r *Resolver) Resolve(ctx context.Context, rawID string) (string, error) {
	if rawID == "" {
		return "", fmt.Errorf("%w: raw id is required", model.ErrValidation)
	}

	for attempt := 0; attempt < maxAllocAttempts; attempt++ {
		b, err := r.kv.Get(ctx, aliasKey(rawID))
		if err == nil {
			return string(b), nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return "", err
		}

		canonicalID := uuid.New().String()
		claimed, err := r.kv.SetIfAbsent(ctx, aliasKey(rawID), []byte(canonicalID))
		if err != nil {
			return "", err
		}
		if !claimed {
			// lost the race; next iteration reads the winner's mapping
			r.log.Debug().Str("raw_id", rawID).Msg("alias claim lost, re-reading")
			continue
		}

		u := model.CanonicalUser{
			CanonicalID:  canonicalID,
			Aliases:      []string{rawID},
			CreationTime: time.Now().UTC(),
		}
		buf, err := json.Marshal(u)
		if err != nil {
			return "", fmt.Errorf("encode canonical user: %w", err)
		}
		if err := r.kv.Set(ctx, userKey(canonicalID), buf, 0); err != nil {
			return "", err
		}
		r.log.Info().Str("canonical_id", canonicalID).Msg("canonical user created")
		return canonicalID, nil
	}

	return "", fmt.Errorf("%w: alias allocation did not settle after %d attempts: %w",
		model.ErrUnavailable, maxAllocAttempts, model.ErrConflict)
}

// GetUser returns the canonical user record, or model.ErrNotFound. A mapped
// alias whose record was cleared by a user reset also reports ErrNotFound.
func (r *Resolver) GetUser(ctx context.Context, canonicalID string) (*model.CanonicalUser, error) {
	b, err := r.kv.Get(ctx, userKey(canonicalID))
	if err != nil {
		return nil, err
	}
	var u model.CanonicalUser
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("decode canonical user %s: %w", canonicalID, err)
	}
	return &u, nil
}

// DeleteUserProfile removes the canonical user record. Idempotent.
//
// The alias → canonical mapping is deliberately retained: identity persists
// across a user reset, only the data under it is cleared. A returning caller
// with the same raw id lands on the same canonical id.
func (r *Resolver) DeleteUserProfile(ctx context.Context, canonicalID string) error {
	return r.kv.Delete(ctx, userKey(canonicalID))
}
