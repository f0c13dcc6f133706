// Package reset orchestrates selective, idempotent clearing of persisted state.
//
// The sub-operations span independent key namespaces with no cross-store
// transaction, so a reset is not atomic: each step's outcome is reported
// individually and a partial failure is never collapsed into a single
// aggregate boolean.
package reset

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/solace-journal/solace-server/internal/history"
	"github.com/solace-journal/solace-server/internal/identity"
	"github.com/solace-journal/solace-server/internal/journal"
	"github.com/solace-journal/solace-server/internal/model"
	"github.com/solace-journal/solace-server/internal/persona"
)

// Orchestrator coordinates reset flows across the four stores.
type Orchestrator struct {
	persona  *persona.Store
	identity *identity.Resolver
	history  *history.Store
	journal  *journal.Store

	// defaultUserID is the sentinel used when a request omits the target.
	defaultUserID string
	log           zerolog.Logger
}

func NewOrchestrator(
	p *persona.Store,
	id *identity.Resolver,
	h *history.Store,
	j *journal.Store,
	defaultUserID string,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		persona:       p,
		identity:      id,
		history:       h,
		journal:       j,
		defaultUserID: defaultUserID,
		log:           log.With().Str("component", "reset").Logger(),
	}
}

// Reset applies the requested scope. Defaults: scope "all", userId the
// configured sentinel. Every sub-operation runs even when an earlier one
// fails; outcomes are reported per step.
func (o *Orchestrator) Reset(ctx context.Context, req model.ResetRequest) (*model.ResetResult, error) {
	scope := req.Scope
	if scope == "" {
		scope = model.ResetAll
	}
	userID := req.UserID
	if userID == "" {
		userID = o.defaultUserID
	}

	switch scope {
	case model.ResetAll, model.ResetAI, model.ResetUser:
	default:
		return nil, fmt.Errorf("%w: unknown reset scope %q", model.ErrValidation, req.Scope)
	}

	res := &model.ResetResult{Success: true}

	if scope == model.ResetAI || scope == model.ResetAll {
		o.step(ctx, res, "ai-identity", func(ctx context.Context) error {
			return o.persona.Delete(ctx)
		})
	}

	if scope == model.ResetUser || scope == model.ResetAll {
		// Alias mappings survive a user reset: identity persists, data resets.
		o.step(ctx, res, "user-profile", func(ctx context.Context) error {
			return o.identity.DeleteUserProfile(ctx, userID)
		})
		o.step(ctx, res, "conversation-history", func(ctx context.Context) error {
			return o.history.Clear(ctx, userID)
		})
		o.step(ctx, res, "journal", func(ctx context.Context) error {
			return o.journal.DeleteAll(ctx, userID)
		})
	}

	res.Message = message(scope, userID, res)
	return res, nil
}

func (o *Orchestrator) step(ctx context.Context, res *model.ResetResult, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		o.log.Error().Stack().Err(err).Str("step", name).Msg("reset step failed")
		res.Success = false
		res.Steps = append(res.Steps, model.ResetStep{Name: name, OK: false, Error: err.Error()})
		return
	}
	res.Steps = append(res.Steps, model.ResetStep{Name: name, OK: true})
}

func message(scope model.ResetScope, userID string, res *model.ResetResult) string {
	if !res.Success {
		failed := []string{}
		for _, st := range res.Steps {
			if !st.OK {
				failed = append(failed, st.Name)
			}
		}
		return fmt.Sprintf("reset (%s) partially failed: %v", scope, failed)
	}
	switch scope {
	case model.ResetAI:
		return "AI identity cleared"
	case model.ResetUser:
		return fmt.Sprintf("user data cleared for %s", userID)
	default:
		return fmt.Sprintf("AI identity and user data cleared for %s", userID)
	}
}
