package reset

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solace-journal/solace-server/internal/history"
	"github.com/solace-journal/solace-server/internal/identity"
	"github.com/solace-journal/solace-server/internal/journal"
	"github.com/solace-journal/solace-server/internal/kv"
	"github.com/solace-journal/solace-server/internal/kv/kvtest"
	"github.com/solace-journal/solace-server/internal/model"
	"github.com/solace-journal/solace-server/internal/persona"
)

// faultyKV delegates to an inner kv.KV but fails Delete on one key, to drive
// the partial-failure reporting path.
type faultyKV struct {
	kv.KV
	failDeleteKey string
}

func (f *faultyKV) Delete(ctx context.Context, key string) error {
	if key == f.failDeleteKey {
		return fmt.Errorf("%w: injected", model.ErrUnavailable)
	}
	return f.KV.Delete(ctx, key)
}

type fixture struct {
	store kv.KV
	orch  *Orchestrator
	ident *identity.Resolver
	hist  *history.Store
	jrnl  *journal.Store
	pers  *persona.Store
}

func newFixture(t *testing.T, store kv.KV) *fixture {
	t.Helper()
	f := &fixture{
		store: store,
		ident: identity.NewResolver(store, zerolog.Nop()),
		hist:  history.NewStore(store),
		jrnl:  journal.NewStore(store),
		pers:  persona.NewStore(store),
	}
	f.orch = NewOrchestrator(f.pers, f.ident, f.hist, f.jrnl, "default-user", zerolog.Nop())
	return f
}

// seed populates a persona plus one resolved user with history and a journal
// entry, and returns the canonical id.
func (f *fixture) seed(t *testing.T, rawID string) string {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.pers.Set(ctx, model.AIIdentity{Name: "Solace", Creature: "fox"}))

	cid, err := f.ident.Resolve(ctx, rawID)
	require.NoError(t, err)
	require.NoError(t, f.hist.Append(ctx, cid, model.ConversationTurn{
		Role: model.RoleUser, Content: "hello", Timestamp: time.Now().UTC(),
	}))
	sum := "a day"
	require.NoError(t, f.jrnl.Upsert(ctx, cid, "2026-03-14", journal.EntryUpdate{
		Messages: []model.ConversationTurn{{Role: model.RoleUser, Content: "entry"}},
		Summary:  &sum,
	}))
	return cid
}

func stepNames(res *model.ResetResult) []string {
	names := make([]string, 0, len(res.Steps))
	for _, s := range res.Steps {
		names = append(names, s.Name)
	}
	return names
}

func TestReset_AIScopeLeavesUserData(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, kvtest.NewTempStore(t))
	cid := f.seed(t, "anon-7")

	res, err := f.orch.Reset(ctx, model.ResetRequest{Scope: model.ResetAI})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"ai-identity"}, stepNames(res))

	_, err = f.pers.Get(ctx)
	require.ErrorIs(t, err, model.ErrNotFound)

	turns, err := f.hist.ReadAll(ctx, cid)
	require.NoError(t, err)
	assert.Len(t, turns, 1, "ai reset must not touch user data")
	_, err = f.jrnl.GetEntry(ctx, cid, "2026-03-14")
	require.NoError(t, err)
}

func TestReset_UserScopeClearsDataButKeepsIdentityAndPersona(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, kvtest.NewTempStore(t))
	cid := f.seed(t, "anon-7")

	res, err := f.orch.Reset(ctx, model.ResetRequest{UserID: cid, Scope: model.ResetUser})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"user-profile", "conversation-history", "journal"}, stepNames(res))

	// User data is gone.
	_, err = f.ident.GetUser(ctx, cid)
	require.ErrorIs(t, err, model.ErrNotFound)
	turns, err := f.hist.ReadAll(ctx, cid)
	require.NoError(t, err)
	assert.Empty(t, turns)
	dates, err := f.jrnl.ListDates(ctx, cid)
	require.NoError(t, err)
	assert.Empty(t, dates)

	// Persona survives, and the alias still maps to the same canonical id.
	_, err = f.pers.Get(ctx)
	require.NoError(t, err)
	again, err := f.ident.Resolve(ctx, "anon-7")
	require.NoError(t, err)
	assert.Equal(t, cid, again)
}

func TestReset_UserScopeLeavesOtherUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, kvtest.NewTempStore(t))
	cid := f.seed(t, "anon-7")
	other := f.seed(t, "anon-8")

	_, err := f.orch.Reset(ctx, model.ResetRequest{UserID: cid, Scope: model.ResetUser})
	require.NoError(t, err)

	turns, err := f.hist.ReadAll(ctx, other)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
	_, err = f.jrnl.GetEntry(ctx, other, "2026-03-14")
	require.NoError(t, err)
}

func TestReset_DefaultsToFullResetOfSentinelUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, kvtest.NewTempStore(t))

	require.NoError(t, f.pers.Set(ctx, model.AIIdentity{Name: "Solace", Creature: "fox"}))
	require.NoError(t, f.hist.Append(ctx, "default-user", model.ConversationTurn{
		Role: model.RoleUser, Content: "hi",
	}))

	res, err := f.orch.Reset(ctx, model.ResetRequest{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"ai-identity", "user-profile", "conversation-history", "journal"}, stepNames(res))

	_, err = f.pers.Get(ctx)
	require.ErrorIs(t, err, model.ErrNotFound)
	turns, err := f.hist.ReadAll(ctx, "default-user")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestReset_UnknownScopeIsValidationError(t *testing.T) {
	f := newFixture(t, kvtest.NewTempStore(t))
	_, err := f.orch.Reset(context.Background(), model.ResetRequest{Scope: "everything"})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestReset_IdempotentOnEmptyState(t *testing.T) {
	f := newFixture(t, kvtest.NewTempStore(t))
	res, err := f.orch.Reset(context.Background(), model.ResetRequest{})
	require.NoError(t, err)
	assert.True(t, res.Success, "resetting absent state succeeds")
}

func TestReset_PartialFailureReportsPerStep(t *testing.T) {
	ctx := context.Background()
	inner := kvtest.NewTempStore(t)
	f := newFixture(t, &faultyKV{KV: inner, failDeleteKey: "persona/identity"})
	cid := f.seed(t, "anon-7")

	res, err := f.orch.Reset(ctx, model.ResetRequest{UserID: cid})
	require.NoError(t, err, "partial failure is reported in the result, not as an error")
	assert.False(t, res.Success)
	require.Len(t, res.Steps, 4)

	assert.Equal(t, "ai-identity", res.Steps[0].Name)
	assert.False(t, res.Steps[0].OK)
	assert.NotEmpty(t, res.Steps[0].Error)

	// Later steps still ran and succeeded.
	for _, st := range res.Steps[1:] {
		assert.True(t, st.OK, "step %s should have run despite the earlier failure", st.Name)
	}
	turns, err := f.hist.ReadAll(ctx, cid)
	require.NoError(t, err)
	assert.Empty(t, turns)

	assert.Contains(t, res.Message, "partially failed")
}
