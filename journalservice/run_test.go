package journalservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solace-journal/solace-server/internal/config"
	"github.com/solace-journal/solace-server/internal/kv"
	"github.com/solace-journal/solace-server/internal/kv/kvtest"
	"github.com/solace-journal/solace-server/internal/model"
)

func newTestServer(t *testing.T, store kv.KV) *httptest.Server {
	t.Helper()
	router := buildRouter(store, config.NewForTesting(), zerolog.Nop())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doReq(t *testing.T, method, url string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func resolveUser(t *testing.T, srv *httptest.Server, rawID string) string {
	t.Helper()
	code, body := doReq(t, "POST", srv.URL+"/api/identity/resolve", map[string]string{"rawId": rawID})
	require.Equal(t, http.StatusOK, code, "resolve failed: %s", body)
	var out struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.UserID)
	return out.UserID
}

func TestService_NewUserJourney(t *testing.T) {
	srv := newTestServer(t, kvtest.NewTempStore(t))

	// A new caller resolves to a fresh canonical id, stable across calls.
	uid := resolveUser(t, srv, "anon-7")
	assert.Equal(t, uid, resolveUser(t, srv, "anon-7"))

	userURL := srv.URL + "/api/users/" + uid

	// Conversation turns accumulate in order.
	for _, m := range []map[string]string{
		{"role": "user", "content": "hi"},
		{"role": "assistant", "content": "hello! how was your day?"},
		{"role": "user", "content": "long, but good"},
	} {
		code, body := doReq(t, "POST", userURL+"/history", m)
		require.Equal(t, http.StatusCreated, code, "append failed: %s", body)
	}

	code, body := doReq(t, "GET", userURL+"/history", nil)
	require.Equal(t, http.StatusOK, code)
	var hist struct {
		UserID string                   `json:"userId"`
		Turns  []model.ConversationTurn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(body, &hist))
	require.Len(t, hist.Turns, 3)
	assert.Equal(t, "hi", hist.Turns[0].Content)
	assert.Equal(t, "long, but good", hist.Turns[2].Content)

	code, body = doReq(t, "GET", userURL+"/history?limit=2", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &hist))
	require.Len(t, hist.Turns, 2)
	assert.Equal(t, "hello! how was your day?", hist.Turns[0].Content)

	// Journal entries build up per date; the summary lands later.
	code, _ = doReq(t, "POST", userURL+"/journal/2026-08-28", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "wrote in the morning"}},
	})
	require.Equal(t, http.StatusNoContent, code)
	code, _ = doReq(t, "POST", userURL+"/journal/2026-08-28", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "and again at night"}},
		"summary":  "a full day",
	})
	require.Equal(t, http.StatusNoContent, code)
	code, _ = doReq(t, "POST", userURL+"/journal/2026-08-27", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "yesterday"}},
	})
	require.Equal(t, http.StatusNoContent, code)

	code, body = doReq(t, "GET", userURL+"/journal/dates", nil)
	require.Equal(t, http.StatusOK, code)
	var dates struct {
		Dates []string `json:"dates"`
	}
	require.NoError(t, json.Unmarshal(body, &dates))
	assert.Equal(t, []string{"2026-08-27", "2026-08-28"}, dates.Dates)

	code, body = doReq(t, "GET", userURL+"/journal/2026-08-28", nil)
	require.Equal(t, http.StatusOK, code)
	var entry model.JournalEntry
	require.NoError(t, json.Unmarshal(body, &entry))
	require.Len(t, entry.Messages, 2)
	assert.Equal(t, "wrote in the morning", entry.Messages[0].Content)
	require.NotNil(t, entry.Summary)
	assert.Equal(t, "a full day", *entry.Summary)

	code, body = doReq(t, "GET", userURL+"/journal", nil)
	require.Equal(t, http.StatusOK, code)
	var ov model.JournalOverview
	require.NoError(t, json.Unmarshal(body, &ov))
	assert.Equal(t, 2, ov.TotalDates)
	require.Len(t, ov.Entries, 2)
	assert.Equal(t, model.JournalDay{Date: "2026-08-27", MessageCount: 1, HasSummary: false}, ov.Entries[0])
	assert.Equal(t, model.JournalDay{Date: "2026-08-28", MessageCount: 2, HasSummary: true}, ov.Entries[1])
}

func TestService_PersonaLifecycle(t *testing.T) {
	srv := newTestServer(t, kvtest.NewTempStore(t))

	code, _ := doReq(t, "GET", srv.URL+"/api/persona", nil)
	assert.Equal(t, http.StatusNotFound, code, "absent persona is 404, not an empty record")

	code, _ = doReq(t, "PUT", srv.URL+"/api/persona", map[string]any{
		"name": "Solace", "creature": "fox", "traits": []string{"warm"}, "showDebug": true,
	})
	require.Equal(t, http.StatusNoContent, code)

	code, body := doReq(t, "GET", srv.URL+"/api/persona", nil)
	require.Equal(t, http.StatusOK, code)
	var id model.AIIdentity
	require.NoError(t, json.Unmarshal(body, &id))
	assert.Equal(t, "Solace", id.Name)
	assert.True(t, id.ShowDebug)

	code, _ = doReq(t, "PUT", srv.URL+"/api/persona", map[string]any{"creature": "owl"})
	assert.Equal(t, http.StatusBadRequest, code, "persona without a name is rejected")

	code, _ = doReq(t, "DELETE", srv.URL+"/api/persona", nil)
	require.Equal(t, http.StatusNoContent, code)
	code, _ = doReq(t, "GET", srv.URL+"/api/persona", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestService_ResetDefaultsAndScopes(t *testing.T) {
	srv := newTestServer(t, kvtest.NewTempStore(t))

	code, _ := doReq(t, "PUT", srv.URL+"/api/persona", map[string]any{"name": "Solace", "creature": "fox"})
	require.Equal(t, http.StatusNoContent, code)
	uid := resolveUser(t, srv, "anon-7")
	code, _ = doReq(t, "POST", srv.URL+"/api/users/"+uid+"/history", map[string]string{"role": "user", "content": "hi"})
	require.Equal(t, http.StatusCreated, code)

	// Scoped user reset clears data but not the persona or the alias mapping.
	code, body := doReq(t, "POST", srv.URL+"/api/reset", map[string]string{"userId": uid, "resetType": "user"})
	require.Equal(t, http.StatusOK, code)
	var res model.ResetResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Success)
	require.Len(t, res.Steps, 3)

	code, _ = doReq(t, "GET", srv.URL+"/api/persona", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uid, resolveUser(t, srv, "anon-7"))

	// Empty body means a full reset with defaults.
	req, err := http.NewRequest("POST", srv.URL+"/api/reset", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.True(t, res.Success)
	require.Len(t, res.Steps, 4)
	assert.Equal(t, "ai-identity", res.Steps[0].Name)

	code, _ = doReq(t, "GET", srv.URL+"/api/persona", nil)
	assert.Equal(t, http.StatusNotFound, code)

	// Unknown scope is the caller's mistake, as is a malformed userId.
	code, _ = doReq(t, "POST", srv.URL+"/api/reset", map[string]string{"resetType": "everything"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = doReq(t, "POST", srv.URL+"/api/reset", map[string]string{"userId": "u_%", "resetType": "user"})
	assert.Equal(t, http.StatusBadRequest, code)
}

// faultyKV fails Delete on one key so a reset step fails while the rest run.
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

func TestService_ResetPartialFailureIsMultiStatus(t *testing.T) {
	store := &faultyKV{KV: kvtest.NewTempStore(t), failDeleteKey: "persona/identity"}
	srv := newTestServer(t, store)

	code, _ := doReq(t, "PUT", srv.URL+"/api/persona", map[string]any{"name": "Solace", "creature": "fox"})
	require.Equal(t, http.StatusNoContent, code)

	code, body := doReq(t, "POST", srv.URL+"/api/reset", map[string]string{"resetType": "all"})
	require.Equal(t, http.StatusMultiStatus, code)
	var res model.ResetResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.False(t, res.Success)
	require.Len(t, res.Steps, 4)
	assert.False(t, res.Steps[0].OK)
	assert.NotEmpty(t, res.Steps[0].Error)
	for _, st := range res.Steps[1:] {
		assert.True(t, st.OK)
	}
}

func TestService_ErrorMappings(t *testing.T) {
	srv := newTestServer(t, kvtest.NewTempStore(t))
	uid := resolveUser(t, srv, "anon-7")
	userURL := srv.URL + "/api/users/" + uid

	code, _ := doReq(t, "POST", srv.URL+"/api/identity/resolve", map[string]string{"rawId": "has space"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doReq(t, "POST", srv.URL+"/api/identity/resolve", map[string]string{"rawId": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doReq(t, "GET", userURL+"/history?limit=banana", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doReq(t, "POST", userURL+"/history", map[string]string{"role": "narrator", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doReq(t, "GET", userURL+"/journal/2026-08-28", nil)
	assert.Equal(t, http.StatusNotFound, code, "absent journal entry is a 404")

	code, _ = doReq(t, "POST", userURL+"/journal/2026-08-28", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code, "empty update carries nothing to apply")

	code, _ = doReq(t, "POST", userURL+"/journal/2026-13-40", map[string]any{"summary": "x"})
	assert.Equal(t, http.StatusBadRequest, code, "an impossible calendar date is the caller's mistake")

	code, _ = doReq(t, "POST", userURL+"/journal/tomorrow", map[string]any{"summary": "x"})
	assert.Equal(t, http.StatusNotFound, code, "non-date path segments never match the route")
}

func TestCalculateStartupHealthTimeout(t *testing.T) {
	assert.Equal(t, 60, calculateStartupHealthTimeout(10))
	assert.Equal(t, 60, calculateStartupHealthTimeout(30))
	assert.Equal(t, 90, calculateStartupHealthTimeout(45))
	assert.Equal(t, 120, calculateStartupHealthTimeout(60))
}
