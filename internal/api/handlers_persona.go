package api

import (
	"encoding/json"
	"net/http"

	"github.com/solace-journal/solace-server/internal/api/respond"
	"github.com/solace-journal/solace-server/internal/model"
	"github.com/solace-journal/solace-server/internal/persona"
)

// PersonaHandler exposes the singleton AI identity.
type PersonaHandler struct {
	store *persona.Store
}

func NewPersonaHandler(s *persona.Store) *PersonaHandler { return &PersonaHandler{store: s} }

// Get returns the persona; 404 means not yet bootstrapped.
func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.store.Get(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, id)
}

// Put replaces the persona wholesale (bootstrap or edit).
func (h *PersonaHandler) Put(w http.ResponseWriter, r *http.Request) {
	var in model.AIIdentity
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := h.store.Set(r.Context(), in); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete forgets the persona. Idempotent.
func (h *PersonaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
