package api

import (
	"encoding/json"
	"net/http"

	"github.com/solace-journal/solace-server/internal/api/respond"
	"github.com/solace-journal/solace-server/internal/api/validate"
	"github.com/solace-journal/solace-server/internal/identity"
)

// IdentityHandler exposes alias → canonical resolution to the route layer.
type IdentityHandler struct {
	resolver *identity.Resolver
}

func NewIdentityHandler(r *identity.Resolver) *IdentityHandler {
	return &IdentityHandler{resolver: r}
}

// Resolve returns the canonical id for a raw identifier, allocating on first
// sight. A transport failure aborts the request with a retryable error; no id
// is ever fabricated.
func (h *IdentityHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RawID string `json:"rawId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.RawID(in.RawID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	canonicalID, err := h.resolver.Resolve(r.Context(), in.RawID)
	if err != nil {
		writeErr(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"userId": canonicalID})
}
