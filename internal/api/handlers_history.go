package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/solace-journal/solace-server/internal/api/respond"
	"github.com/solace-journal/solace-server/internal/api/validate"
	"github.com/solace-journal/solace-server/internal/history"
	"github.com/solace-journal/solace-server/internal/model"
)

// HistoryHandler exposes the per-user conversation log.
type HistoryHandler struct {
	store *history.Store
}

func NewHistoryHandler(s *history.Store) *HistoryHandler { return &HistoryHandler{store: s} }

// List returns the user's turns in insertion order; ?limit=N bounds the read
// to the most recent N.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	turns, err := h.store.ReadRecent(r.Context(), userID, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"userId": userID, "turns": turns})
}

// Append adds one turn to the user's log.
func (h *HistoryHandler) Append(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	var in struct {
		Role    model.Role `json:"role"`
		Content string     `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.Turn(in.Role, in.Content); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	turn := model.ConversationTurn{Role: in.Role, Content: in.Content}
	if err := h.store.Append(r.Context(), userID, turn); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// Clear deletes the user's entire log. Idempotent.
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := h.store.Clear(r.Context(), userID); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
