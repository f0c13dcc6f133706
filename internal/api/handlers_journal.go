package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/solace-journal/solace-server/internal/api/respond"
	"github.com/solace-journal/solace-server/internal/api/validate"
	"github.com/solace-journal/solace-server/internal/journal"
	"github.com/solace-journal/solace-server/internal/model"
)

// JournalHandler exposes per-user, per-date journal entries.
type JournalHandler struct {
	store *journal.Store
}

func NewJournalHandler(s *journal.Store) *JournalHandler { return &JournalHandler{store: s} }

// ListDates returns the user's known dates in chronological order.
func (h *JournalHandler) ListDates(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	dates, err := h.store.ListDates(r.Context(), userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"userId": userID, "dates": dates})
}

// GetEntry returns one date's entry, or 404 when the date has no entry.
func (h *JournalHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, date := vars["userId"], vars["date"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Date(date); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	entry, err := h.store.GetEntry(r.Context(), userID, date)
	if err != nil {
		writeErr(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, entry)
}

// UpsertEntry creates or extends one date's entry. The body may carry
// messages, a summary, or both; prior messages are never overwritten.
func (h *JournalHandler) UpsertEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, date := vars["userId"], vars["date"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Date(date); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	var in struct {
		Messages []model.ConversationTurn `json:"messages,omitempty"`
		Summary  *string                  `json:"summary,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if len(in.Messages) == 0 && in.Summary == nil {
		respond.WriteBadRequest(w, "update must carry messages, a summary, or both")
		return
	}
	for _, m := range in.Messages {
		if err := validate.Turn(m.Role, m.Content); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}

	upd := journal.EntryUpdate{Messages: in.Messages, Summary: in.Summary}
	if err := h.store.Upsert(r.Context(), userID, date, upd); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Overview returns the diagnostic aggregation: per-date message counts and
// summary presence, without message bodies.
func (h *JournalHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	ov, err := h.store.Overview(r.Context(), userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, ov)
}
