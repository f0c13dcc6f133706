package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/solace-journal/solace-server/internal/api/respond"
	"github.com/solace-journal/solace-server/internal/api/validate"
	"github.com/solace-journal/solace-server/internal/model"
	"github.com/solace-journal/solace-server/internal/reset"
)

// ResetHandler exposes scoped resets.
type ResetHandler struct {
	orch *reset.Orchestrator
}

func NewResetHandler(o *reset.Orchestrator) *ResetHandler { return &ResetHandler{orch: o} }

// Reset clears state per the requested scope. An empty body means a full
// reset of the default user. A partial failure is reported per step with
// HTTP 207, never as unconditional success.
func (h *ResetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req model.ResetRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respond.WriteBadRequest(w, "unreadable body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			respond.WriteBadRequest(w, "invalid json")
			return
		}
	}
	if req.UserID != "" {
		if err := validate.UserID(req.UserID); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}

	res, err := h.orch.Reset(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusMultiStatus
	}
	respond.WriteJSON(w, status, res)
}
