package api

import (
	"errors"
	"net/http"

	"github.com/solace-journal/solace-server/internal/api/respond"
	"github.com/solace-journal/solace-server/internal/model"
)

// writeErr maps store error kinds onto HTTP statuses. NotFound and validation
// problems are the caller's concern; ErrUnavailable is retryable and must not
// masquerade as a miss.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrUnavailable):
		respond.WriteUnavailable(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
