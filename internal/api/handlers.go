package api

import (
	"errors"
	"net/http"
	"time"

	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/providers"
	"forage-map/orchard/internal/services"
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

// handleServiceError maps repository and table errors to HTTP responses
func handleServiceError(w http.ResponseWriter, initTime time.Time, err error) {
	var pointErr *services.PointError
	if errors.As(err, &pointErr) {
		RespondError(w, initTime, err, pointErr.Error(), http.StatusBadRequest)
		return
	}

	var tableErr *providers.TableError
	message := constants.MsgUnexpectedFailure
	if errors.As(err, &tableErr) {
		message = tableErr.Message
	}

	RespondError(w, initTime, err, message, statusForError(err))
}

// statusForError maps table error kinds to HTTP status codes
func statusForError(err error) int {
	switch {
	// 404 Not Found - Resource doesn't exist
	case errors.Is(err, providers.ErrNotFound):
		return http.StatusNotFound

	// 503 Service Unavailable - cannot reach the table
	case errors.Is(err, providers.ErrConnection):
		return http.StatusServiceUnavailable

	// 502 Bad Gateway - the table refused the write or has a broken header
	case errors.Is(err, providers.ErrWrite), errors.Is(err, providers.ErrSchema):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
