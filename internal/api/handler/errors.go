package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api/middleware"
	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
	"github.com/nutrilog/nutrilog/internal/database"
)

// ErrorWriter maps service errors to problem responses. It is shared by all
// handlers so every route reports errors the same way.
type ErrorWriter struct {
	logger zerolog.Logger

	// exposeInternal includes the error text in 500 responses.
	exposeInternal bool
}

// NewErrorWriter creates an ErrorWriter. Internal error details are only
// exposed when development is true.
func NewErrorWriter(logger zerolog.Logger, development bool) *ErrorWriter {
	return &ErrorWriter{logger: logger, exposeInternal: development}
}

// Write writes the problem response for err.
func (e *ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		detail := "validation failed"
		if verr.Err != nil {
			detail = verr.Err.Error()
		}
		response.BadRequest(w, r, detail, verr.Errors)
	case errors.Is(err, database.ErrNotFound):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, database.ErrConflict):
		response.Conflict(w, r, err.Error())
	default:
		e.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("user_id", middleware.GetUserID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")

		detail := "internal server error"
		if e.exposeInternal {
			detail = err.Error()
		}
		response.InternalError(w, r, detail)
	}
}
