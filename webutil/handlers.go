package webutil

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coreybb/recipes/common"
)

// AppHandler represents a handler function that returns an error.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// MakeHandler adapts an AppHandler to the standard http.HandlerFunc signature.
// It executes the AppHandler and handles any returned error by logging appropriately
// and sending a standardized JSON error response.
func MakeHandler(handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err != nil {
			WriteError(w, r, err)
		}
		// If err is nil, the handler is assumed to have written its own successful response.
	}
}

// WriteError maps err to a status code and JSON body, logs it, and writes
// the response. Middleware that cannot return errors uses it directly.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := toHTTPError(err)

	logLevel := slog.LevelWarn // Treat client errors as warnings server-side
	if httpErr.Code >= 500 {
		logLevel = slog.LevelError
	}
	attrs := []any{"code", httpErr.Code, "msg", httpErr.Message, "path", r.URL.Path, "method", r.Method}
	// Log the underlying cause if present and different from the public message
	if cause := errors.Unwrap(httpErr); cause != nil && cause.Error() != httpErr.Message {
		attrs = append(attrs, "cause", cause)
	}
	slog.Log(r.Context(), logLevel, "Error response", attrs...)

	// Check if response headers have already been written by the handler
	// (which shouldn't happen if errors are returned correctly).
	if HasResponseWriterSentHeader(w) {
		slog.Warn("Handler returned error after writing response header",
			"path", r.URL.Path,
			"method", r.Method,
			"error", err,
		)
		return
	}

	RespondWithJSON(w, httpErr.Code, ErrorBody{Error: httpErr.Message, Fields: httpErr.Fields})
}

// toHTTPError translates domain errors into their HTTP form. Anything it
// does not recognize becomes a 500 with a generic message.
func toHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	var verr *common.ValidationError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.As(err, &verr):
		e := NewHTTPErrorWrap(http.StatusBadRequest, msgBadRequest, err)
		e.Fields = verr.Fields
		return e
	case errors.As(err, &maxErr):
		return ErrRequestTooLarge(err)
	case errors.Is(err, common.ErrInvalidCredentials):
		e := NewHTTPErrorWrap(http.StatusBadRequest, common.ErrInvalidCredentials.Error(), err)
		e.Fields = map[string][]string{"non_field_errors": {common.ErrInvalidCredentials.Error()}}
		return e
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return ErrUnauthorizedWrap("Invalid token.", err)
	case errors.Is(err, common.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return ErrNotFoundWrap("", err)
	default:
		return NewHTTPErrorWrap(http.StatusInternalServerError, msgInternalServer, err)
	}
}
