package web

// errors.go turns handler errors into responses.
//
// The technical error is logged with the request ID; the client receives the
// mapped user message (core.MapError) as JSON, or as an HTML fragment for
// HTMX requests. The status code follows the error's sentinel.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/returnsdesk/internal/core"
	"github.com/JonMunkholm/returnsdesk/internal/logging"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
	"github.com/JonMunkholm/returnsdesk/internal/session"
	"github.com/JonMunkholm/returnsdesk/internal/sheet"
	"github.com/JonMunkholm/returnsdesk/internal/store"
	"github.com/JonMunkholm/returnsdesk/internal/web/templates"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var (
	errBadRequest  = errors.New("malformed request body")
	errNoHistory   = fmt.Errorf("%w: history is not available", store.ErrImportNotFound)
	errRateLimited = core.MapError(errors.New("rate limit exceeded"))
)

// statusFor picks the HTTP status for an error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, schema.ErrUnknownRecordType),
		errors.Is(err, store.ErrImportNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrSessionFailed),
		errors.Is(err, store.ErrAlreadyRolledBack):
		return http.StatusConflict
	case errors.Is(err, sheet.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, sheet.ErrUnreadable),
		errors.Is(err, sheet.ErrNoWorksheets),
		errors.Is(err, sheet.ErrNoDataRows),
		errors.Is(err, session.ErrUnknownField),
		errors.Is(err, session.ErrUnknownColumn),
		errors.Is(err, session.ErrFieldConflict),
		errors.Is(err, session.ErrNothingToImport),
		errors.Is(err, core.ErrNilRow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sheet.ErrNoFile),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrTooManyParses):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= 500 {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if status == http.StatusServiceUnavailable || status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "5")
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			slog.Error("render error alert", "error", err)
		}
		return
	}
	respondErrorJSON(w, msg, status)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody(msg))
}

func errorBody(msg core.UserMessage) ErrorResponse {
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
