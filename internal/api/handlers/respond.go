package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/models"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

var errorStatuses = []struct {
	sentinel error
	status   int
	fallback string
}{
	{models.ErrInvalidArgument, http.StatusBadRequest, "Invalid request"},
	{models.ErrConflict, http.StatusBadRequest, "Conflicting request"},
	{models.ErrUnauthenticated, http.StatusUnauthorized, "Authentication required"},
	{models.ErrForbidden, http.StatusForbidden, "Access denied"},
	{models.ErrNotFound, http.StatusNotFound, "Not found"},
}

// StatusFor maps an error onto the HTTP status it is answered with.
func StatusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.sentinel) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// clientMessage returns the text shown to the client. Details of internal
// failures stay in the log.
func clientMessage(err error, internal string) string {
	for _, e := range errorStatuses {
		if !errors.Is(err, e.sentinel) {
			continue
		}
		msg := err.Error()
		if i := strings.Index(msg, e.sentinel.Error()+": "); i >= 0 {
			msg = msg[i+len(e.sentinel.Error())+2:]
		}
		if msg == "" || msg == e.sentinel.Error() {
			msg = e.fallback
		}
		return strings.ToUpper(msg[:1]) + msg[1:]
	}
	return internal
}

// writeError logs err and answers with its status and a JSON message.
// internal is the message used for 500s.
func writeError(w http.ResponseWriter, r *http.Request, err error, internal string, fields map[string]string) {
	status := StatusFor(err)

	var event *zerolog.Event
	if status >= http.StatusInternalServerError {
		event = log.Error()
	} else {
		event = log.Warn()
	}
	for k, v := range fields {
		if v != "" {
			event = event.Str(k, v)
		}
	}
	event.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Msg(internal)

	writeJSON(w, status, ErrorResponse{Message: clientMessage(err, internal)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// requireCaller answers 401 and returns false for anonymous callers. Handlers
// that read a body call it first so a bad body never hides a missing session.
func requireCaller(w http.ResponseWriter, r *http.Request, caller access.Caller, internal string, fields map[string]string) bool {
	if caller.Authenticated() {
		return true
	}
	writeError(w, r, models.ErrUnauthenticated, internal, fields)
	return false
}

// decode reads a JSON body into v. A malformed body is an invalid argument.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", models.ErrInvalidArgument)
	}
	return nil
}
