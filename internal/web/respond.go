package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"campuscal/internal/backend"
	appLog "campuscal/internal/log"
	"campuscal/internal/session"
	"campuscal/internal/store"
	"campuscal/internal/validate"
)

// errBadRequest marks malformed query parameters and bodies.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error  string                `json:"error"`
	Fields []validate.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail maps err to a status code and writes it. A 401 from the backend
// signs the user out.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validate.Error
	var rerr *backend.RequestError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, backend.ErrUnauthorized):
		appLog.Warn("backend rejected session, signing out", "path", r.URL.Path)
		if cerr := s.sessions.Clear(); cerr != nil {
			appLog.Error("session clear failed", cerr)
		}
		s.cache.invalidate()
		writeError(w, http.StatusUnauthorized, "session expired, please sign in again")
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrExpired):
		writeError(w, http.StatusUnauthorized, "not signed in")
	case errors.Is(err, session.ErrForbidden), errors.Is(err, backend.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, backend.ErrNotFound), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, errNoEventStore):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &rerr):
		appLog.Error("backend request failed", err, "path", r.URL.Path)
		writeError(w, http.StatusBadGateway, backend.MessageOf(err))
	default:
		appLog.Error("request failed", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// parseDate reads a YYYY-MM-DD query value in loc; empty means def.
func parseDate(v string, loc *time.Location, def time.Time) (time.Time, error) {
	if v == "" {
		return def, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", errBadRequest, v)
	}
	return t, nil
}

func pathID(r *http.Request) (int64, error) {
	v := r.PathValue("id")
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", errBadRequest, v)
	}
	return id, nil
}
