package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the backend rejected the token, or there was
	// none. Callers clear the session.
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrForbidden is a 403: the token is valid but lacks the role.
	ErrForbidden = errors.New("backend: forbidden")
	// ErrNotFound is a 404 from the backend.
	ErrNotFound = errors.New("backend: not found")
)

// RequestError describes a failed backend call: a network error, a non-2xx
// status or an envelope with success=false. Message carries the backend's
// human-readable message when there is one.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, msg)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// MessageOf returns the human-readable message of err for display.
func MessageOf(err error) string {
	var re *RequestError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func isUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
