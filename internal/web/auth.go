package web

import (
	"errors"
	"net/http"
	"time"

	"campuscal/internal/backend"
	"campuscal/internal/model"
	"campuscal/internal/session"
	"campuscal/internal/validate"
)

type sessionResponse struct {
	User      model.User       `json:"user"`
	Role      model.Role       `json:"role"`
	Menu      []model.MenuItem `json:"menu"`
	ExpiresAt time.Time        `json:"expiresAt,omitzero"`
	ExpiresIn int64            `json:"expiresInSeconds"`
}

func (s *Server) sessionView(sess session.Session) sessionResponse {
	u := sess.User
	u.Token = ""
	return sessionResponse{
		User:      u,
		Role:      sess.Role(),
		Menu:      model.Menu(sess.Role()),
		ExpiresAt: sess.ExpiresAt,
		ExpiresIn: int64(sess.ExpiresIn(s.now()) / time.Second),
	}
}

// handleLogin authenticates against the backend and starts the session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form validate.LoginForm
	if err := decodeJSON(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validate.Struct(form); err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.backend.Login(r.Context(), form.ToRequest())
	if err != nil {
		var rerr *backend.RequestError
		if errors.As(err, &rerr) && (rerr.StatusCode == http.StatusBadRequest || rerr.StatusCode == http.StatusUnauthorized) {
			writeError(w, http.StatusUnauthorized, backend.MessageOf(err))
			return
		}
		s.fail(w, r, err)
		return
	}
	if user.Role == "" {
		writeError(w, http.StatusForbidden, "unsupported account role")
		return
	}

	sess, err := s.sessions.Start(user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cache.invalidate()
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Clear(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.cache.invalidate()
	w.WriteHeader(http.StatusNoContent)
}
