package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"campuscal/internal/calendar"
	"campuscal/internal/ics"
	appLog "campuscal/internal/log"
	"campuscal/internal/model"
	"campuscal/internal/validate"
)

var errNoEventStore = errors.New("local events are not enabled")

type importResponse struct {
	Imported  int      `json:"imported"`
	Truncated []string `json:"truncated,omitempty"`
	Invalid   int      `json:"invalid"`
}

// handleCreateEvent adds a personal event for the signed-in user.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if s.events == nil {
		s.fail(w, r, errNoEventStore)
		return
	}

	var form validate.EventForm
	if err := decodeJSON(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validate.Struct(form); err != nil {
		s.fail(w, r, err)
		return
	}
	ev, err := form.ToEvent(s.cfg.Location())
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	created, err := s.events.Create(r.Context(), sess.User.ID, ev)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cache.invalidate()
	appLog.Info("local event created", "user_id", sess.User.ID, "id", created.ID, "type", created.Type)
	writeJSON(w, http.StatusCreated, eventResponse{CalendarEvent: created, Time: calendar.TimeRange(created)})
}

// handleDeleteEvent removes one of the user's own events.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if s.events == nil {
		s.fail(w, r, errNoEventStore)
		return
	}
	if err := s.events.Delete(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.cache.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// handleImportEvents reads an iCalendar body and stores its occurrences
// between from and to (default: today and one year later).
//
// POST /api/events/import?from=2025-05-01&to=2025-08-31
func (s *Server) handleImportEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if s.events == nil {
		s.fail(w, r, errNoEventStore)
		return
	}

	loc := s.cfg.Location()
	today := s.today()
	q := r.URL.Query()
	from, err := parseDate(q.Get("from"), loc, today)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := parseDate(q.Get("to"), loc, from.AddDate(1, 0, 0))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	res, err := ics.Import(body, ics.ImportConfig{
		Location:    loc,
		From:        from,
		To:          to,
		DefaultType: model.EventMeeting,
	})
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	n, err := s.events.CreateAll(r.Context(), sess.User.ID, res.Events)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cache.invalidate()
	appLog.Info("calendar imported", "user_id", sess.User.ID, "events", n, "invalid", res.Invalid, "truncated", len(res.Truncated))
	writeJSON(w, http.StatusOK, importResponse{Imported: n, Truncated: res.Truncated, Invalid: res.Invalid})
}
