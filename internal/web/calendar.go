package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"campuscal/internal/calendar"
	"campuscal/internal/ics"
	"campuscal/internal/model"
	"campuscal/internal/planner"
	"campuscal/internal/schedule"
	"campuscal/internal/session"
)

type dayColumn struct {
	Date    string          `json:"date"`
	Weekday string          `json:"weekday"`
	Today   bool            `json:"today,omitempty"`
	Events  []eventResponse `json:"events"`
}

type weekResponse struct {
	Label string      `json:"label"`
	From  string      `json:"from"`
	To    string      `json:"to"`
	Prev  string      `json:"prev"`
	Next  string      `json:"next"`
	Days  []dayColumn `json:"days"`
}

type monthResponse struct {
	Label   string             `json:"label"`
	Year    int                `json:"year"`
	Month   int                `json:"month"`
	Prev    string             `json:"prev"`
	Next    string             `json:"next"`
	Weeks   [][]calendar.Cell  `json:"weeks"`
	Skipped []schedule.Skipped `json:"skipped,omitempty"`
}

type dayResponse struct {
	Date   string          `json:"date"`
	Title  string          `json:"title"`
	Prev   string          `json:"prev"`
	Next   string          `json:"next"`
	Events []eventResponse `json:"events"`
}

// eventResponse adds the display time range to an event.
type eventResponse struct {
	model.CalendarEvent
	Time string `json:"time"`
}

func eventViews(events []model.CalendarEvent) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, eventResponse{CalendarEvent: ev, Time: calendar.TimeRange(ev)})
	}
	return out
}

func (s *Server) today() time.Time {
	return s.cfg.Today(s.now())
}

// localEvents returns the user's stored events in [from, to).
func (s *Server) localEvents(ctx context.Context, sess session.Session, from, to time.Time) ([]model.CalendarEvent, error) {
	if s.events == nil {
		return nil, nil
	}
	return s.events.ListByRange(ctx, sess.User.ID, from, to, s.cfg.Location())
}

func (s *Server) coursesOf(ctx context.Context, sess session.Session, courses []model.Course) ([]model.Course, error) {
	if courses != nil {
		return courses, nil
	}
	return s.backend.CoursesFor(ctx, sess)
}

// teacherCalendar builds the lecture calendar anchored at today.
// A nil courses slice is fetched from the backend.
func (s *Server) teacherCalendar(ctx context.Context, sess session.Session, courses []model.Course) (planner.Calendar, error) {
	courses, err := s.coursesOf(ctx, sess, courses)
	if err != nil {
		return planner.Calendar{}, err
	}
	today := s.today()
	from, to := schedule.WeeksFrom(today, s.cfg.TeacherWeeks).Range()
	local, err := s.localEvents(ctx, sess, from, to)
	if err != nil {
		return planner.Calendar{}, err
	}
	return s.planner.Teacher(courses, today, local), nil
}

// monthCalendar builds the role's calendar for one month.
func (s *Server) monthCalendar(ctx context.Context, sess session.Session, courses []model.Course, year int, month time.Month) (planner.Calendar, error) {
	courses, err := s.coursesOf(ctx, sess, courses)
	if err != nil {
		return planner.Calendar{}, err
	}
	loc := s.cfg.Location()
	from, to := schedule.MonthOf(year, month, loc).Range()
	local, err := s.localEvents(ctx, sess, from, to)
	if err != nil {
		return planner.Calendar{}, err
	}
	return s.planner.Month(sess.Role(), courses, year, month, loc, s.today(), local), nil
}

// handleWeek serves the teacher week view.
//
// GET /api/calendar/week?date=2025-05-19
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Require(model.RoleTeacher)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	today := s.today()
	date, err := parseDate(r.URL.Query().Get("date"), s.cfg.Location(), today)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	first := s.cfg.WeekStartDay()
	dates := calendar.WeekDates(date, first)
	key := fmt.Sprintf("%d|week|%s", sess.User.ID, calendar.DayKey(dates[0]))
	if v, ok := s.cache.get(key, s.now()); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	cal, err := s.teacherCalendar(r.Context(), sess, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	weekEnd := dates[6].AddDate(0, 0, 1)
	inWeek := make([]model.CalendarEvent, 0)
	for _, ev := range cal.Events {
		if !ev.Start.Before(dates[0]) && ev.Start.Before(weekEnd) {
			inWeek = append(inWeek, ev)
		}
	}
	columns := calendar.ByWeekday(inWeek)

	resp := weekResponse{
		Label: calendar.WeekLabel(date, first),
		From:  calendar.DayKey(dates[0]),
		To:    calendar.DayKey(dates[6]),
		Prev:  calendar.DayKey(calendar.Shift(dates[0], calendar.ViewWeek, -1)),
		Next:  calendar.DayKey(calendar.Shift(dates[0], calendar.ViewWeek, 1)),
		Days:  make([]dayColumn, 0, 7),
	}
	for _, d := range dates {
		resp.Days = append(resp.Days, dayColumn{
			Date:    calendar.DayKey(d),
			Weekday: d.Weekday().String(),
			Today:   calendar.SameDay(d, today),
			Events:  eventViews(columns[d.Weekday()]),
		})
	}

	s.cache.put(key, resp, s.now())
	writeJSON(w, http.StatusOK, resp)
}

// handleMonth serves the month grid for the signed-in role.
//
// GET /api/calendar/month?year=2025&month=5
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	today := s.today()
	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), today.Year())
	month := parseIntDefault(q.Get("month"), int(today.Month()))
	if month < 1 || month > 12 || year < 1 || year > 9999 {
		s.fail(w, r, fmt.Errorf("%w: year %d month %d", errBadRequest, year, month))
		return
	}

	key := fmt.Sprintf("%d|%s|month|%04d-%02d", sess.User.ID, sess.Role(), year, month)
	if v, ok := s.cache.get(key, s.now()); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	cal, err := s.monthCalendar(r.Context(), sess, nil, year, time.Month(month))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.cfg.Location())
	prev := calendar.Shift(first, calendar.ViewMonth, -1)
	next := calendar.Shift(first, calendar.ViewMonth, 1)
	resp := monthResponse{
		Label:   calendar.MonthLabel(first),
		Year:    year,
		Month:   month,
		Prev:    prev.Format("2006-01"),
		Next:    next.Format("2006-01"),
		Weeks:   calendar.MonthGrid(first, s.cfg.WeekStartDay(), cal.Events, today),
		Skipped: cal.Skipped,
	}

	s.cache.put(key, resp, s.now())
	writeJSON(w, http.StatusOK, resp)
}

// handleDay lists the events of one day.
//
// GET /api/calendar/day?date=2025-05-19
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	date, err := parseDate(r.URL.Query().Get("date"), s.cfg.Location(), s.today())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var cal planner.Calendar
	if sess.Role() == model.RoleTeacher {
		cal, err = s.teacherCalendar(r.Context(), sess, nil)
	} else {
		cal, err = s.monthCalendar(r.Context(), sess, nil, date.Year(), date.Month())
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dayResponse{
		Date:   calendar.DayKey(date),
		Title:  date.Format("Monday, 2 January 2006"),
		Prev:   calendar.DayKey(calendar.Shift(date, calendar.ViewDay, -1)),
		Next:   calendar.DayKey(calendar.Shift(date, calendar.ViewDay, 1)),
		Events: eventViews(calendar.OnDay(cal.Events, date)),
	})
}

// handleICS exports the active calendar: the lecture window for teachers,
// the requested (or current) month for everyone else.
//
// GET /api/calendar.ics?year=2025&month=5
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var cal planner.Calendar
	if sess.Role() == model.RoleTeacher {
		cal, err = s.teacherCalendar(r.Context(), sess, nil)
	} else {
		today := s.today()
		q := r.URL.Query()
		year := parseIntDefault(q.Get("year"), today.Year())
		month := parseIntDefault(q.Get("month"), int(today.Month()))
		if month < 1 || month > 12 {
			s.fail(w, r, fmt.Errorf("%w: month %d", errBadRequest, month))
			return
		}
		cal, err = s.monthCalendar(r.Context(), sess, nil, year, time.Month(month))
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	body, err := ics.Export("campuscal - "+sess.User.Name, cal.Events, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="campuscal.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
