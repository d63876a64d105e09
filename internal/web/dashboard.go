package web

import (
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"campuscal/internal/calendar"
	"campuscal/internal/model"
	"campuscal/internal/planner"
	"campuscal/internal/synth"
)

type adminStats struct {
	Courses  int `json:"courses"`
	Teachers int `json:"teachers"`
	Students int `json:"students"`
}

type dashboardResponse struct {
	Greeting string               `json:"greeting"`
	Date     string               `json:"date"`
	Today    []eventResponse      `json:"today"`
	Upcoming []synth.Assignment   `json:"upcoming"`
	Courses  []planner.CourseCard `json:"courses"`
	Stats    *adminStats          `json:"stats,omitempty"`
}

// handleDashboard serves the landing page of the signed-in role: today's
// events, upcoming assignments (students) and one card per course.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ctx := r.Context()
	today := s.today()

	key := fmt.Sprintf("%d|%s|dashboard|%s", sess.User.ID, sess.Role(), calendar.DayKey(today))
	if v, ok := s.cache.get(key, s.now()); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	courses, err := s.backend.CoursesFor(ctx, sess)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if courses == nil {
		courses = []model.Course{}
	}

	var cal planner.Calendar
	if sess.Role() == model.RoleTeacher {
		cal, err = s.teacherCalendar(ctx, sess, courses)
	} else {
		cal, err = s.monthCalendar(ctx, sess, courses, today.Year(), today.Month())
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := dashboardResponse{
		Greeting: "Welcome back, " + sess.User.Name,
		Date:     today.Format("Monday, 2 January 2006"),
		Today:    eventViews(calendar.OnDay(cal.Events, today)),
		Upcoming: []synth.Assignment{},
		Courses:  s.planner.CourseCards(courses, today),
	}

	switch sess.Role() {
	case model.RoleStudent:
		resp.Upcoming = s.planner.Upcoming(courses, today)
	case model.RoleAdmin:
		stats := &adminStats{Courses: len(courses)}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			teachers, err := s.backend.Teachers(gctx, sess)
			stats.Teachers = len(teachers)
			return err
		})
		g.Go(func() error {
			students, err := s.backend.Students(gctx, sess)
			stats.Students = len(students)
			return err
		})
		if err := g.Wait(); err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Stats = stats
	}

	s.cache.put(key, resp, s.now())
	writeJSON(w, http.StatusOK, resp)
}
