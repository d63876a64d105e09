package web

import (
	"cmp"
	"context"
	"net/http"
	"strings"

	"campuscal/internal/calendar"
	"campuscal/internal/listing"
	appLog "campuscal/internal/log"
	"campuscal/internal/model"
	"campuscal/internal/session"
	"campuscal/internal/validate"
)

type slotView struct {
	Day  string `json:"day"`
	Time string `json:"time"`
	Room string `json:"room,omitempty"`
}

type courseRow struct {
	model.Course
	TeacherName string     `json:"teacherName,omitempty"`
	Slots       []slotView `json:"slots"`
}

func courseView(c model.Course, teachers map[string]model.Teacher) courseRow {
	row := courseRow{Course: c, Slots: make([]slotView, 0, len(c.Schedules))}
	if t, ok := teachers[c.TeacherID]; ok {
		row.TeacherName = t.Name
	}
	for _, sc := range c.Schedules {
		row.Slots = append(row.Slots, slotView{
			Day:  calendar.DayTitle(string(sc.Day)),
			Time: calendar.FormatClock(sc.StartTime) + " - " + calendar.FormatClock(sc.EndTime),
			Room: sc.Room,
		})
	}
	return row
}

var courseSorts = map[string]func(a, b courseRow) int{
	"code":    func(a, b courseRow) int { return cmp.Compare(a.Code, b.Code) },
	"name":    func(a, b courseRow) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"teacher": func(a, b courseRow) int { return cmp.Compare(strings.ToLower(a.TeacherName), strings.ToLower(b.TeacherName)) },
}

// sortKey splits "-name" into ("name", true).
func sortKey(v, def string) (string, bool) {
	if v == "" {
		return def, false
	}
	if strings.HasPrefix(v, "-") {
		return v[1:], true
	}
	return v, false
}

// paged filters, sorts and paginates rows according to q, sort, page and
// size query parameters.
func paged[T any](r *http.Request, rows []T, match func(T, string) bool, sorts map[string]func(a, b T) int, def string) listing.Page[T] {
	q := r.URL.Query()
	query := q.Get("q")
	rows = listing.Filter(rows, func(row T) bool { return match(row, query) })

	key, desc := sortKey(q.Get("sort"), def)
	less, ok := sorts[key]
	if !ok {
		less = sorts[def]
	}
	if desc {
		less = listing.Desc(less)
	}
	rows = listing.SortBy(rows, less)

	return listing.Paginate(rows, parseIntDefault(q.Get("page"), 1), parseIntDefault(q.Get("size"), listing.DefaultSize))
}

// teacherNames resolves the teacher of every course. Lookup failures other
// than an expired session leave names empty.
func (s *Server) teacherNames(ctx context.Context, sess session.Session, courses []model.Course) (map[string]model.Teacher, error) {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.TeacherID)
	}
	return s.backend.TeacherDirectory(ctx, sess, ids)
}

// handleCourses lists the courses visible to the signed-in user.
//
// GET /api/courses?q=cs&sort=-code&page=1&size=10
func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	courses, err := s.backend.CoursesFor(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	teachers, err := s.teacherNames(r.Context(), sess, courses)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rows := make([]courseRow, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, courseView(c, teachers))
	}
	match := func(row courseRow, q string) bool {
		return listing.Contains(q, row.Code, row.Name, row.Description, row.TeacherName)
	}
	writeJSON(w, http.StatusOK, paged(r, rows, match, courseSorts, "code"))
}

func (s *Server) handleCourse(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.backend.Course(r.Context(), sess, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	teachers, err := s.teacherNames(r.Context(), sess, []model.Course{c})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courseView(c, teachers))
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Require(model.RoleAdmin, model.RoleTeacher)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var form validate.CourseForm
	if err := decodeJSON(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validate.Struct(form); err != nil {
		s.fail(w, r, err)
		return
	}

	c, err := s.backend.CreateCourse(r.Context(), sess, form.ToRequest())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cache.invalidate()
	appLog.Info("course created", "id", c.ID, "code", c.Code, "by", sess.User.ID)
	writeJSON(w, http.StatusCreated, courseView(c, nil))
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Require(model.RoleAdmin, model.RoleTeacher)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var form validate.CourseForm
	if err := decodeJSON(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validate.Struct(form); err != nil {
		s.fail(w, r, err)
		return
	}

	c, err := s.backend.UpdateCourse(r.Context(), sess, id, form.ToRequest())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cache.invalidate()
	appLog.Info("course updated", "id", c.ID, "code", c.Code, "by", sess.User.ID)
	writeJSON(w, http.StatusOK, courseView(c, nil))
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Require(model.RoleAdmin, model.RoleTeacher)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.backend.DeleteCourse(r.Context(), sess, id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.cache.invalidate()
	appLog.Info("course deleted", "id", id, "by", sess.User.ID)
	w.WriteHeader(http.StatusNoContent)
}

