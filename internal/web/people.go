package web

import (
	"cmp"
	"errors"
	"net/http"
	"strings"

	"campuscal/internal/backend"
	"campuscal/internal/listing"
	appLog "campuscal/internal/log"
	"campuscal/internal/model"
	"campuscal/internal/session"
	"campuscal/internal/validate"
)

var teacherSorts = map[string]func(a, b model.Teacher) int{
	"name":       func(a, b model.Teacher) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"email":      func(a, b model.Teacher) int { return cmp.Compare(a.Email, b.Email) },
	"teacherId":  func(a, b model.Teacher) int { return cmp.Compare(a.TeacherID, b.TeacherID) },
	"department": func(a, b model.Teacher) int { return cmp.Compare(a.Department, b.Department) },
}

var studentSorts = map[string]func(a, b model.Student) int{
	"name":      func(a, b model.Student) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"email":     func(a, b model.Student) int { return cmp.Compare(a.Email, b.Email) },
	"studentId": func(a, b model.Student) int { return cmp.Compare(a.StudentID, b.StudentID) },
	"program":   func(a, b model.Student) int { return cmp.Compare(a.Program, b.Program) },
	"year":      func(a, b model.Student) int { return cmp.Compare(a.Year, b.Year) },
}

// GET /api/teachers?q=&sort=&page=&size=
func (s *Server) handleTeachers(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Require(model.RoleAdmin)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	teachers, err := s.backend.Teachers(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	match := func(t model.Teacher, q string) bool {
		return listing.Contains(q, t.Name, t.Email, t.TeacherID, t.Department)
	}
	writeJSON(w, http.StatusOK, paged(r, teachers, match, teacherSorts, "name"))
}

// GET /api/students?q=&sort=&page=&size=
func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Require(model.RoleAdmin, model.RoleTeacher)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	students, err := s.backend.Students(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	match := func(st model.Student, q string) bool {
		return listing.Contains(q, st.Name, st.Email, st.StudentID, st.Program)
	}
	writeJSON(w, http.StatusOK, paged(r, students, match, studentSorts, "name"))
}

func (s *Server) handleRegisterTeacher(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.Require(model.RoleAdmin); err != nil {
		s.fail(w, r, err)
		return
	}
	var form validate.TeacherForm
	if err := decodeJSON(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validate.Struct(form); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.backend.RegisterTeacher(r.Context(), form.ToRequest())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	appLog.Info("teacher registered", "id", t.ID, "teacher_id", t.TeacherID)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.Require(model.RoleAdmin); err != nil {
		s.fail(w, r, err)
		return
	}
	var form validate.StudentForm
	if err := decodeJSON(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validate.Struct(form); err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.backend.RegisterStudent(r.Context(), form.ToRequest())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	appLog.Info("student registered", "id", st.ID, "student_id", st.StudentID)
	writeJSON(w, http.StatusCreated, st)
}

// splitName splits "Ada King Lovelace" into ("Ada", "King Lovelace").
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// updateSelf rewrites the signed-in teacher or student record. The
// backend takes the full registration body, so the current record fills
// the fields the form does not carry.
func (s *Server) updateSelf(r *http.Request, sess session.Session, name, email, password string) (model.User, error) {
	ctx := r.Context()
	first, last := splitName(name)
	u := sess.User
	u.Name = strings.TrimSpace(name)
	u.Email = strings.TrimSpace(email)

	switch sess.Role() {
	case model.RoleTeacher:
		t, err := s.backend.Teacher(ctx, sess, sess.User.ID)
		if err != nil {
			return model.User{}, err
		}
		_, err = s.backend.UpdateTeacher(ctx, sess, t.ID, backend.TeacherRequest{
			FirstName:  first,
			LastName:   last,
			Email:      u.Email,
			Password:   password,
			TeacherID:  t.TeacherID,
			Department: t.Department,
		})
		return u, err
	case model.RoleStudent:
		st, err := s.backend.Student(ctx, sess, sess.User.ID)
		if err != nil {
			return model.User{}, err
		}
		_, err = s.backend.UpdateStudent(ctx, sess, st.ID, backend.StudentRequest{
			FirstName: first,
			LastName:  last,
			Email:     u.Email,
			Password:  password,
			StudentID: st.StudentID,
			Program:   st.Program,
			Year:      st.Year,
		})
		return u, err
	default:
		return model.User{}, session.ErrForbidden
	}
}

// handleUpdateProfile changes the signed-in user's name and email.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Require(model.RoleTeacher, model.RoleStudent)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var form validate.ProfileForm
	if err := decodeJSON(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validate.Struct(form); err != nil {
		s.fail(w, r, err)
		return
	}

	u, err := s.updateSelf(r, sess, form.Name, form.Email, "")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := s.sessions.Start(u)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cache.invalidate()
	writeJSON(w, http.StatusOK, s.sessionView(updated))
}

// handleChangePassword re-authenticates with the current password before
// sending the new one.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Require(model.RoleTeacher, model.RoleStudent)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var form validate.PasswordForm
	if err := decodeJSON(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validate.Struct(form); err != nil {
		s.fail(w, r, err)
		return
	}

	if _, err := s.backend.Login(r.Context(), backend.LoginRequest{Email: sess.User.Email, Password: form.CurrentPassword}); err != nil {
		var rerr *backend.RequestError
		if errors.As(err, &rerr) && (rerr.StatusCode == http.StatusBadRequest || rerr.StatusCode == http.StatusUnauthorized) {
			s.fail(w, r, &validate.Error{Fields: []validate.FieldError{{Field: "currentPassword", Message: "Current password is incorrect"}}})
			return
		}
		s.fail(w, r, err)
		return
	}

	if _, err := s.updateSelf(r, sess, sess.User.Name, sess.User.Email, form.NewPassword); err != nil {
		s.fail(w, r, err)
		return
	}
	appLog.Info("password changed", "user_id", sess.User.ID)
	w.WriteHeader(http.StatusNoContent)
}
