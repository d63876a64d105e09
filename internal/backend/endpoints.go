package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"campuscal/internal/model"
	"campuscal/internal/session"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StudentRequest registers or updates a student.
type StudentRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	StudentID string `json:"studentId"`
	Program   string `json:"program"`
	Year      string `json:"year"`
}

// TeacherRequest registers or updates a teacher.
type TeacherRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Password   string `json:"password,omitempty"`
	TeacherID  string `json:"teacherId"`
	Department string `json:"department"`
}

// ScheduleRequest is one weekly slot in a CourseRequest.
type ScheduleRequest struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Room      string `json:"room"`
}

// CourseRequest creates or updates a course.
type CourseRequest struct {
	Name        string            `json:"name"`
	Code        string            `json:"code"`
	Description string            `json:"description"`
	TeacherID   string            `json:"teacherId"`
	Schedules   []ScheduleRequest `json:"schedules,omitempty"`
}

// Login authenticates against the backend. The returned user carries the
// bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (model.User, error) {
	u, err := send[model.User](ctx, c, "", http.MethodPost, "login", "/auth/login", req)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.ParseRole(string(u.Role))
	return u, nil
}

func (c *Client) RegisterStudent(ctx context.Context, req StudentRequest) (model.Student, error) {
	return send[model.Student](ctx, c, "", http.MethodPost, "register_student", "/auth/register/student", req)
}

func (c *Client) RegisterTeacher(ctx context.Context, req TeacherRequest) (model.Teacher, error) {
	return send[model.Teacher](ctx, c, "", http.MethodPost, "register_teacher", "/auth/register/teacher", req)
}

// Courses lists every course.
func (c *Client) Courses(ctx context.Context, s session.Session) ([]model.Course, error) {
	return get[[]model.Course](ctx, c, s, "courses", "/courses")
}

func (c *Client) Course(ctx context.Context, s session.Session, id int64) (model.Course, error) {
	return get[model.Course](ctx, c, s, "course", fmt.Sprintf("/courses/%d", id))
}

func (c *Client) CourseByCode(ctx context.Context, s session.Session, code string) (model.Course, error) {
	return get[model.Course](ctx, c, s, "course_by_code", "/courses/code/"+url.PathEscape(code))
}

// TeacherCourses lists the courses assigned to a teacher.
func (c *Client) TeacherCourses(ctx context.Context, s session.Session, teacherID int64) ([]model.Course, error) {
	return get[[]model.Course](ctx, c, s, "teacher_courses", fmt.Sprintf("/courses/teacher/%d", teacherID))
}

// StudentCourses returns the student profile with its enrolled courses.
func (c *Client) StudentCourses(ctx context.Context, s session.Session, studentID int64) ([]model.Course, error) {
	st, err := get[model.Student](ctx, c, s, "student_courses", fmt.Sprintf("/students/%d/courses", studentID))
	if err != nil {
		return nil, err
	}
	if st.EnrolledCourses == nil {
		return []model.Course{}, nil
	}
	return st.EnrolledCourses, nil
}

func (c *Client) CreateCourse(ctx context.Context, s session.Session, req CourseRequest) (model.Course, error) {
	if s.Token == "" {
		return model.Course{}, ErrUnauthorized
	}
	return send[model.Course](ctx, c, s.Token, http.MethodPost, "create_course", "/courses", req)
}

func (c *Client) UpdateCourse(ctx context.Context, s session.Session, id int64, req CourseRequest) (model.Course, error) {
	if s.Token == "" {
		return model.Course{}, ErrUnauthorized
	}
	return send[model.Course](ctx, c, s.Token, http.MethodPut, "update_course", fmt.Sprintf("/courses/%d", id), req)
}

func (c *Client) DeleteCourse(ctx context.Context, s session.Session, id int64) error {
	if s.Token == "" {
		return ErrUnauthorized
	}
	_, err := send[any](ctx, c, s.Token, http.MethodDelete, "delete_course", fmt.Sprintf("/courses/%d", id), nil)
	return err
}

func (c *Client) Teachers(ctx context.Context, s session.Session) ([]model.Teacher, error) {
	return get[[]model.Teacher](ctx, c, s, "teachers", "/teachers")
}

func (c *Client) Teacher(ctx context.Context, s session.Session, id int64) (model.Teacher, error) {
	return get[model.Teacher](ctx, c, s, "teacher", fmt.Sprintf("/teachers/%d", id))
}

// TeacherByCode looks a teacher up by the institutional id, e.g. "T1001".
func (c *Client) TeacherByCode(ctx context.Context, s session.Session, teacherID string) (model.Teacher, error) {
	return get[model.Teacher](ctx, c, s, "teacher_by_code", "/teachers/teacherId/"+url.PathEscape(teacherID))
}

func (c *Client) UpdateTeacher(ctx context.Context, s session.Session, id int64, req TeacherRequest) (model.Teacher, error) {
	if s.Token == "" {
		return model.Teacher{}, ErrUnauthorized
	}
	return send[model.Teacher](ctx, c, s.Token, http.MethodPut, "update_teacher", fmt.Sprintf("/teachers/%d", id), req)
}

func (c *Client) Students(ctx context.Context, s session.Session) ([]model.Student, error) {
	return get[[]model.Student](ctx, c, s, "students", "/students")
}

func (c *Client) Student(ctx context.Context, s session.Session, id int64) (model.Student, error) {
	return get[model.Student](ctx, c, s, "student", fmt.Sprintf("/students/%d", id))
}

func (c *Client) UpdateStudent(ctx context.Context, s session.Session, id int64, req StudentRequest) (model.Student, error) {
	if s.Token == "" {
		return model.Student{}, ErrUnauthorized
	}
	return send[model.Student](ctx, c, s.Token, http.MethodPut, "update_student", fmt.Sprintf("/students/%d", id), req)
}

// CoursesFor returns the courses relevant to the signed-in user: assigned
// courses for teachers, enrolled courses for students, all courses for
// admins.
func (c *Client) CoursesFor(ctx context.Context, s session.Session) ([]model.Course, error) {
	switch s.Role() {
	case model.RoleTeacher:
		return c.TeacherCourses(ctx, s, s.User.ID)
	case model.RoleStudent:
		return c.StudentCourses(ctx, s, s.User.ID)
	default:
		return c.Courses(ctx, s)
	}
}
