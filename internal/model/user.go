package model

import "strings"

// Role is the account role reported by the backend.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// ParseRole normalizes a role name; unknown names yield "".
func ParseRole(s string) Role {
	r := Role(strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "ROLE_")))
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return r
	}
	return ""
}

// User is the identity returned by login and kept with the session.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Token string `json:"token"`
	Type  string `json:"type"`
}

// Teacher is the backend teacher profile.
type Teacher struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Role            Role     `json:"role,omitempty"`
	Status          string   `json:"status,omitempty"`
	TeacherID       string   `json:"teacherId"`
	Department      string   `json:"department"`
	AssignedCourses []Course `json:"assignedCourses,omitempty"`
}

// Student is the backend student profile.
type Student struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Role            Role     `json:"role,omitempty"`
	Status          string   `json:"status,omitempty"`
	StudentID       string   `json:"studentId"`
	Program         string   `json:"program"`
	Year            string   `json:"year"`
	EnrolledCourses []Course `json:"enrolledCourses,omitempty"`
}

// MenuItem is one navigation entry of the dashboard layout.
type MenuItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var menus = map[Role][]MenuItem{
	RoleAdmin: {
		{"Dashboard", "/dashboard/admin"},
		{"Courses", "/dashboard/admin/courses"},
		{"Teachers", "/dashboard/admin/teachers"},
		{"Students", "/dashboard/admin/students"},
		{"Profile", "/dashboard/admin/profile"},
		{"Settings", "/dashboard/admin/settings"},
	},
	RoleTeacher: {
		{"Dashboard", "/dashboard/teacher"},
		{"Courses", "/dashboard/teacher/courses"},
		{"Students", "/dashboard/teacher/students"},
		{"Calendar", "/dashboard/teacher/calendar"},
		{"Profile", "/dashboard/teacher/profile"},
	},
	RoleStudent: {
		{"Dashboard", "/dashboard/student"},
		{"Courses", "/dashboard/student/courses"},
		{"Assignments", "/student/assignments"},
		{"Calendar", "/student/calendar"},
		{"Profile", "/dashboard/student/profile"},
	},
}

// Menu returns the navigation for a role; unknown roles get none.
func Menu(r Role) []MenuItem {
	items := menus[r]
	out := make([]MenuItem, len(items))
	copy(out, items)
	return out
}
