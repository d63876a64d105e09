package validate

import (
	"strings"
	"time"

	"campuscal/internal/backend"
	"campuscal/internal/model"
	"campuscal/internal/schedule"
)

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (f LoginForm) ToRequest() backend.LoginRequest {
	return backend.LoginRequest{Email: strings.TrimSpace(f.Email), Password: f.Password}
}

// ScheduleForm is one weekly slot of a CourseForm.
type ScheduleForm struct {
	Day       string `json:"day" validate:"required,weekday"`
	StartTime string `json:"startTime" validate:"required,clock"`
	EndTime   string `json:"endTime" validate:"required,clock"`
	Room      string `json:"room"`
}

// CourseForm creates or edits a course.
type CourseForm struct {
	Name        string         `json:"name" validate:"notblank"`
	Code        string         `json:"code" validate:"required,coursecode"`
	Description string         `json:"description" validate:"notblank"`
	TeacherID   string         `json:"teacherId" validate:"notblank"`
	Schedules   []ScheduleForm `json:"schedules" validate:"dive"`
}

// ToRequest normalizes days to the backend enum and times to HH:MM:SS.
func (f CourseForm) ToRequest() backend.CourseRequest {
	req := backend.CourseRequest{
		Name:        strings.TrimSpace(f.Name),
		Code:        strings.TrimSpace(f.Code),
		Description: strings.TrimSpace(f.Description),
		TeacherID:   strings.TrimSpace(f.TeacherID),
	}
	for _, s := range f.Schedules {
		req.Schedules = append(req.Schedules, backend.ScheduleRequest{
			Day:       strings.ToUpper(strings.TrimSpace(s.Day)),
			StartTime: canonicalClock(s.StartTime),
			EndTime:   canonicalClock(s.EndTime),
			Room:      strings.TrimSpace(s.Room),
		})
	}
	return req
}

// StudentForm registers a student.
type StudentForm struct {
	FirstName       string `json:"firstName" validate:"notblank"`
	LastName        string `json:"lastName" validate:"notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	StudentID       string `json:"studentId" validate:"required,studentid"`
	Program         string `json:"program" validate:"notblank"`
	Year            string `json:"year" validate:"notblank"`
}

func (f StudentForm) ToRequest() backend.StudentRequest {
	return backend.StudentRequest{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     strings.TrimSpace(f.Email),
		Password:  f.Password,
		StudentID: strings.TrimSpace(f.StudentID),
		Program:   strings.TrimSpace(f.Program),
		Year:      strings.TrimSpace(f.Year),
	}
}

// TeacherForm registers a teacher.
type TeacherForm struct {
	FirstName       string `json:"firstName" validate:"notblank"`
	LastName        string `json:"lastName" validate:"notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	TeacherID       string `json:"teacherId" validate:"required,teacherid"`
	Department      string `json:"department" validate:"notblank"`
}

func (f TeacherForm) ToRequest() backend.TeacherRequest {
	return backend.TeacherRequest{
		FirstName:  strings.TrimSpace(f.FirstName),
		LastName:   strings.TrimSpace(f.LastName),
		Email:      strings.TrimSpace(f.Email),
		Password:   f.Password,
		TeacherID:  strings.TrimSpace(f.TeacherID),
		Department: strings.TrimSpace(f.Department),
	}
}

// ProfileForm edits the signed-in user's own name and email.
type ProfileForm struct {
	Name  string `json:"name" validate:"notblank"`
	Email string `json:"email" validate:"required,email"`
}

// PasswordForm changes the signed-in user's password.
type PasswordForm struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// EventForm adds a personal calendar event. An empty EndTime means one
// hour after StartTime.
type EventForm struct {
	Title       string `json:"title" validate:"notblank"`
	Date        string `json:"date" validate:"required,isodate"`
	StartTime   string `json:"startTime" validate:"required,clock"`
	EndTime     string `json:"endTime" validate:"omitempty,clock"`
	Type        string `json:"type" validate:"required,eventtype"`
	Location    string `json:"location"`
	Description string `json:"description"`
	CourseCode  string `json:"courseCode" validate:"omitempty,coursecode"`
}

// ToEvent converts a validated form into an event in loc. The ID is left
// for the store to assign.
func (f EventForm) ToEvent(loc *time.Location) (model.CalendarEvent, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation("2006-01-02", f.Date, loc)
	if err != nil {
		return model.CalendarEvent{}, err
	}
	sc, err := schedule.ParseClock(f.StartTime)
	if err != nil {
		return model.CalendarEvent{}, err
	}
	start := sc.On(day)
	end := start.Add(time.Hour)
	if f.EndTime != "" {
		ec, err := schedule.ParseClock(f.EndTime)
		if err != nil {
			return model.CalendarEvent{}, err
		}
		end = ec.On(day)
	}

	return model.CalendarEvent{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Start:       start,
		End:         end,
		Location:    strings.TrimSpace(f.Location),
		Type:        model.EventType(f.Type),
		CourseCode:  strings.TrimSpace(f.CourseCode),
		Source:      model.SourceLocal,
	}, nil
}

func canonicalClock(s string) string {
	c, err := schedule.ParseClock(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return c.String()
}
