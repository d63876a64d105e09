package model

import (
	"strings"
	"time"
)

// DayOfWeek is a weekday name as delivered by the backend ("MONDAY") or
// shown in the UI ("Monday").
type DayOfWeek string

const (
	Sunday    DayOfWeek = "SUNDAY"
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
)

var weekdayByName = map[DayOfWeek]time.Weekday{
	Sunday:    time.Sunday,
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
}

// Weekday maps the name to time.Weekday (SUNDAY=0 ... SATURDAY=6).
// Matching is case-insensitive on the full name; abbreviations such as
// "MON" are not recognized.
func (d DayOfWeek) Weekday() (time.Weekday, bool) {
	wd, ok := weekdayByName[DayOfWeek(strings.ToUpper(strings.TrimSpace(string(d))))]
	return wd, ok
}

// Title returns the display form, e.g. "Monday".
func (d DayOfWeek) Title() string {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// DayOf returns the backend enum name for a weekday.
func DayOf(wd time.Weekday) DayOfWeek {
	return DayOfWeek(strings.ToUpper(wd.String()))
}

// WeeklySchedule is one recurring weekly slot of a course.
type WeeklySchedule struct {
	ID        int64     `json:"id,omitempty"`
	Day       DayOfWeek `json:"day"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Room      string    `json:"room"`
}

// Valid reports whether StartTime sorts before EndTime. Both are expected
// in the zero-padded HH:MM:SS form, so byte order equals time order.
func (s WeeklySchedule) Valid() bool {
	return s.StartTime != "" && s.EndTime != "" && s.StartTime < s.EndTime
}

// Course is the subset of the backend course record the service needs.
// Backend timestamps carry no zone and are kept verbatim.
type Course struct {
	ID          int64            `json:"id"`
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	TeacherID   string           `json:"teacherId,omitempty"`
	Schedules   []WeeklySchedule `json:"schedules"`
	CreatedAt   string           `json:"createdAt,omitempty"`
	UpdatedAt   string           `json:"updatedAt,omitempty"`
}

// HasSchedules reports whether the course has any weekly slot.
func (c Course) HasSchedules() bool {
	return len(c.Schedules) > 0
}

// EventType classifies calendar events.
type EventType string

const (
	EventLecture     EventType = "lecture"
	EventDeadline    EventType = "deadline"
	EventOfficeHours EventType = "office-hours"
	EventMeeting     EventType = "meeting"
	EventClass       EventType = "class"
	EventAssignment  EventType = "assignment"
	EventExam        EventType = "exam"
)

// EventTypes lists every known type in display order.
var EventTypes = []EventType{
	EventLecture, EventClass, EventDeadline, EventAssignment,
	EventExam, EventOfficeHours, EventMeeting,
}

// Valid reports whether t is a known type.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Event sources.
const (
	SourceSchedule  = "schedule"
	SourceSynthetic = "synthetic"
	SourceLocal     = "local"
)

// CalendarEvent is a single dated event. Events are derived per request;
// ID is unique within one materialization run.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	Type        EventType `json:"type"`
	CourseCode  string    `json:"courseCode,omitempty"`
	CourseID    int64     `json:"courseId,omitempty"`
	Source      string    `json:"source"`
}

// Duration returns the duration of the event.
func (e CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}
