package synth

import (
	"fmt"
	"time"

	"campuscal/internal/model"
)

// Provider supplies synthetic calendar data for courses.
type Provider interface {
	// Assignments returns the month-view assignments of c in the given month.
	Assignments(c model.Course, year int, month time.Month, loc *time.Location) []model.CalendarEvent
	// Exam returns the month-view exam of c, if the course has one that month.
	Exam(c model.Course, year int, month time.Month, loc *time.Location) (model.CalendarEvent, bool)
	// Deadline returns the teacher-calendar assignment deadline of c.
	Deadline(c model.Course, reference time.Time) model.CalendarEvent
	// StaffEvents returns the non-course teacher events around reference.
	StaffEvents(reference time.Time) []model.CalendarEvent
	// Upcoming returns the dashboard assignments of c.
	Upcoming(c model.Course, reference time.Time) []Assignment
	// Schedules returns a stand-in weekly timetable for c.
	Schedules(c model.Course) []model.WeeklySchedule
	// Stats returns the dashboard card figures for c.
	Stats(c model.Course) CourseStats
}

// Assignment is one entry of the dashboard "upcoming assignments" list.
type Assignment struct {
	CourseID   int64     `json:"courseId"`
	CourseCode string    `json:"courseCode"`
	Course     string    `json:"course"`
	Title      string    `json:"title"`
	Due        time.Time `json:"due"`
}

// CourseStats are the synthetic figures shown on a course card.
type CourseStats struct {
	Progress     int    `json:"progress"`
	StudentCount int    `json:"studentCount"`
	Room         string `json:"room"`
}

const (
	ExamLocation        = "Exam Hall 1"
	OfficeHoursLocation = "Faculty Office"
	MeetingLocation     = "Admin Building, Room 200"
)

var (
	buildings    = []string{"A", "B", "C"}
	scheduleDays = []model.DayOfWeek{model.Monday, model.Tuesday, model.Wednesday, model.Thursday, model.Friday}
)

// CodeSeeded is the Provider used in production. It keys everything on
// SeedOf(course.Code).
type CodeSeeded struct{}

var _ Provider = CodeSeeded{}

// AssignmentCount is 1 or 2.
func AssignmentCount(seed Seed) int {
	return 1 + seed.Mod(2)
}

// HasExam reports whether a course gets an exam in month. The month index
// is zero-based (January = 0).
func HasExam(courseID int64, month time.Month) bool {
	return (courseID+int64(month)-1)%3 == 0
}

// Room formats the synthetic room of a course, e.g. "B-134".
func Room(seed Seed) string {
	return fmt.Sprintf("%s-%d", Pick(seed, buildings), 100+seed.Mod(10)*10+seed.Mod(5))
}

func (CodeSeeded) Assignments(c model.Course, year int, month time.Month, loc *time.Location) []model.CalendarEvent {
	seed := SeedOf(c.Code)
	n := AssignmentCount(seed)
	out := make([]model.CalendarEvent, 0, n)
	for i := 0; i < n; i++ {
		day := MonthDue.Offset(seed, c.ID, i)
		due := time.Date(year, month, day, 23, 59, 0, 0, loc)
		out = append(out, model.CalendarEvent{
			ID:          fmt.Sprintf("assignment-%d-%d-%04d%02d", c.ID, i, year, month),
			Title:       c.Code + " " + AssignmentTitle(c.Code, i),
			Description: c.Name,
			Start:       due,
			End:         due,
			Type:        model.EventAssignment,
			CourseCode:  c.Code,
			CourseID:    c.ID,
			Source:      model.SourceSynthetic,
		})
	}
	return out
}

func (CodeSeeded) Exam(c model.Course, year int, month time.Month, loc *time.Location) (model.CalendarEvent, bool) {
	if !HasExam(c.ID, month) {
		return model.CalendarEvent{}, false
	}
	day := SeedOf(c.Code).Span(20, 8, 0)
	return model.CalendarEvent{
		ID:          fmt.Sprintf("exam-%d-%04d%02d", c.ID, year, month),
		Title:       c.Code + " " + ExamTitle(month),
		Description: c.Name,
		Start:       time.Date(year, month, day, 10, 0, 0, 0, loc),
		End:         time.Date(year, month, day, 12, 0, 0, 0, loc),
		Location:    ExamLocation,
		Type:        model.EventExam,
		CourseCode:  c.Code,
		CourseID:    c.ID,
		Source:      model.SourceSynthetic,
	}, true
}

func (CodeSeeded) Deadline(c model.Course, reference time.Time) model.CalendarEvent {
	d := reference.AddDate(0, 0, TeachingDue.Offset(SeedOf(c.Code), c.ID, 0))
	due := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, d.Location())
	return model.CalendarEvent{
		ID:          fmt.Sprintf("deadline-%d-%s", c.ID, due.Format("20060102")),
		Title:       c.Code + " Assignment Due",
		Description: "Assignment for " + c.Name,
		Start:       due,
		End:         due,
		Type:        model.EventDeadline,
		CourseCode:  c.Code,
		CourseID:    c.ID,
		Source:      model.SourceSynthetic,
	}
}

func (CodeSeeded) StaffEvents(reference time.Time) []model.CalendarEvent {
	at := func(days, h, m int) time.Time {
		d := reference.AddDate(0, 0, days)
		return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, d.Location())
	}
	office := at(1, 14, 0)
	meeting := at(2, 10, 0)
	return []model.CalendarEvent{
		{
			ID:          "office-hours-" + office.Format("20060102"),
			Title:       "Office Hours",
			Description: "Open office hours for students",
			Start:       office,
			End:         at(1, 16, 0),
			Location:    OfficeHoursLocation,
			Type:        model.EventOfficeHours,
			Source:      model.SourceSynthetic,
		},
		{
			ID:          "meeting-" + meeting.Format("20060102"),
			Title:       "Department Meeting",
			Description: "Weekly department meeting",
			Start:       meeting,
			End:         at(2, 11, 30),
			Location:    MeetingLocation,
			Type:        model.EventMeeting,
			Source:      model.SourceSynthetic,
		},
	}
}

func (CodeSeeded) Upcoming(c model.Course, reference time.Time) []Assignment {
	seed := SeedOf(c.Code)
	n := AssignmentCount(seed)
	out := make([]Assignment, 0, n)
	for i := 0; i < n; i++ {
		d := reference.AddDate(0, 0, UpcomingDue.Offset(seed, c.ID, i))
		out = append(out, Assignment{
			CourseID:   c.ID,
			CourseCode: c.Code,
			Course:     c.Code + " - " + c.Name,
			Title:      AssignmentTitle(c.Code, i),
			Due:        time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, d.Location()),
		})
	}
	return out
}

func (CodeSeeded) Schedules(c model.Course) []model.WeeklySchedule {
	seed := SeedOf(c.Code)
	room := Room(seed)
	return []model.WeeklySchedule{
		{Day: Pick(seed, scheduleDays), StartTime: "10:00:00", EndTime: "12:00:00", Room: room},
		{Day: Pick(seed+2, scheduleDays), StartTime: "11:00:00", EndTime: "13:00:00", Room: room},
	}
}

func (CodeSeeded) Stats(c model.Course) CourseStats {
	seed := SeedOf(c.Code)
	return CourseStats{
		Progress:     seed.Span(60, 40, 0),
		StudentCount: seed.Span(15, 30, 0),
		Room:         Room(seed),
	}
}
