// Package planner assembles the per-role calendars and dashboard lists
// from the courses a user teaches or is enrolled in.
package planner

import (
	"sort"
	"time"

	"campuscal/internal/calendar"
	appLog "campuscal/internal/log"
	"campuscal/internal/model"
	"campuscal/internal/schedule"
	"campuscal/internal/synth"
)

// Options controls how calendars are assembled.
type Options struct {
	// ExtraWeeks is how many weeks after the current one the teacher
	// calendar covers.
	ExtraWeeks int
	// Synthetic enables generated assignments, exams and staff events.
	Synthetic bool
	// FillMissingSchedules gives courses without any weekly slot a
	// generated timetable.
	FillMissingSchedules bool
}

// Planner builds calendars. The zero value is not usable; use New.
type Planner struct {
	opts     Options
	provider synth.Provider
	observe  func(model.CalendarEvent)
}

// New returns a Planner backed by the given provider. A nil provider
// means synth.CodeSeeded.
func New(opts Options, provider synth.Provider) *Planner {
	if provider == nil {
		provider = synth.CodeSeeded{}
	}
	if opts.ExtraWeeks < 0 {
		opts.ExtraWeeks = 0
	}
	return &Planner{opts: opts, provider: provider}
}

// OnEvent registers a callback invoked for every event a calendar
// produces. It is used for metrics.
func (p *Planner) OnEvent(fn func(model.CalendarEvent)) {
	p.observe = fn
}

// Calendar is an assembled event list with the window it covers.
type Calendar struct {
	From    time.Time             `json:"from"`
	To      time.Time             `json:"to"`
	Events  []model.CalendarEvent `json:"events"`
	Skipped []schedule.Skipped    `json:"skipped,omitempty"`
}

// Teacher builds the teaching calendar: lecture occurrences for the
// reference week plus ExtraWeeks following weeks, one assignment deadline
// per scheduled course, and the staff events.
func (p *Planner) Teacher(courses []model.Course, reference time.Time, local []model.CalendarEvent) Calendar {
	w := schedule.WeeksFrom(reference, p.opts.ExtraWeeks)
	events, skipped := p.teaching(courses, w)
	return p.finish(w, events, skipped, local)
}

func (p *Planner) teaching(courses []model.Course, w schedule.Window) ([]model.CalendarEvent, []schedule.Skipped) {
	courses = p.withSchedules(courses)
	res := schedule.Materialize(courses, w, schedule.Lecture)

	events := res.Events
	if p.opts.Synthetic {
		for _, c := range courses {
			if !c.HasSchedules() {
				continue
			}
			events = append(events, p.provider.Deadline(c, w.Reference))
		}
		events = append(events, p.provider.StaffEvents(w.Reference)...)
	}
	return events, res.Skipped
}

// Student builds the month calendar: class occurrences on every matching
// day of the month plus, per scheduled course, the synthetic assignments
// and the gated exam.
func (p *Planner) Student(courses []model.Course, year int, month time.Month, loc *time.Location, local []model.CalendarEvent) Calendar {
	courses = p.withSchedules(courses)
	w := schedule.MonthOf(year, month, loc)
	res := schedule.Materialize(courses, w, schedule.Class)

	events := res.Events
	if p.opts.Synthetic {
		for _, c := range courses {
			if !c.HasSchedules() {
				continue
			}
			events = append(events, p.provider.Assignments(c, year, month, w.Location)...)
			if exam, ok := p.provider.Exam(c, year, month, w.Location); ok {
				events = append(events, exam)
			}
		}
	}
	return p.finish(w, events, res.Skipped, local)
}

// Month builds a month calendar for role. Teachers see the part of their
// teaching calendar anchored at reference that falls in the month;
// everyone else the student view.
func (p *Planner) Month(role model.Role, courses []model.Course, year int, month time.Month, loc *time.Location, reference time.Time, local []model.CalendarEvent) Calendar {
	if role != model.RoleTeacher {
		return p.Student(courses, year, month, loc, local)
	}
	w := schedule.MonthOf(year, month, loc)
	teaching, skipped := p.teaching(courses, schedule.WeeksFrom(reference, p.opts.ExtraWeeks))
	events := make([]model.CalendarEvent, 0, len(teaching))
	for _, ev := range teaching {
		if w.Contains(ev.Start) {
			events = append(events, ev)
		}
	}
	return p.finish(w, events, skipped, local)
}

func (p *Planner) finish(w schedule.Window, events []model.CalendarEvent, skipped []schedule.Skipped, local []model.CalendarEvent) Calendar {
	from, to := w.Range()
	for _, ev := range local {
		if w.Contains(ev.Start) {
			events = append(events, ev)
		}
	}
	calendar.Sort(events)
	if p.observe != nil {
		for _, ev := range events {
			p.observe(ev)
		}
	}
	if len(skipped) > 0 {
		appLog.Info("planner: schedule entries skipped", "count", len(skipped))
	}
	return Calendar{From: from, To: to, Events: events, Skipped: skipped}
}

// withSchedules returns courses with generated timetables filled in for
// courses that have none, when enabled. The input is not modified.
func (p *Planner) withSchedules(courses []model.Course) []model.Course {
	if !p.opts.FillMissingSchedules {
		return courses
	}
	out := make([]model.Course, len(courses))
	for i, c := range courses {
		if !c.HasSchedules() {
			c.Schedules = p.provider.Schedules(c)
		}
		out[i] = c
	}
	return out
}

// Upcoming returns the dashboard "upcoming assignments" list, sorted by
// due date then course code.
func (p *Planner) Upcoming(courses []model.Course, reference time.Time) []synth.Assignment {
	out := make([]synth.Assignment, 0)
	if !p.opts.Synthetic {
		return out
	}
	for _, c := range courses {
		out = append(out, p.provider.Upcoming(c, reference)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Due.Equal(out[j].Due) {
			return out[i].Due.Before(out[j].Due)
		}
		return out[i].CourseCode < out[j].CourseCode
	})
	return out
}

// CourseCard is the dashboard summary of one course.
type CourseCard struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	NextClass string `json:"nextClass,omitempty"`
	synth.CourseStats
}

// CourseCards summarizes courses for the dashboard. NextClass is the first
// scheduled slot on or after reference, e.g. "Monday 10:00 AM".
func (p *Planner) CourseCards(courses []model.Course, reference time.Time) []CourseCard {
	courses = p.withSchedules(courses)
	out := make([]CourseCard, 0, len(courses))
	for _, c := range courses {
		card := CourseCard{ID: c.ID, Code: c.Code, Name: c.Name}
		if p.opts.Synthetic {
			card.CourseStats = p.provider.Stats(c)
		}
		w := schedule.WeeksFrom(reference, 0)
		res := schedule.Materialize([]model.Course{c}, w, schedule.Class)
		if len(res.Events) > 0 {
			calendar.Sort(res.Events)
			next := res.Events[0]
			card.NextClass = next.Start.Weekday().String() + " " + calendar.FormatTime(next.Start)
			if next.Location != "" {
				card.Room = next.Location
			}
		}
		out = append(out, card)
	}
	return out
}
