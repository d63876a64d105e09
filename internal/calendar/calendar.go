// Package calendar buckets events into days and builds the week and month
// grids the dashboard renders.
package calendar

import (
	"sort"
	"time"

	"campuscal/internal/model"
)

// DayKeyLayout is the layout of day keys and of date query parameters.
const DayKeyLayout = "2006-01-02"

// DayKey returns the YYYY-MM-DD key of t in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// SameDay reports whether a and b fall on the same calendar date. Year,
// month and day are compared component-wise; time of day is ignored.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Midnight truncates t to the start of its day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Sort orders events by start, then title, then id.
func Sort(events []model.CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}

// GroupByDay buckets events by the day key of their start.
func GroupByDay(events []model.CalendarEvent) map[string][]model.CalendarEvent {
	out := make(map[string][]model.CalendarEvent)
	for _, ev := range events {
		k := DayKey(ev.Start)
		out[k] = append(out[k], ev)
	}
	return out
}

// OnDay returns the events starting on the same date as day.
func OnDay(events []model.CalendarEvent, day time.Time) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0)
	for _, ev := range events {
		if SameDay(ev.Start, day) {
			out = append(out, ev)
		}
	}
	return out
}

// ByWeekday buckets events into week columns, Sunday = 0.
func ByWeekday(events []model.CalendarEvent) [7][]model.CalendarEvent {
	var out [7][]model.CalendarEvent
	for _, ev := range events {
		wd := ev.Start.Weekday()
		out[wd] = append(out[wd], ev)
	}
	return out
}

// WeekStart returns midnight of the first day of the week containing t.
func WeekStart(t time.Time, first time.Weekday) time.Time {
	day := Midnight(t)
	back := (int(day.Weekday()) - int(first) + 7) % 7
	return day.AddDate(0, 0, -back)
}

// WeekDates returns the seven dates of the week containing t.
func WeekDates(t time.Time, first time.Weekday) []time.Time {
	start := WeekStart(t, first)
	out := make([]time.Time, 7)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// Cell is one day of a month grid.
type Cell struct {
	Date    string                `json:"date"`
	Day     int                   `json:"day"`
	InMonth bool                  `json:"inMonth"`
	Today   bool                  `json:"today,omitempty"`
	Events  []model.CalendarEvent `json:"events"`
}

// MonthGrid lays out the month containing t as whole weeks. Leading and
// trailing cells belong to the neighbouring months and are marked with
// InMonth=false. Events are placed by day key; today may be the zero time.
func MonthGrid(t time.Time, first time.Weekday, events []model.CalendarEvent, today time.Time) [][]Cell {
	y, m, _ := t.Date()
	loc := t.Location()
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	byDay := GroupByDay(events)
	weeks := make([][]Cell, 0, 6)
	for day := WeekStart(monthStart, first); day.Before(monthEnd); {
		week := make([]Cell, 7)
		for i := range week {
			key := DayKey(day)
			evs := byDay[key]
			if evs == nil {
				evs = []model.CalendarEvent{}
			}
			week[i] = Cell{
				Date:    key,
				Day:     day.Day(),
				InMonth: day.Month() == m,
				Today:   !today.IsZero() && SameDay(day, today),
				Events:  evs,
			}
			day = day.AddDate(0, 0, 1)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// View is a navigation granularity.
type View string

const (
	ViewWeek  View = "week"
	ViewMonth View = "month"
	ViewDay   View = "day"
)

// Shift moves t by n views: 7 days per week, one calendar month per
// month (clamped to the last day of a shorter month), one day per day.
func Shift(t time.Time, v View, n int) time.Time {
	switch v {
	case ViewWeek:
		return t.AddDate(0, 0, 7*n)
	case ViewMonth:
		y, m, d := t.Date()
		target := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
		if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
			d = last
		}
		return target.AddDate(0, 0, d-1)
	default:
		return t.AddDate(0, 0, n)
	}
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}
