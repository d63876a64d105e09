package calendar

import (
	"fmt"
	"time"

	"campuscal/internal/model"
	"campuscal/internal/schedule"
)

// FormatClock renders "14:30:00" as "2:30 PM". Unparsable input is
// returned unchanged.
func FormatClock(s string) string {
	c, err := schedule.ParseClock(s)
	if err != nil {
		return s
	}
	return FormatTime(time.Date(0, 1, 1, c.Hour, c.Minute, 0, 0, time.UTC))
}

// FormatTime renders the time of day of t as "9:05 AM".
func FormatTime(t time.Time) string {
	return t.Format("3:04 PM")
}

// TimeRange renders "10:00 AM - 12:00 PM", or a single time for
// zero-length events.
func TimeRange(ev model.CalendarEvent) string {
	if ev.Start.Equal(ev.End) {
		return FormatTime(ev.Start)
	}
	return FormatTime(ev.Start) + " - " + FormatTime(ev.End)
}

// DayTitle renders "MONDAY" as "Monday".
func DayTitle(day string) string {
	return model.DayOfWeek(day).Title()
}

// WeekLabel renders the span of a week, e.g. "18 May - 24 May 2025".
func WeekLabel(t time.Time, first time.Weekday) string {
	start := WeekStart(t, first)
	end := start.AddDate(0, 0, 6)
	return fmt.Sprintf("%s - %s", start.Format("2 Jan"), end.Format("2 Jan 2006"))
}

// MonthLabel renders "May 2025".
func MonthLabel(t time.Time) string {
	return t.Format("January 2006")
}
