package schedule

import "time"

// Mode selects how a Window bounds materialization.
type Mode int

const (
	// ModeWeeks covers the reference week plus ExtraWeeks following weeks,
	// counted from the reference date.
	ModeWeeks Mode = iota
	// ModeMonth covers every day of one calendar month.
	ModeMonth
)

// Window is the bounded date range occurrences are produced for.
type Window struct {
	Mode Mode

	// Reference is the anchor "today" for ModeWeeks.
	Reference  time.Time
	ExtraWeeks int

	// Year / Month select the month for ModeMonth.
	Year  int
	Month time.Month

	// Location is the display timezone; all occurrences are built in it.
	Location *time.Location
}

// WeeksFrom returns a weeks-mode window anchored at reference, in the
// reference's location.
func WeeksFrom(reference time.Time, extraWeeks int) Window {
	if extraWeeks < 0 {
		extraWeeks = 0
	}
	return Window{
		Mode:       ModeWeeks,
		Reference:  reference,
		ExtraWeeks: extraWeeks,
		Location:   reference.Location(),
	}
}

// MonthOf returns a month-mode window. A nil loc means time.Local.
func MonthOf(year int, month time.Month, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	return Window{
		Mode:     ModeMonth,
		Year:     year,
		Month:    month,
		Location: loc,
	}
}

// Range returns the half-open interval [start, end) covered by the window.
func (w Window) Range() (time.Time, time.Time) {
	loc := w.loc()
	switch w.Mode {
	case ModeMonth:
		start := time.Date(w.Year, w.Month, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	default:
		ref := w.Reference.In(loc)
		start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 0, 7*(w.ExtraWeeks+1))
	}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	start, end := w.Range()
	return !t.Before(start) && t.Before(end)
}

// Occurrences is the number of weekly repeats a weeks-mode window yields
// per schedule entry.
func (w Window) Occurrences() int {
	return w.ExtraWeeks + 1
}

func (w Window) loc() *time.Location {
	if w.Location != nil {
		return w.Location
	}
	if w.Mode == ModeWeeks && !w.Reference.IsZero() {
		return w.Reference.Location()
	}
	return time.Local
}
