package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "campuscal/internal/log"
	"campuscal/internal/model"
)

// Skip reasons reported in Result.Skipped.
const (
	ReasonUnknownDay    = "unknown day"
	ReasonBadTime       = "bad time"
	ReasonEmptyInterval = "start not before end"
)

var rruleDays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Flavor controls how occurrences are labeled.
type Flavor struct {
	// Suffix is appended to the course code to form the title.
	Suffix string
	Type   model.EventType
	// WithDescription copies the course description into each event.
	WithDescription bool
}

var (
	// Lecture is the teacher-calendar labeling: "CS101 Lecture".
	Lecture = Flavor{Suffix: "Lecture", Type: model.EventLecture, WithDescription: true}
	// Class is the student-calendar labeling: "CS101 Class".
	Class = Flavor{Suffix: "Class", Type: model.EventClass}
)

// Span is one concrete occurrence of a weekly schedule.
type Span struct {
	Start time.Time
	End   time.Time
}

// Skipped records a schedule entry that produced no occurrences.
type Skipped struct {
	CourseID int64  `json:"course_id"`
	Index    int    `json:"index"`
	Day      string `json:"day"`
	Reason   string `json:"reason"`
}

// Result wraps the materialized events and the entries that were skipped.
type Result struct {
	Events  []model.CalendarEvent
	Skipped []Skipped
}

// Occurrences expands one weekly schedule entry into the concrete spans
// that fall inside w. Entries with an unrecognized day, unparsable times or
// an empty interval produce no spans.
func Occurrences(s model.WeeklySchedule, w Window) []Span {
	spans, _ := occurrences(s, w)
	return spans
}

func occurrences(s model.WeeklySchedule, w Window) ([]Span, string) {
	wd, ok := s.Day.Weekday()
	if !ok {
		return nil, ReasonUnknownDay
	}
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return nil, ReasonBadTime
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return nil, ReasonBadTime
	}
	if !start.Before(end) {
		return nil, ReasonEmptyInterval
	}

	opt, err := ruleFor(wd, start, w)
	if err != nil {
		return nil, ReasonBadTime
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		appLog.Error("schedule: failed to build weekly rule", err, "day", s.Day)
		return nil, ReasonBadTime
	}

	days := r.All()
	spans := make([]Span, 0, len(days))
	for _, d := range days {
		spans = append(spans, Span{Start: start.On(d), End: end.On(d)})
	}
	return spans, ""
}

// ruleFor builds a FREQ=WEEKLY;BYDAY=<wd> rule bounded by the window.
//
// Weeks mode starts at the reference date, so the first occurrence lands
// (wd - refWeekday + 7) mod 7 days later, followed by one per week.
// Month mode starts on the 1st and stops at the end of the month.
func ruleFor(wd time.Weekday, start Clock, w Window) (rrule.ROption, error) {
	from, to := w.Range()
	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  1,
		Byweekday: []rrule.Weekday{rruleDays[wd]},
		Dtstart:   start.On(from),
	}
	switch w.Mode {
	case ModeMonth:
		opt.Until = to.Add(-time.Second)
	case ModeWeeks:
		opt.Count = w.Occurrences()
	default:
		return opt, fmt.Errorf("unknown window mode %d", w.Mode)
	}
	return opt, nil
}

// Materialize expands every schedule entry of every course into calendar
// events inside w, labeled according to f.
func Materialize(courses []model.Course, w Window, f Flavor) Result {
	var result Result
	result.Events = make([]model.CalendarEvent, 0)

	for _, c := range courses {
		for idx, s := range c.Schedules {
			spans, reason := occurrences(s, w)
			if reason != "" {
				result.Skipped = append(result.Skipped, Skipped{
					CourseID: c.ID,
					Index:    idx,
					Day:      string(s.Day),
					Reason:   reason,
				})
				appLog.Debug("schedule: entry skipped",
					"course_id", c.ID,
					"code", c.Code,
					"index", idx,
					"day", s.Day,
					"reason", reason,
				)
				continue
			}
			for _, sp := range spans {
				result.Events = append(result.Events, makeEvent(c, idx, s, sp, f))
			}
		}
	}

	return result
}

func makeEvent(c model.Course, idx int, s model.WeeklySchedule, sp Span, f Flavor) model.CalendarEvent {
	ev := model.CalendarEvent{
		// Stable within and across runs: kind, course, entry, date.
		ID:         fmt.Sprintf("%s-%d-%d-%s", f.Type, c.ID, idx, sp.Start.Format("20060102")),
		Title:      c.Code + " " + f.Suffix,
		Start:      sp.Start,
		End:        sp.End,
		Location:   s.Room,
		Type:       f.Type,
		CourseCode: c.Code,
		CourseID:   c.ID,
		Source:     model.SourceSchedule,
	}
	if f.WithDescription {
		ev.Description = c.Description
	}
	return ev
}
