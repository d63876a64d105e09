package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "campuscal/internal/log"
	"campuscal/internal/model"
)

const defaultMaxOccurrences = 500

// ImportConfig bounds how an uploaded calendar is turned into events.
type ImportConfig struct {
	// Location is the timezone every event is converted to. Nil means
	// time.Local.
	Location *time.Location

	// From / To select the occurrences to import. Recurring events are
	// expanded inside this window only.
	From time.Time
	To   time.Time

	// MaxOccurrences caps each recurring event. Zero means 500.
	MaxOccurrences int

	// DefaultType applies to events without a known CATEGORIES value.
	DefaultType model.EventType
}

// ImportResult wraps the imported events and the UIDs whose recurrence
// was cut at MaxOccurrences.
type ImportResult struct {
	Events    []model.CalendarEvent
	Truncated []string
	// Invalid counts VEVENTs that were skipped as unreadable.
	Invalid int
}

type vevent struct {
	uid         string
	summary     string
	description string
	location    string
	category    string
	start       time.Time
	end         time.Time
	allDay      bool
	rrule       string
	exdates     []time.Time
}

// Import reads an iCalendar document and returns the occurrences that
// fall inside [cfg.From, cfg.To). RRULE and EXDATE are honoured; each
// occurrence gets an id derived from the UID and its start time.
func Import(body []byte, cfg ImportConfig) (ImportResult, error) {
	var result ImportResult

	if len(body) == 0 {
		return result, errors.New("ics: empty body")
	}
	if !cfg.From.Before(cfg.To) {
		return result, errors.New("ics: import window is empty")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}
	if !cfg.DefaultType.Valid() {
		cfg.DefaultType = model.EventMeeting
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("ics: parse: %w", err)
	}

	result.Events = make([]model.CalendarEvent, 0)
	for _, comp := range cal.Events() {
		ev, err := readVEvent(comp)
		if err != nil {
			result.Invalid++
			appLog.Warn("ics import: vevent skipped", "err", err.Error())
			continue
		}

		starts, capped := occurrenceStarts(ev, cfg)
		if capped {
			result.Truncated = append(result.Truncated, ev.uid)
			appLog.Warn("ics import: occurrences truncated", "uid", ev.uid, "cap", cfg.MaxOccurrences)
		}
		for _, s := range starts {
			result.Events = append(result.Events, toEvent(ev, s, cfg))
		}
	}

	appLog.Info("ics import completed", "event_count", len(result.Events), "invalid", result.Invalid)
	return result, nil
}

func readVEvent(ve *ical.VEvent) (vevent, error) {
	var out vevent

	p := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if p == nil || p.Value == "" {
		return out, errors.New("missing UID")
	}
	out.uid = p.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		out.category = strings.ToLower(strings.TrimSpace(strings.Split(p.Value, ",")[0]))
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("uid %s: DTSTART: %w", out.uid, err)
	}
	out.start = start
	end, err := ve.GetEndAt()
	if err != nil || end.Before(start) {
		end = start
	}
	out.end = end

	// VALUE=DATE or a bare YYYYMMDD value marks an all-day event.
	if dt := ve.GetProperty(ical.ComponentPropertyDtStart); dt != nil {
		if vs, ok := dt.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.allDay = true
		}
		if !strings.Contains(dt.Value, "T") {
			out.allDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.rrule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part), start.Location()); err == nil {
				out.exdates = append(out.exdates, t)
			}
		}
	}

	return out, nil
}

// occurrenceStarts returns the starts of ev inside the window and whether
// the per-event cap was hit.
func occurrenceStarts(ev vevent, cfg ImportConfig) ([]time.Time, bool) {
	if ev.rrule == "" {
		if ev.start.Before(cfg.To) && !ev.start.Before(cfg.From) {
			return []time.Time{ev.start}, false
		}
		return nil, false
	}

	r, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		appLog.Error("ics import: failed to parse RRULE", err, "uid", ev.uid, "rrule", ev.rrule)
		return nil, false
	}
	r.DTStart(ev.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exdates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	loc := ev.start.Location()
	starts := set.Between(cfg.From.In(loc), cfg.To.In(loc), true)
	// Between is inclusive; the window is half-open.
	if n := len(starts); n > 0 && !starts[n-1].Before(cfg.To) {
		starts = starts[:n-1]
	}
	if len(starts) > cfg.MaxOccurrences {
		return starts[:cfg.MaxOccurrences], true
	}
	return starts, false
}

func toEvent(ev vevent, start time.Time, cfg ImportConfig) model.CalendarEvent {
	end := start.Add(ev.end.Sub(ev.start))
	if ev.allDay {
		day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		start, end = day, day.AddDate(0, 0, 1)
	}

	typ := model.EventType(ev.category)
	if !typ.Valid() {
		typ = cfg.DefaultType
	}

	startLocal := start.In(cfg.Location)
	return model.CalendarEvent{
		ID:          strings.TrimSuffix(ev.uid, "@"+UIDDomain) + "-" + startLocal.Format("20060102T1504"),
		Title:       ev.summary,
		Description: ev.description,
		Start:       startLocal,
		End:         end.In(cfg.Location),
		Location:    ev.location,
		Type:        typ,
		Source:      model.SourceLocal,
	}
}

// parseICSTime parses the basic DATE / DATE-TIME / UTC forms used in
// EXDATE values. Floating values are read in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}
