// Package ics converts calendar events to and from iCalendar.
package ics

import (
	"errors"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"campuscal/internal/model"
)

// ProductID identifies exported calendars.
const ProductID = "-//campuscal//Academic Calendar//EN"

// UIDDomain is appended to event ids to form VEVENT UIDs.
const UIDDomain = "campuscal"

// Build converts events into a VCALENDAR named name. now is used as
// DTSTAMP for every event.
func Build(name string, events []model.CalendarEvent, now time.Time) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		if ev.ID == "" {
			return nil, errors.New("ics: event without id")
		}
		end := ev.End
		if end.Before(ev.Start) {
			end = ev.Start
		}

		ve := cal.AddEvent(ev.ID + "@" + UIDDomain)
		ve.SetDtStampTime(now.UTC())
		ve.SetStartAt(ev.Start.UTC())
		ve.SetEndAt(end.UTC())
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.Type != "" {
			ve.AddProperty(ical.ComponentPropertyCategories, string(ev.Type))
		}
	}

	return cal, nil
}

// Export serializes events as an iCalendar document.
func Export(name string, events []model.CalendarEvent, now time.Time) (string, error) {
	cal, err := Build(name, events, now)
	if err != nil {
		return "", err
	}
	return cal.Serialize(), nil
}

// Write serializes events to w.
func Write(w io.Writer, name string, events []model.CalendarEvent, now time.Time) error {
	body, err := Export(name, events, now)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, body)
	return err
}
