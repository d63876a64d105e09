// Package store persists locally added calendar events.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campuscal/internal/model"
)

// ErrNotFound is returned when an event does not exist or belongs to
// another user.
var ErrNotFound = errors.New("event not found")

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = `id, title, description, start_time, end_time, location, event_type, course_code`

// Create stores ev for owner under a fresh id and returns the stored event.
func (s *EventStore) Create(ctx context.Context, owner int64, ev model.CalendarEvent) (model.CalendarEvent, error) {
	ev.ID = uuid.NewString()
	if err := insertEvent(ctx, s.db, owner, ev); err != nil {
		return model.CalendarEvent{}, err
	}
	return s.get(ctx, owner, ev.ID)
}

// CreateAll stores every event in one transaction. Existing ids are kept
// so a re-import replaces earlier copies.
func (s *EventStore) CreateAll(ctx context.Context, owner int64, events []model.CalendarEvent) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM local_events WHERE id = ? AND owner_id = ?`, ev.ID, owner); err != nil {
			return 0, fmt.Errorf("replace local event: %w", err)
		}
		if err := insertEvent(ctx, tx, owner, ev); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(events), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEvent(ctx context.Context, db execer, owner int64, ev model.CalendarEvent) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO local_events (id, owner_id, title, description, start_time, end_time, location, event_type, course_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, owner, ev.Title, ev.Description, ev.Start.UTC(), ev.End.UTC(), ev.Location, string(ev.Type), ev.CourseCode,
	)
	if err != nil {
		return fmt.Errorf("insert local event: %w", err)
	}
	return nil
}

func (s *EventStore) get(ctx context.Context, owner int64, id string) (model.CalendarEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM local_events WHERE id = ? AND owner_id = ?`,
		id, owner,
	)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CalendarEvent{}, ErrNotFound
	}
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("query local event: %w", err)
	}
	return ev, nil
}

// ListByRange returns owner's events starting in [from, to), ordered by
// start time. Times are returned in loc.
func (s *EventStore) ListByRange(ctx context.Context, owner int64, from, to time.Time, loc *time.Location) ([]model.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+`
		 FROM local_events
		 WHERE owner_id = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time ASC, title ASC`,
		owner, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query local events: %w", err)
	}
	defer rows.Close()

	events := make([]model.CalendarEvent, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan local event: %w", err)
		}
		if loc != nil {
			ev.Start = ev.Start.In(loc)
			ev.End = ev.End.In(loc)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Delete removes one of owner's events.
func (s *EventStore) Delete(ctx context.Context, owner int64, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM local_events WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete local event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (model.CalendarEvent, error) {
	var ev model.CalendarEvent
	var typ string
	if err := sc.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Start, &ev.End, &ev.Location, &typ, &ev.CourseCode); err != nil {
		return model.CalendarEvent{}, err
	}
	ev.Type = model.EventType(typ)
	ev.Source = model.SourceLocal
	return ev, nil
}
