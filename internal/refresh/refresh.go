// Package refresh runs the background course refresh on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"campuscal/internal/backend"
	appLog "campuscal/internal/log"
	"campuscal/internal/metrics"
	"campuscal/internal/model"
	"campuscal/internal/session"
)

// Run statuses recorded in metrics.
const (
	StatusSuccess      = "success"
	StatusError        = "error"
	StatusSkipped      = "skipped"
	StatusUnauthorized = "unauthorized"
)

// CourseSource loads the courses visible to a session.
type CourseSource interface {
	CoursesFor(ctx context.Context, s session.Session) ([]model.Course, error)
}

// Job re-fetches the signed-in user's courses so the backend cache stays
// warm, then drops cached responses.
type Job struct {
	sessions   *session.Manager
	source     CourseSource
	invalidate func()
	metrics    *metrics.Metrics
	timeout    time.Duration
}

// NewJob builds a Job. invalidate may be nil.
func NewJob(sessions *session.Manager, source CourseSource, invalidate func(), m *metrics.Metrics, timeout time.Duration) *Job {
	if invalidate == nil {
		invalidate = func() {}
	}
	return &Job{
		sessions:   sessions,
		source:     source,
		invalidate: invalidate,
		metrics:    m,
		timeout:    timeout,
	}
}

// Run performs one refresh pass and returns its status. Without an
// active session it does nothing. A 401 from the backend clears the
// session.
func (j *Job) Run(ctx context.Context) (string, error) {
	s, err := j.sessions.Current()
	if err != nil {
		if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrExpired) {
			appLog.Debug("refresh: no active session, skipping")
			j.metrics.RecordRefresh(StatusSkipped)
			return StatusSkipped, nil
		}
		j.metrics.RecordRefresh(StatusError)
		return StatusError, err
	}

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	courses, err := j.source.CoursesFor(ctx, s)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			appLog.Warn("refresh: backend rejected session, signing out", "user_id", s.User.ID)
			if cerr := j.sessions.Clear(); cerr != nil {
				appLog.Error("refresh: failed to clear session", cerr)
			}
			j.invalidate()
			j.metrics.RecordRefresh(StatusUnauthorized)
			return StatusUnauthorized, err
		}
		appLog.Error("refresh: failed to fetch courses", err, "user_id", s.User.ID, "role", s.Role())
		j.metrics.RecordRefresh(StatusError)
		return StatusError, err
	}

	j.invalidate()
	appLog.Info("refresh: courses updated",
		"user_id", s.User.ID,
		"role", s.Role(),
		"courses", len(courses),
		"duration", time.Since(start).String(),
	)
	j.metrics.RecordRefresh(StatusSuccess)
	return StatusSuccess, nil
}

// Start schedules job on spec in loc and returns the running cron. The
// cron stops when ctx is done; callers may also Stop it themselves.
func Start(ctx context.Context, spec string, loc *time.Location, job *Job) (*cron.Cron, error) {
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, func() {
		_, _ = job.Run(ctx)
	}); err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", spec, err)
	}

	c.Start()
	appLog.Info("refresh scheduled", "cron", spec, "timezone", loc.String())

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
