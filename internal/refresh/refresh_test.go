package refresh

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuscal/internal/backend"
	"campuscal/internal/model"
	"campuscal/internal/session"
)

type fakeSource struct {
	courses []model.Course
	err     error
	calls   int
}

func (f *fakeSource) CoursesFor(_ context.Context, _ session.Session) ([]model.Course, error) {
	f.calls++
	return f.courses, f.err
}

func newManager(t *testing.T, signedIn bool) *session.Manager {
	t.Helper()
	m, err := session.NewManager(filepath.Join(t.TempDir(), "session.json"), time.Hour)
	require.NoError(t, err)
	if signedIn {
		_, err = m.Start(model.User{ID: 3, Name: "Ada", Role: model.RoleStudent, Token: "opaque"})
		require.NoError(t, err)
	}
	return m
}

func TestRunSkipsWithoutSession(t *testing.T) {
	src := &fakeSource{}
	invalidated := 0
	job := NewJob(newManager(t, false), src, func() { invalidated++ }, nil, time.Second)

	status, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, status)
	assert.Zero(t, src.calls)
	assert.Zero(t, invalidated)
}

func TestRunSuccessInvalidates(t *testing.T) {
	src := &fakeSource{courses: []model.Course{{ID: 1, Code: "CS101"}}}
	invalidated := 0
	job := NewJob(newManager(t, true), src, func() { invalidated++ }, nil, time.Second)

	status, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 1, invalidated)
}

func TestRunUnauthorizedClearsSession(t *testing.T) {
	sessions := newManager(t, true)
	src := &fakeSource{err: &backend.RequestError{Method: "GET", Path: "/students/3/courses", StatusCode: 401, Err: backend.ErrUnauthorized}}
	job := NewJob(sessions, src, nil, nil, time.Second)

	status, err := job.Run(context.Background())
	assert.ErrorIs(t, err, backend.ErrUnauthorized)
	assert.Equal(t, StatusUnauthorized, status)

	_, err = sessions.Current()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestRunErrorKeepsSession(t *testing.T) {
	sessions := newManager(t, true)
	src := &fakeSource{err: errors.New("connection refused")}
	invalidated := 0
	job := NewJob(sessions, src, func() { invalidated++ }, nil, 0)

	status, err := job.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StatusError, status)
	assert.Zero(t, invalidated)

	_, err = sessions.Current()
	assert.NoError(t, err)
}

func TestStartRejectsBadSpec(t *testing.T) {
	job := NewJob(newManager(t, false), &fakeSource{}, nil, nil, 0)
	_, err := Start(context.Background(), "not a cron", time.UTC, job)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	c, err := Start(ctx, "*/15 * * * *", time.UTC, job)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	cancel()
}
