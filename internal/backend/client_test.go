package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appLog "campuscal/internal/log"
	"campuscal/internal/model"
	"campuscal/internal/session"
)

var teacherSession = session.Session{
	Token: "tok-123",
	User:  model.User{ID: 7, Name: "Ada", Role: model.RoleTeacher, Token: "tok-123"},
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":   success,
		"message":   msg,
		"data":      data,
		"timestamp": "2025-05-17T10:00:00",
	})
}

func newTestClient(t *testing.T, h http.HandlerFunc, cacheDir string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/api/", CacheDir: cacheDir}), srv
}

func TestDecode(t *testing.T) {
	ok := Decode[[]int]("GET", "/x", 200, []byte(`{"success":true,"message":"fine","data":[1,2]}`))
	require.True(t, ok.Ok())
	assert.Equal(t, []int{1, 2}, ok.Value())
	assert.Equal(t, "fine", ok.Message())

	failed := Decode[[]int]("GET", "/x", 200, []byte(`{"success":false,"message":"Course not found"}`))
	assert.False(t, failed.Ok())
	var re *RequestError
	require.ErrorAs(t, failed.Err(), &re)
	assert.Equal(t, "Course not found", re.Message)
	assert.Equal(t, "Course not found", MessageOf(failed.Err()))

	_, err := Decode[int]("GET", "/x", 200, []byte("<html>")).Unwrap()
	assert.Error(t, err)

	assert.Error(t, Err[int](nil).Err())
}

func TestLogin(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret1" {
			writeEnvelope(w, http.StatusBadRequest, false, "Invalid credentials", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "Login successful", map[string]any{
			"token": "jwt", "type": "Bearer", "id": 7, "name": "Ada", "email": req.Email, "role": "ROLE_TEACHER",
		})
	}, "")

	u, err := c.Login(context.Background(), LoginRequest{Email: "ada@example.edu", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, u.Role)
	assert.Equal(t, "jwt", u.Token)
	assert.Equal(t, int64(7), u.ID)

	_, err = c.Login(context.Background(), LoginRequest{Email: "ada@example.edu", Password: "nope"})
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.StatusCode)
	assert.Equal(t, "Invalid credentials", re.Message)
}

func TestCoursesSendsBearerToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/courses/teacher/7", r.URL.Path)
		writeEnvelope(w, http.StatusOK, true, "ok", []model.Course{
			{ID: 1, Code: "CS101", TeacherID: "T1001", Schedules: []model.WeeklySchedule{{Day: "MONDAY", StartTime: "10:00:00", EndTime: "12:00:00"}}},
		})
	}, "")

	courses, err := c.CoursesFor(context.Background(), teacherSession)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "CS101", courses[0].Code)
	assert.Equal(t, model.Monday, courses[0].Schedules[0].Day)
}

func TestStudentCourses(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/students/9/courses", r.URL.Path)
		writeEnvelope(w, http.StatusOK, true, "ok", map[string]any{
			"id": 9, "studentId": "S0009",
			"enrolledCourses": []map[string]any{{"id": 1, "code": "PHY150"}},
		})
	}, "")

	s := session.Session{Token: "t", User: model.User{ID: 9, Role: model.RoleStudent}}
	courses, err := c.CoursesFor(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "PHY150", courses[0].Code)
}

func TestErrorTaxonomy(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/courses/1":
			w.WriteHeader(http.StatusUnauthorized)
		case "/api/courses/2":
			w.WriteHeader(http.StatusNotFound)
		case "/api/courses/3":
			writeEnvelope(w, http.StatusOK, false, "Course is archived", nil)
		case "/api/courses/4":
			w.WriteHeader(http.StatusForbidden)
		}
	}, "")
	ctx := context.Background()

	_, err := c.Course(ctx, teacherSession, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.Course(ctx, teacherSession, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Course(ctx, teacherSession, 3)
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Course is archived", re.Message)

	_, err = c.Course(ctx, teacherSession, 4)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = c.Course(ctx, session.Session{}, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, c.DeleteCourse(ctx, session.Session{}, 1), ErrUnauthorized)
}

func TestWritesUseMethodAndBody(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.Method == http.MethodDelete {
			writeEnvelope(w, http.StatusOK, true, "Course deleted successfully", nil)
			return
		}
		var req CourseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeEnvelope(w, http.StatusOK, true, "ok", model.Course{ID: 5, Code: req.Code, Name: req.Name})
	}, "")
	ctx := context.Background()

	created, err := c.CreateCourse(ctx, teacherSession, CourseRequest{Name: "Intro", Code: "CS101", TeacherID: "T1001"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.ID)

	_, err = c.UpdateCourse(ctx, teacherSession, 5, CourseRequest{Name: "Intro II", Code: "CS102"})
	require.NoError(t, err)
	require.NoError(t, c.DeleteCourse(ctx, teacherSession, 5))

	assert.Equal(t, []string{"POST /api/courses", "PUT /api/courses/5", "DELETE /api/courses/5"}, seen)
}

func TestCacheFallback(t *testing.T) {
	var mode atomic.Value
	mode.Store("ok")
	var conditional atomic.Int32

	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch mode.Load().(string) {
		case "ok":
			w.Header().Set("ETag", `"v1"`)
			writeEnvelope(w, http.StatusOK, true, "ok", []model.Course{{ID: 1, Code: "CS101"}})
		case "not-modified":
			if r.Header.Get("If-None-Match") == `"v1"` {
				conditional.Add(1)
				w.WriteHeader(http.StatusNotModified)
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		case "down":
			w.WriteHeader(http.StatusBadGateway)
		case "unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
		}
	}, t.TempDir())
	ctx := context.Background()

	first, err := c.Courses(ctx, teacherSession)
	require.NoError(t, err)
	require.Len(t, first, 1)

	mode.Store("not-modified")
	got, err := c.Courses(ctx, teacherSession)
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Equal(t, int32(1), conditional.Load())

	mode.Store("down")
	got, err = c.Courses(ctx, teacherSession)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	// Another identity has no cached copy.
	other := session.Session{Token: "x", User: model.User{ID: 99, Role: model.RoleAdmin}}
	_, err = c.Courses(ctx, other)
	assert.Error(t, err)

	mode.Store("unauthorized")
	_, err = c.Courses(ctx, teacherSession)
	assert.ErrorIs(t, err, ErrUnauthorized)

	srv.Close()
	got, err = c.Courses(ctx, teacherSession)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestNetworkErrorWithoutCache(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, "")
	srv.Close()

	_, err := c.Courses(context.Background(), teacherSession)
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "backend unreachable", re.Message)
}

func TestTeacherDirectory(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		id := strings.TrimPrefix(r.URL.Path, "/api/teachers/teacherId/")
		if id == "T9999" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "ok", model.Teacher{TeacherID: id, Name: "Teacher " + id})
	}, "")

	dir, err := c.TeacherDirectory(context.Background(), teacherSession, []string{"T1001", "T1002", "T1001", "", "T9999"})
	require.NoError(t, err)
	assert.Len(t, dir, 2)
	assert.Equal(t, "Teacher T1002", dir["T1002"].Name)
	_, ok := dir["T9999"]
	assert.False(t, ok)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTeacherDirectoryAbortsOnUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, "")

	_, err := c.TeacherDirectory(context.Background(), teacherSession, []string{"T1001", "T1002"})
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestFallbackLogsRedactedURL(t *testing.T) {
	var buf bytes.Buffer
	appLog.SetOutput(&buf)
	t.Cleanup(func() { appLog.SetOutput(os.Stderr) })

	var down atomic.Bool
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "ok", []model.Course{{ID: 1, Code: "CS101"}})
	}, t.TempDir())

	_, err := c.Courses(context.Background(), teacherSession)
	require.NoError(t, err)

	down.Store(true)
	_, err = c.Courses(context.Background(), teacherSession)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "using cached body")
	assert.Contains(t, out, srv.URL+"/...(redacted)")
	assert.NotContains(t, out, "/api/courses")
}

func TestSharedFetchSurvivesCallerCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var aborted atomic.Bool

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(started) })
		<-release
		if r.Context().Err() != nil {
			aborted.Store(true)
		}
		writeEnvelope(w, http.StatusOK, true, "ok", []model.Course{{ID: 1, Code: "CS101"}})
	}, "")

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Courses(ctx, teacherSession)
		firstErr <- err
	}()
	<-started

	type result struct {
		courses []model.Course
		err     error
	}
	second := make(chan result, 1)
	go func() {
		got, err := c.Courses(context.Background(), teacherSession)
		second <- result{got, err}
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	require.Len(t, res.courses, 1)
	assert.Equal(t, "CS101", res.courses[0].Code)
	assert.False(t, aborted.Load(), "in-flight request not aborted by the canceled caller")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://api.example.edu/...(redacted)", redactURL("https://api.example.edu/api/courses?x=1"))
	assert.Equal(t, "backend://...(redacted)", redactURL("not a url"))
}
