package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuscal/internal/backend"
	"campuscal/internal/config"
	"campuscal/internal/database"
	"campuscal/internal/metrics"
	"campuscal/internal/model"
	"campuscal/internal/planner"
	"campuscal/internal/session"
	"campuscal/internal/store"
)

var (
	cs101 = model.Course{
		ID: 1, Code: "CS101", Name: "Introduction to Programming", Description: "Basics", TeacherID: "T1001",
		Schedules: []model.WeeklySchedule{{Day: model.Monday, StartTime: "10:00:00", EndTime: "12:00:00", Room: "A-134"}},
	}
	cs102 = model.Course{
		ID: 2, Code: "CS102", Name: "Data Structures", Description: "Lists and trees", TeacherID: "T1002",
		Schedules: []model.WeeklySchedule{{Day: model.Tuesday, StartTime: "09:00:00", EndTime: "10:30:00", Room: "B-120"}},
	}

	teacherUser = model.User{ID: 7, Name: "Ada Lovelace", Email: "ada@example.edu", Role: model.RoleTeacher, Token: "tok-teacher"}
	studentUser = model.User{ID: 9, Name: "Grace Hopper", Email: "grace@example.edu", Role: model.RoleStudent, Token: "tok-student"}
	adminUser   = model.User{ID: 1, Name: "Admin", Email: "admin@example.edu", Role: model.RoleAdmin, Token: "tok-admin"}
)

func envelope(w http.ResponseWriter, status int, success bool, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":   success,
		"message":   msg,
		"data":      data,
		"timestamp": "2025-05-17T10:00:00",
	})
}

// fakeBackend mimics the academic REST API. A "revoked" bearer token is
// rejected with 401.
type fakeBackend struct {
	mu          sync.Mutex
	lastCourse  backend.CourseRequest
	courseCalls int
}

func (f *fakeBackend) courseFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.courseCalls
}

func (f *fakeBackend) lastCourseRequest() backend.CourseRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCourse
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "Bearer revoked" {
				envelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
				return
			}
			h(w, r)
		}
	}

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req backend.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Email != teacherUser.Email || req.Password != "secret1" {
			envelope(w, http.StatusBadRequest, false, "Invalid credentials", nil)
			return
		}
		envelope(w, http.StatusOK, true, "Login successful", map[string]any{
			"id": 7, "name": teacherUser.Name, "email": req.Email, "role": "TEACHER", "token": "tok-teacher", "type": "Bearer",
		})
	})
	mux.HandleFunc("GET /api/courses/teacher/7", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.courseCalls++
		f.mu.Unlock()
		envelope(w, http.StatusOK, true, "", []model.Course{cs101})
	}))
	mux.HandleFunc("GET /api/students/9/courses", authed(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, true, "", model.Student{ID: 9, Name: studentUser.Name, StudentID: "S2001", EnrolledCourses: []model.Course{cs102}})
	}))
	mux.HandleFunc("GET /api/courses", authed(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, true, "", []model.Course{cs101, cs102})
	}))
	mux.HandleFunc("GET /api/courses/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		envelope(w, http.StatusOK, true, "", cs101)
	}))
	mux.HandleFunc("POST /api/courses", authed(func(w http.ResponseWriter, r *http.Request) {
		var req backend.CourseRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.lastCourse = req
		f.mu.Unlock()
		envelope(w, http.StatusCreated, true, "Course created successfully", model.Course{ID: 5, Code: req.Code, Name: req.Name, TeacherID: req.TeacherID})
	}))
	mux.HandleFunc("GET /api/teachers/teacherId/{code}", authed(func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("code") {
		case "T1001":
			envelope(w, http.StatusOK, true, "", model.Teacher{ID: 7, Name: "Ada Lovelace", TeacherID: "T1001"})
		case "T1002":
			envelope(w, http.StatusOK, true, "", model.Teacher{ID: 8, Name: "Alan Turing", TeacherID: "T1002"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	mux.HandleFunc("GET /api/teachers", authed(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, true, "", []model.Teacher{
			{ID: 8, Name: "Alan Turing", TeacherID: "T1002", Department: "Mathematics"},
			{ID: 7, Name: "Ada Lovelace", TeacherID: "T1001", Department: "Computer Science"},
		})
	}))
	mux.HandleFunc("GET /api/students", authed(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, true, "", []model.Student{{ID: 9, Name: studentUser.Name, StudentID: "S2001", Program: "CS", Year: "2"}})
	}))
	return mux
}

type harness struct {
	server   *Server
	handler  http.Handler
	sessions *session.Manager
	backend  *fakeBackend
	registry *prometheus.Registry
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()

	fb := &fakeBackend{}
	upstream := httptest.NewServer(fb.handler(t))
	t.Cleanup(upstream.Close)

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Backend.BaseURL = upstream.URL + "/api"
	if mutate != nil {
		mutate(cfg)
	}
	cfg.Normalize()

	sessions, err := session.NewManager(filepath.Join(cfg.DataDir, "session.json"), time.Hour)
	require.NoError(t, err)

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	s := NewServer(Deps{
		Config:   cfg,
		Sessions: sessions,
		Backend:  backend.New(backend.Options{BaseURL: cfg.Backend.BaseURL, Metrics: m}),
		Planner:  planner.New(planner.Options{ExtraWeeks: cfg.TeacherWeeks, Synthetic: true}, nil),
		Events:   store.NewEventStore(db),
		Metrics:  m,
		Registry: registry,
	})
	return &harness{server: s, handler: s.Handler(), sessions: sessions, backend: fb, registry: registry}
}

func (h *harness) signIn(t *testing.T, u model.User) {
	t.Helper()
	_, err := h.sessions.Start(u)
	require.NoError(t, err)
}

func (h *harness) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func titles(events []eventResponse) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Title)
	}
	return out
}

type monthCell struct {
	Date    string                `json:"date"`
	InMonth bool                  `json:"inMonth"`
	Events  []model.CalendarEvent `json:"events"`
}

type monthBody struct {
	Label string        `json:"label"`
	Prev  string        `json:"prev"`
	Next  string        `json:"next"`
	Weeks [][]monthCell `json:"weeks"`
}

// cellTitles returns the event titles of the grid cell for date.
func cellTitles(weeks [][]monthCell, date string) []string {
	for _, week := range weeks {
		for _, c := range week {
			if c.Date != date {
				continue
			}
			out := make([]string, 0, len(c.Events))
			for _, ev := range c.Events {
				out = append(out, ev.Title)
			}
			return out
		}
	}
	return nil
}

func TestHealthBypassesBasicAuth(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "pw"}
	})

	rec := h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.SetBasicAuth("admin", "pw")
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "no app session yet")
	assert.Empty(t, rr.Header().Get("WWW-Authenticate"))
}

func TestLoginSessionLogout(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/api/session", `{"email":"ada@example.edu","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[sessionResponse](t, rec)
	assert.Equal(t, model.RoleTeacher, resp.Role)
	assert.Equal(t, "Ada Lovelace", resp.User.Name)
	assert.Empty(t, resp.User.Token)
	assert.Equal(t, model.Menu(model.RoleTeacher), resp.Menu)
	assert.Positive(t, resp.ExpiresIn)

	rec = h.do(t, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodDelete, "/api/session", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/api/session", `{"email":"ada@example.edu","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode[errorResponse](t, rec).Error)

	rec = h.do(t, http.MethodPost, "/api/session", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "validation failed", body.Error)
	assert.Len(t, body.Fields, 2)

	rec = h.do(t, http.MethodPost, "/api/session", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeacherWeek(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t, teacherUser)

	rec := h.do(t, http.MethodGet, "/api/calendar/week?date=2025-05-19", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	week := decode[weekResponse](t, rec)

	assert.Equal(t, "18 May - 24 May 2025", week.Label)
	assert.Equal(t, "2025-05-11", week.Prev)
	assert.Equal(t, "2025-05-25", week.Next)
	require.Len(t, week.Days, 7)
	assert.Equal(t, "2025-05-18", week.Days[0].Date)
	assert.Equal(t, []string{"Office Hours"}, titles(week.Days[0].Events))
	assert.Equal(t, []string{"CS101 Lecture", "Department Meeting"}, titles(week.Days[1].Events))
	assert.Equal(t, "10:00 AM - 12:00 PM", week.Days[1].Events[0].Time)
	assert.Empty(t, week.Days[2].Events)

	// Served from the response cache the second time.
	rec = h.do(t, http.MethodGet, "/api/calendar/week?date=2025-05-20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, h.backend.courseFetches())
}

func TestWeekRequiresTeacher(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/api/calendar/week", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	h.signIn(t, studentUser)
	rec = h.do(t, http.MethodGet, "/api/calendar/week", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	h.signIn(t, teacherUser)
	rec = h.do(t, http.MethodGet, "/api/calendar/week?date=19-05-2025", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudentMonth(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t, studentUser)

	rec := h.do(t, http.MethodGet, "/api/calendar/month?year=2025&month=5", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	month := decode[monthBody](t, rec)

	assert.Equal(t, "May 2025", month.Label)
	assert.Equal(t, "2025-04", month.Prev)
	assert.Equal(t, "2025-06", month.Next)
	require.Len(t, month.Weeks, 5)
	assert.Equal(t, "2025-04-27", month.Weeks[0][0].Date)
	assert.False(t, month.Weeks[0][0].InMonth)

	for _, day := range []string{"2025-05-06", "2025-05-13", "2025-05-20", "2025-05-27"} {
		assert.Contains(t, cellTitles(month.Weeks, day), "CS102 Class", day)
	}
	assert.Contains(t, cellTitles(month.Weeks, "2025-05-15"), "CS102 Problem Set")
	assert.Contains(t, cellTitles(month.Weeks, "2025-05-22"), "CS102 Programming Project")

	exams := 0
	for _, week := range month.Weeks {
		for _, c := range week {
			for _, ev := range c.Events {
				if ev.Type == model.EventExam {
					exams++
				}
			}
		}
	}
	assert.Equal(t, 1, exams)

	rec = h.do(t, http.MethodGet, "/api/calendar/month?year=2025&month=13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevokedTokenSignsOut(t *testing.T) {
	h := newHarness(t, nil)
	u := teacherUser
	u.Token = "revoked"
	h.signIn(t, u)

	rec := h.do(t, http.MethodGet, "/api/calendar/month", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, err := h.sessions.Current()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestLocalEvents(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t, studentUser)

	rec := h.do(t, http.MethodPost, "/api/events", `{"title":"x","date":"2025/05/20","startTime":"18:00","type":"party"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode[errorResponse](t, rec).Fields, 2)

	// Warm the cache, then check the write invalidates it.
	rec = h.do(t, http.MethodGet, "/api/calendar/month?year=2025&month=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/events", `{"title":"Study group","date":"2025-05-20","startTime":"18:00","type":"meeting","location":"Library"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[eventResponse](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.SourceLocal, created.Source)
	assert.Equal(t, "6:00 PM - 7:00 PM", created.Time)

	rec = h.do(t, http.MethodGet, "/api/calendar/day?date=2025-05-20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	day := decode[dayResponse](t, rec)
	assert.Equal(t, "Tuesday, 20 May 2025", day.Title)
	assert.Equal(t, []string{"CS102 Class", "Study group"}, titles(day.Events))

	rec = h.do(t, http.MethodGet, "/api/calendar/month?year=2025&month=5", "")
	month := decode[monthBody](t, rec)
	assert.Contains(t, cellTitles(month.Weeks, "2025-05-20"), "Study group")

	rec = h.do(t, http.MethodDelete, "/api/events/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(t, http.MethodDelete, "/api/events/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

const seminar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:seminar-1@example.com\r\n" +
	"DTSTAMP:20250501T000000Z\r\n" +
	"DTSTART:20250521T150000Z\r\n" +
	"DTEND:20250521T160000Z\r\n" +
	"SUMMARY:Guest seminar\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestImportEvents(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t, studentUser)

	rec := h.do(t, http.MethodPost, "/api/events/import?from=2025-05-01&to=2025-06-01", seminar)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[importResponse](t, rec).Imported)

	rec = h.do(t, http.MethodGet, "/api/calendar/day?date=2025-05-21", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Guest seminar"}, titles(decode[dayResponse](t, rec).Events))

	rec = h.do(t, http.MethodPost, "/api/events/import", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestICSExport(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t, teacherUser)

	rec := h.do(t, http.MethodGet, "/api/calendar.ics", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:CS101 Lecture")
	assert.Equal(t, 4, strings.Count(body, "SUMMARY:CS101 Lecture"))
}

func TestDashboard(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t, studentUser)

	rec := h.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dash := decode[dashboardResponse](t, rec)
	assert.Equal(t, "Welcome back, Grace Hopper", dash.Greeting)
	assert.Len(t, dash.Upcoming, 2)
	require.Len(t, dash.Courses, 1)
	assert.Equal(t, "CS102", dash.Courses[0].Code)
	assert.Equal(t, "Tuesday 9:00 AM", dash.Courses[0].NextClass)
	assert.Nil(t, dash.Stats)

	h.signIn(t, adminUser)
	rec = h.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dash = decode[dashboardResponse](t, rec)
	require.NotNil(t, dash.Stats)
	assert.Equal(t, adminStats{Courses: 2, Teachers: 2, Students: 1}, *dash.Stats)
}

func TestCoursesListing(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t, adminUser)

	rec := h.do(t, http.MethodGet, "/api/courses?q=cs&sort=-code&size=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Items      []courseRow `json:"items"`
		Total      int         `json:"total"`
		TotalPages int         `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "CS102", page.Items[0].Code)
	assert.Equal(t, "Alan Turing", page.Items[0].TeacherName)
	assert.Equal(t, []slotView{{Day: "Tuesday", Time: "9:00 AM - 10:30 AM", Room: "B-120"}}, page.Items[0].Slots)

	rec = h.do(t, http.MethodGet, "/api/courses?q=turing", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)

	rec = h.do(t, http.MethodGet, "/api/courses/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada Lovelace", decode[courseRow](t, rec).TeacherName)

	rec = h.do(t, http.MethodGet, "/api/courses/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/courses/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCourse(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t, studentUser)

	body := `{"name":"Algorithms","code":"CS201","description":"Sorting","teacherId":"T1001",` +
		`"schedules":[{"day":"wednesday","startTime":"9:00","endTime":"10:30","room":"C-1"}]}`
	rec := h.do(t, http.MethodPost, "/api/courses", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	h.signIn(t, adminUser)
	rec = h.do(t, http.MethodPost, "/api/courses", strings.Replace(body, "CS201", "cs-201", 1))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[errorResponse](t, rec)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "code", resp.Fields[0].Field)

	rec = h.do(t, http.MethodPost, "/api/courses", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "CS201", decode[courseRow](t, rec).Code)
	sent := h.backend.lastCourseRequest()
	require.Len(t, sent.Schedules, 1)
	assert.Equal(t, "WEDNESDAY", sent.Schedules[0].Day)
	assert.Equal(t, "09:00:00", sent.Schedules[0].StartTime)
}

func TestPeopleListing(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t, teacherUser)

	rec := h.do(t, http.MethodGet, "/api/teachers", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/students?q=s2001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Grace Hopper")

	h.signIn(t, adminUser)
	rec = h.do(t, http.MethodGet, "/api/teachers?sort=name", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []model.Teacher `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Ada Lovelace", page.Items[0].Name)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	h.do(t, http.MethodGet, "/health", "")
	rec := h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `campuscal_http_responses_total{code="200",route="GET /health"} 1`)
}
