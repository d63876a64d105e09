// Package web serves the dashboard JSON API, the iCalendar feed and the
// Prometheus metrics.
package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campuscal/internal/backend"
	"campuscal/internal/config"
	appLog "campuscal/internal/log"
	"campuscal/internal/metrics"
	"campuscal/internal/planner"
	"campuscal/internal/session"
	"campuscal/internal/store"
)

// maxBodyBytes bounds JSON and ICS request bodies.
const maxBodyBytes = 1 << 20

// Deps are the collaborators a Server needs. Events, Metrics and Registry
// may be nil.
type Deps struct {
	Config   *config.Config
	Sessions *session.Manager
	Backend  *backend.Client
	Planner  *planner.Planner
	Events   *store.EventStore
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// Server provides the HTTP API.
type Server struct {
	cfg      *config.Config
	sessions *session.Manager
	backend  *backend.Client
	planner  *planner.Planner
	events   *store.EventStore
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	mux      *http.ServeMux
	cache    *responseCache
	now      func() time.Time
}

// NewServer constructs a new Server.
func NewServer(d Deps) *Server {
	s := &Server{
		cfg:      d.Config,
		sessions: d.Sessions,
		backend:  d.Backend,
		planner:  d.Planner,
		events:   d.Events,
		metrics:  d.Metrics,
		registry: d.Registry,
		mux:      http.NewServeMux(),
		cache:    newResponseCache(d.Config.CacheTTL()),
		now:      time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Invalidate drops every cached response. The refresh job calls it after
// reloading courses.
func (s *Server) Invalidate() {
	s.cache.invalidate()
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="campuscal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("stopping HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) registerRoutes() {
	s.handle("GET /health", s.handleHealth)

	s.handle("POST /api/session", s.handleLogin)
	s.handle("GET /api/session", s.handleSession)
	s.handle("DELETE /api/session", s.handleLogout)

	s.handle("GET /api/calendar/week", s.handleWeek)
	s.handle("GET /api/calendar/month", s.handleMonth)
	s.handle("GET /api/calendar/day", s.handleDay)
	s.handle("GET /api/calendar.ics", s.handleICS)

	s.handle("POST /api/events", s.handleCreateEvent)
	s.handle("POST /api/events/import", s.handleImportEvents)
	s.handle("DELETE /api/events/{id}", s.handleDeleteEvent)

	s.handle("GET /api/dashboard", s.handleDashboard)

	s.handle("GET /api/courses", s.handleCourses)
	s.handle("GET /api/courses/{id}", s.handleCourse)
	s.handle("POST /api/courses", s.handleCreateCourse)
	s.handle("PUT /api/courses/{id}", s.handleUpdateCourse)
	s.handle("DELETE /api/courses/{id}", s.handleDeleteCourse)

	s.handle("GET /api/teachers", s.handleTeachers)
	s.handle("POST /api/teachers", s.handleRegisterTeacher)
	s.handle("GET /api/students", s.handleStudents)
	s.handle("POST /api/students", s.handleRegisterStudent)

	s.handle("PUT /api/profile", s.handleUpdateProfile)
	s.handle("PUT /api/profile/password", s.handleChangePassword)

	if s.registry != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
}

// handle registers h and counts its responses by route pattern.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.RecordHTTPResponse(pattern, strconv.Itoa(rec.status))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
