// Package session keeps the signed-in user and their bearer token.
//
// One session is active at a time. It is persisted as a 0600 JSON file so
// a restart does not sign the user out, and it expires at the token's exp
// claim, or after a fallback TTL when the token carries none.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"campuscal/internal/fsutil"
	appLog "campuscal/internal/log"
	"campuscal/internal/model"
)

var (
	ErrNoSession = errors.New("session: not signed in")
	ErrExpired   = errors.New("session: expired")
	ErrForbidden = errors.New("session: role not allowed")
)

// Session is the signed-in identity.
type Session struct {
	Token     string     `json:"token"`
	User      model.User `json:"user"`
	StartedAt time.Time  `json:"started_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ExpiresIn is the time left at now, never negative.
func (s Session) ExpiresIn(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Role returns the role of the signed-in user.
func (s Session) Role() model.Role {
	return s.User.Role
}

// Manager owns the active session.
type Manager struct {
	mu          sync.RWMutex
	path        string
	fallbackTTL time.Duration
	now         func() time.Time
	current     *Session
}

// NewManager returns a manager persisting to path. An empty path keeps
// the session in memory only. A previously saved session is restored.
func NewManager(path string, fallbackTTL time.Duration) (*Manager, error) {
	m := &Manager{path: path, fallbackTTL: fallbackTTL, now: time.Now}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// SetClock replaces the time source. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Start replaces the active session with one for user.
func (m *Manager) Start(user model.User) (Session, error) {
	if user.Token == "" {
		return Session{}, errors.New("session: login response has no token")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s := Session{
		Token:     user.Token,
		User:      user,
		StartedAt: now,
		ExpiresAt: m.expiry(user.Token, now),
	}
	if err := m.save(&s); err != nil {
		return Session{}, err
	}
	m.current = &s

	appLog.Info("session started", "user_id", user.ID, "role", user.Role, "expires_at", s.ExpiresAt.Format(time.RFC3339))
	return s, nil
}

// Current returns the active session. An expired session is cleared and
// reported as ErrExpired.
func (m *Manager) Current() (Session, error) {
	m.mu.RLock()
	cur, clock := m.current, m.now
	m.mu.RUnlock()

	if cur == nil {
		return Session{}, ErrNoSession
	}
	if !cur.Expired(clock()) {
		return *cur, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A Start may have replaced the expired session meanwhile.
	if m.current != cur {
		if m.current == nil {
			return Session{}, ErrNoSession
		}
		if !m.current.Expired(m.now()) {
			return *m.current, nil
		}
	}
	if err := m.clearLocked(); err != nil {
		appLog.Error("session clear failed", err)
	}
	return Session{}, ErrExpired
}

// Require returns the active session if its role is one of roles. No
// roles means any signed-in user.
func (m *Manager) Require(roles ...model.Role) (Session, error) {
	s, err := m.Current()
	if err != nil {
		return Session{}, err
	}
	if len(roles) == 0 {
		return s, nil
	}
	for _, r := range roles {
		if s.Role() == r {
			return s, nil
		}
	}
	return Session{}, fmt.Errorf("%w: %s", ErrForbidden, s.Role())
}

// Clear signs the user out and removes the persisted file.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clearLocked()
}

func (m *Manager) clearLocked() error {
	if m.current != nil {
		appLog.Info("session cleared", "user_id", m.current.User.ID)
	}
	m.current = nil
	if m.path == "" {
		return nil
	}
	if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// expiry reads the exp claim without verifying the signature; the
// backend verifies tokens on every call.
func (m *Manager) expiry(token string, now time.Time) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if m.fallbackTTL > 0 {
		return now.Add(m.fallbackTTL)
	}
	return time.Time{}
}

func (m *Manager) load() error {
	if m.path == "" {
		return nil
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		// A corrupt file only means the user has to sign in again.
		appLog.Warn("session file unreadable; ignoring", "path", m.path, "err", err.Error())
		return nil
	}
	if s.Token == "" {
		return nil
	}
	m.current = &s
	return nil
}

func (m *Manager) save(s *Session) error {
	if m.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(m.path, data)
}
