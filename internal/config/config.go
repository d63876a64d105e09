package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"campuscal/internal/fsutil"
)

// ReferenceDateLayout is the on-disk format of reference_date.
const ReferenceDateLayout = "2006-01-02"

// Environment variables that override file values. They are read from the
// process environment after an optional .env file next to the config.
const (
	EnvBackendURL        = "CAMPUSCAL_BACKEND_URL"
	EnvBasicAuthUsername = "CAMPUSCAL_BASIC_AUTH_USERNAME"
	EnvBasicAuthPassword = "CAMPUSCAL_BASIC_AUTH_PASSWORD"
	EnvLogLevel          = "CAMPUSCAL_LOG_LEVEL"
)

// BackendConfig describes the academic REST backend.
type BackendConfig struct {
	// BaseURL includes the API prefix, e.g. "http://localhost:8080/api".
	BaseURL string `yaml:"base_url" json:"base_url"`
	// TimeoutSeconds bounds every backend call.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	// Cache enables the on-disk fallback cache for GET responses.
	Cache bool `yaml:"cache" json:"cache"`
}

// SessionConfig controls the persisted login session.
type SessionConfig struct {
	// FallbackTTLHours applies when the token carries no exp claim.
	FallbackTTLHours int `yaml:"fallback_ttl_hours" json:"fallback_ttl_hours"`
}

// SyntheticConfig toggles the generated calendar data.
type SyntheticConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// FillMissingSchedules gives courses without schedules a generated
	// two-day weekly timetable.
	FillMissingSchedules bool `yaml:"fill_missing_schedules" json:"fill_missing_schedules"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone all calendar dates are materialized in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday starts the week grid:
	//   - "sunday" (default)
	//   - "monday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron-style schedule for the background course refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// ReferenceDate pins "today" (YYYY-MM-DD). Empty means the wall clock.
	ReferenceDate string `yaml:"reference_date" json:"reference_date"`

	// TeacherWeeks is how many weeks after the current one the teacher
	// calendar materializes.
	TeacherWeeks int `yaml:"teacher_weeks" json:"teacher_weeks"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// DataDir holds the session file, the local event database and the
	// backend response cache.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// CacheTTLSeconds is the lifetime of cached calendar responses.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`

	Backend   BackendConfig   `yaml:"backend" json:"backend"`
	Session   SessionConfig   `yaml:"session" json:"session"`
	Synthetic SyntheticConfig `yaml:"synthetic" json:"synthetic"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "127.0.0.1:8081",
		Timezone:        "UTC",
		WeekStart:       "sunday",
		RefreshCron:     "*/15 * * * *",
		ReferenceDate:   "2025-05-17",
		TeacherWeeks:    3,
		LogLevel:        "info",
		DataDir:         "./var",
		CacheTTLSeconds: 30,
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8080/api",
			TimeoutSeconds: 15,
			Cache:          true,
		},
		Session: SessionConfig{
			FallbackTTLHours: 24,
		},
		Synthetic: SyntheticConfig{
			Enabled: true,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch strings.ToLower(c.WeekStart) {
	case "monday", "sunday":
		c.WeekStart = strings.ToLower(c.WeekStart)
	default:
		c.WeekStart = def.WeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.TeacherWeeks <= 0 {
		c.TeacherWeeks = def.TeacherWeeks
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.CacheTTLSeconds < 0 {
		c.CacheTTLSeconds = 0
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = def.Backend.BaseURL
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = def.Backend.TimeoutSeconds
	}
	if c.Session.FallbackTTLHours <= 0 {
		c.Session.FallbackTTLHours = def.Session.FallbackTTLHours
	}
}

// Validate reports values that cannot be repaired by Normalize.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.ReferenceDate != "" {
		if _, err := time.Parse(ReferenceDateLayout, c.ReferenceDate); err != nil {
			return fmt.Errorf("reference_date %q: %w", c.ReferenceDate, err)
		}
	}
	return nil
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WeekStartDay maps WeekStart to a weekday.
func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// Today returns the reference "today" at midnight in the display timezone.
func (c *Config) Today(now time.Time) time.Time {
	loc := c.Location()
	if c.ReferenceDate != "" {
		if t, err := time.ParseInLocation(ReferenceDateLayout, c.ReferenceDate, loc); err == nil {
			return t
		}
	}
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) SessionFallbackTTL() time.Duration {
	return time.Duration(c.Session.FallbackTTLHours) * time.Hour
}

func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.json")
}

func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "campuscal.db")
}

func (c *Config) CacheDir() string {
	return filepath.Join(c.DataDir, "backend-cache")
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - If the file exists, YAML is unmarshaled into Config and normalized.
//   - In both cases environment overrides are applied last; a .env file in
//     the config directory is loaded first if present.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg, err := loadFile(path)
	if err != nil {
		return cfg, err
	}

	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envPath, err)
	}
	cfg.applyEnv()
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	// Keys missing from the file keep their defaults.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// applyEnv overlays secrets and deployment values from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	user := os.Getenv(EnvBasicAuthUsername)
	pass := os.Getenv(EnvBasicAuthPassword)
	if user != "" || pass != "" {
		if c.BasicAuth == nil {
			c.BasicAuth = &BasicAuthConfig{}
		}
		if user != "" {
			c.BasicAuth.Username = user
		}
		if pass != "" {
			c.BasicAuth.Password = pass
		}
	}
}

// Save writes the given configuration to the specified path atomically.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
