package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Seat plan sources.
const (
	SeatSourceDatabase = "database"
	SeatSourceUpstream = "upstream"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Placeholder seat ids are only unique up to this many fallback columns.
const maxFallbackColumns = 10

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Attendance AttendanceConfig `yaml:"attendance"`
	SeatPlan   SeatPlanConfig   `yaml:"seat_plan"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// AttendanceConfig controls check-in eligibility.
type AttendanceConfig struct {
	// BufferMinutes is how early before class start a check-in is accepted.
	// Left unset it defaults to 10; an explicit 0 disables the grace period.
	BufferMinutes *int           `yaml:"buffer_minutes"`
	Timezone      string         `yaml:"timezone"`
	Location      *time.Location `yaml:"-"`
}

// Buffer returns the effective grace period.
func (a AttendanceConfig) Buffer() int {
	if a.BufferMinutes == nil {
		return 10
	}
	return *a.BufferMinutes
}

// SeatPlanConfig controls where seat plans come from and how the fallback
// plan is shaped.
type SeatPlanConfig struct {
	Source           string `yaml:"source"`
	FallbackRows     int    `yaml:"fallback_rows"`
	FallbackColumns  int    `yaml:"fallback_columns"`
	ProbeLimit       *int   `yaml:"probe_limit"`
	ProbeConcurrency int    `yaml:"probe_concurrency"`
	DefaultRows      int    `yaml:"default_rows"`
	DefaultColumns   int    `yaml:"default_columns"`
}

// Probes returns the probe bound; -1 lets the reconstructor pick its default.
func (s SeatPlanConfig) Probes() int {
	if s.ProbeLimit == nil {
		return -1
	}
	return *s.ProbeLimit
}

// UpstreamConfig describes the legacy SPOT API.
type UpstreamConfig struct {
	BaseURL        string            `yaml:"base_url"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Timeout        time.Duration     `yaml:"-"` // Ignored by YAML parser
	HTTPProxy      string            `yaml:"http_proxy"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogSQL                 bool   `yaml:"log_sql"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	switch cfg.Database.Driver {
	case "":
		cfg.Database.Driver = DriverPostgres
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database.driver %q", cfg.Database.Driver)
	}

	if cfg.Attendance.BufferMinutes != nil && *cfg.Attendance.BufferMinutes < 0 {
		log.Printf("Warning: attendance.buffer_minutes is negative; using 0")
		zero := 0
		cfg.Attendance.BufferMinutes = &zero
	}
	cfg.Attendance.Location = time.Local
	if cfg.Attendance.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Attendance.Timezone)
		if err != nil {
			return fmt.Errorf("failed to load timezone %q: %w", cfg.Attendance.Timezone, err)
		}
		cfg.Attendance.Location = loc
	}

	switch cfg.SeatPlan.Source {
	case "":
		cfg.SeatPlan.Source = SeatSourceDatabase
	case SeatSourceDatabase, SeatSourceUpstream:
	default:
		return fmt.Errorf("unsupported seat_plan.source %q", cfg.SeatPlan.Source)
	}
	if cfg.SeatPlan.Source == SeatSourceUpstream && cfg.Upstream.BaseURL == "" {
		return fmt.Errorf("seat_plan.source is %q but upstream.base_url is empty", SeatSourceUpstream)
	}
	if cfg.SeatPlan.FallbackRows <= 0 {
		cfg.SeatPlan.FallbackRows = 5
	}
	if cfg.SeatPlan.FallbackColumns <= 0 {
		cfg.SeatPlan.FallbackColumns = 6
	}
	if cfg.SeatPlan.FallbackColumns > maxFallbackColumns {
		return fmt.Errorf("seat_plan.fallback_columns must be at most %d, got %d", maxFallbackColumns, cfg.SeatPlan.FallbackColumns)
	}
	if cfg.SeatPlan.ProbeConcurrency <= 0 {
		cfg.SeatPlan.ProbeConcurrency = 4
	}
	if cfg.SeatPlan.DefaultRows <= 0 {
		cfg.SeatPlan.DefaultRows = 7
	}
	if cfg.SeatPlan.DefaultColumns <= 0 {
		cfg.SeatPlan.DefaultColumns = 4
	}

	if cfg.Upstream.TimeoutSeconds <= 0 {
		cfg.Upstream.TimeoutSeconds = 15
	}
	cfg.Upstream.Timeout = time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	return nil
}
