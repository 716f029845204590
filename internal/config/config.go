package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Variant selects which flavor of the control panel runs.
// - full: host-fallback resolution, admin-role gate, 4-probe overview
// - lite: single host, no role gate, 5-probe overview (adds the /live probe)
type Variant string

const (
	VariantFull Variant = "full" // default
	VariantLite Variant = "lite"
)

// HistoryType controls the invocation-history backend.
type HistoryType string

const (
	HistorySQLite HistoryType = "sqlite"
	HistoryMemory HistoryType = "memory"
	HistoryOff    HistoryType = "off"
)

// Features derived from VARIANT - centralized feature gating.
type Features struct {
	Fallback  bool // try the docker-internal host alias when the primary fails
	AdminGate bool // require the caller's role flag to match ADMIN_ROLE
	LiveProbe bool // include the bare-base /live probe in the overview
}

// Config contains all runtime configuration for the panel.
type Config struct {
	// Core
	Variant         Variant
	BaseURL         string
	DockerHostAlias string
	LogLevel        string

	// Timeouts
	Timeout       time.Duration // health/stats/listing requests
	PullTimeout   time.Duration
	DeleteTimeout time.Duration

	// Access control (full variant only)
	AdminRole string

	// Invocation history
	History        HistoryType
	HistoryPath    string
	HistoryMaxRows int

	// Observability
	MetricsAddr string // empty = metrics listener disabled

	// Presentation
	ModelListLimit int
}

// Features returns the feature flags derived from the current VARIANT.
// This is the central place for feature gating.
func (c *Config) Features() Features {
	if c.Variant == VariantLite {
		return Features{LiveProbe: true}
	}
	return Features{Fallback: true, AdminGate: true}
}

// Load parses env vars and returns a validated Config.
func Load() (Config, error) {
	cfg := Config{
		Variant:         Variant(getEnvString("VARIANT", string(VariantFull))),
		BaseURL:         getEnvString("BASE_URL", "http://localhost:8000"),
		DockerHostAlias: getEnvString("DOCKER_HOST_ALIAS", "host.docker.internal"),
		LogLevel:        getEnvString("LOG_LEVEL", "info"),

		Timeout:       getEnvDuration("TIMEOUT", 20*time.Second),
		PullTimeout:   getEnvDuration("PULL_TIMEOUT", 1800*time.Second),
		DeleteTimeout: getEnvDuration("DELETE_TIMEOUT", 180*time.Second),

		AdminRole: getEnvString("ADMIN_ROLE", "admin"),

		History:        HistoryType(getEnvString("HISTORY", string(HistorySQLite))),
		HistoryPath:    getEnvString("HISTORY_PATH", "/data/lemonade-panel.sqlite"),
		HistoryMaxRows: getEnvInt("HISTORY_MAX_ROWS", 3000),

		MetricsAddr: getEnvString("METRICS_ADDR", ""),

		ModelListLimit: getEnvInt("MODEL_LIST_LIMIT", 30),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks configuration constraints.
func (c Config) Validate() error {
	switch c.Variant {
	case VariantFull, VariantLite:
		// ok
	default:
		return fmt.Errorf("invalid VARIANT: %q (must be full|lite)", c.Variant)
	}

	u, err := url.Parse(strings.TrimRight(c.BaseURL, "/"))
	if err != nil {
		return fmt.Errorf("invalid BASE_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid BASE_URL: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("invalid BASE_URL: missing host")
	}

	if c.DockerHostAlias == "" {
		return fmt.Errorf("DOCKER_HOST_ALIAS must not be empty")
	}
	if strings.ContainsAny(c.DockerHostAlias, "/:@") {
		return fmt.Errorf("invalid DOCKER_HOST_ALIAS: %q (must be a bare hostname)", c.DockerHostAlias)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("TIMEOUT must be > 0")
	}
	if c.PullTimeout <= 0 {
		return fmt.Errorf("PULL_TIMEOUT must be > 0")
	}
	if c.DeleteTimeout <= 0 {
		return fmt.Errorf("DELETE_TIMEOUT must be > 0")
	}

	if c.AdminRole == "" {
		return fmt.Errorf("ADMIN_ROLE must not be empty")
	}

	switch c.History {
	case HistorySQLite, HistoryMemory, HistoryOff:
		// ok
	default:
		return fmt.Errorf("invalid HISTORY: %q (must be sqlite|memory|off)", c.History)
	}
	if c.HistoryMaxRows < 100 {
		return fmt.Errorf("HISTORY_MAX_ROWS must be >= 100")
	}

	if c.ModelListLimit <= 0 {
		return fmt.Errorf("MODEL_LIST_LIMIT must be > 0")
	}

	return nil
}

// Helper functions for parsing environment variables

func getEnvString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		v = strings.TrimSpace(v)
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// Bare integers are treated as seconds, matching the original
		// TIMEOUT_SECONDS-style knobs.
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
