package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all process-wide configuration, read once at startup and
// threaded explicitly through constructors — no component reads the
// environment directly below main().
type Config struct {
	Server     ServerConfig
	HA         HomeAssistantConfig
	Browser    BrowserConfig
	Serializer SerializerConfig
	Facade     FacadeConfig
	Scheduler  SchedulerConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // fixed at 10000 in the core; kept configurable for tests
	Mode string // gin mode: "debug", "release", "test"; default: "release"
}

// HomeAssistantConfig points the Browser Driver at the HA instance.
type HomeAssistantConfig struct {
	// URL is the HA base URL, no trailing slash.
	URL string

	// Token is the long-lived access token injected into page local storage.
	Token string

	// Mock, when true, allows startup without a token (MOCK_HA=1).
	Mock bool

	// Hosted selects the cold-start extra wait budget used by the driver's
	// first navigation (COLD_START_EXTRA_WAIT applies only when hosted).
	Hosted bool
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	Headless   bool   // default: true
	NoSandbox  bool   // default: false
	BrowserBin string // override Chromium binary path
}

// SerializerConfig controls the Request Serializer's idle/proactive cleanup.
type SerializerConfig struct {
	// BrowserTimeout is the idle duration after which the driver is destroyed.
	BrowserTimeout time.Duration // env BROWSER_TIMEOUT, default 60s

	// MaxScreenshotsBeforeRestart is the proactive-cleanup threshold; 0 disables it.
	MaxScreenshotsBeforeRestart int // env MAX_SCREENSHOTS_BEFORE_RESTART, default 100

	// KeepBrowserOpen disables both idle and proactive cleanup.
	KeepBrowserOpen bool

	// MaxNextRequests bounds the pending preload-timer queue.
	MaxNextRequests int // default 100
}

// FacadeConfig controls health evaluation and recovery.
type FacadeConfig struct {
	MaxFailures          int           // default 3
	StaleDuration        time.Duration // default 5m
	MaxRecoveryAttempts  int           // default 5
	BackoffBase          time.Duration // default 1s
	BackoffMax           time.Duration // default 30s
	LivenessProbeTimeout time.Duration // default 2s
}

// SchedulerConfig controls the cron/hot-reload scheduler and executor.
type SchedulerConfig struct {
	ReloadInterval       time.Duration // default 60s
	OutputDir            string        // default "./screenshots"
	RetentionMultiplier  int           // default 2
	// MaxRetries and RetryDelay are loaded but not read by package webhook,
	// which always makes up to 3 attempts 5s apart.
	MaxRetries           int           // env WEBHOOK_MAX_RETRIES, default 3
	RetryDelay           time.Duration // env WEBHOOK_RETRY_DELAY, default 5s
}

// RateLimitConfig throttles the screenshot and manual-execute endpoints
// independent of any identity (trusted-network assumption means no auth,
// not no backpressure).
type RateLimitConfig struct {
	RequestsPerSecond float64 // default 2
	Burst             int     // default 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default "info"
	Format string // "json" or "text"; default "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HOST", "0.0.0.0"),
			Port: envIntOr("PORT", 10000),
			Mode: envOr("GIN_MODE", "release"),
		},
		HA: HomeAssistantConfig{
			URL:    envOr("HA_URL", defaultHAURL(envBoolOr("HA_HOSTED", false))),
			Token:  os.Getenv("HA_TOKEN"),
			Mock:   envBoolOr("MOCK_HA", false),
			Hosted: envBoolOr("HA_HOSTED", false),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("BROWSER_HEADLESS", true),
			NoSandbox:  envBoolOr("BROWSER_NO_SANDBOX", false),
			BrowserBin: os.Getenv("BROWSER_BIN"),
		},
		Serializer: SerializerConfig{
			BrowserTimeout:              envDurationOr("BROWSER_TIMEOUT", 60*time.Second),
			MaxScreenshotsBeforeRestart: envIntOr("MAX_SCREENSHOTS_BEFORE_RESTART", 100),
			KeepBrowserOpen:             envBoolOr("KEEP_BROWSER_OPEN", false),
			MaxNextRequests:             envIntOr("MAX_NEXT_REQUESTS", 100),
		},
		Facade: FacadeConfig{
			MaxFailures:          envIntOr("MAX_FAILURES", 3),
			StaleDuration:        envDurationOr("STALE_DURATION", 5*time.Minute),
			MaxRecoveryAttempts:  envIntOr("MAX_RECOVERY_ATTEMPTS", 5),
			BackoffBase:          envDurationOr("RECOVERY_BACKOFF_BASE", 1*time.Second),
			BackoffMax:           envDurationOr("RECOVERY_BACKOFF_MAX", 30*time.Second),
			LivenessProbeTimeout: envDurationOr("LIVENESS_PROBE_TIMEOUT", 2*time.Second),
		},
		Scheduler: SchedulerConfig{
			ReloadInterval:      envDurationOr("SCHEDULER_RELOAD_INTERVAL", 60*time.Second),
			OutputDir:           envOr("OUTPUT_DIR", "./screenshots"),
			RetentionMultiplier: envIntOr("RETENTION_MULTIPLIER", 2),
			MaxRetries:          envIntOr("WEBHOOK_MAX_RETRIES", 3),
			RetryDelay:          envDurationOr("WEBHOOK_RETRY_DELAY", 5*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("RATE_RPS", 2.0),
			Burst:             envIntOr("RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
	}
}

func defaultHAURL(hosted bool) string {
	if hosted {
		return "http://homeassistant.local:8123"
	}
	return "http://localhost:8123"
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
