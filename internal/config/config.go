package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr               string
	DBPath             string
	LogLevel           string
	ArchiveWorkerCount int
	ArchiveQueueSize   int
	BreakInterval      time.Duration
	BreakDuration      time.Duration
	PollInterval       time.Duration
	MinSessionHours    float64
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		DBPath:             envOr("DB_PATH", "file:scholarsrs.db"),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		ArchiveWorkerCount: envIntOr("ARCHIVE_WORKER_COUNT", 1),
		ArchiveQueueSize:   envIntOr("ARCHIVE_QUEUE_SIZE", 16),
		BreakInterval:      envDurationOr("BREAK_INTERVAL", 25*time.Minute),
		BreakDuration:      envDurationOr("BREAK_DURATION", 5*time.Minute),
		PollInterval:       envDurationOr("POLL_INTERVAL", 50*time.Millisecond),
		MinSessionHours:    envFloatOr("MIN_SESSION_HOURS", 0.5),
		RateLimitRPS:       envFloatOr("RATE_LIMIT_RPS", 20),
		RateLimitBurst:     envIntOr("RATE_LIMIT_BURST", 40),
	}
}

// Validate reports every invalid setting in one error.
func (c Config) Validate() error {
	var problems []string
	if c.Addr == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if c.DBPath == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if c.ArchiveWorkerCount <= 0 {
		problems = append(problems, "ARCHIVE_WORKER_COUNT must be positive")
	}
	if c.ArchiveQueueSize <= 0 {
		problems = append(problems, "ARCHIVE_QUEUE_SIZE must be positive")
	}
	if c.BreakInterval <= 0 {
		problems = append(problems, "BREAK_INTERVAL must be positive")
	}
	if c.BreakDuration <= 0 {
		problems = append(problems, "BREAK_DURATION must be positive")
	}
	if c.PollInterval <= 0 {
		problems = append(problems, "POLL_INTERVAL must be positive")
	}
	if c.MinSessionHours <= 0 {
		problems = append(problems, "MIN_SESSION_HOURS must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		problems = append(problems, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
