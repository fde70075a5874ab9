package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// SSRF guard modes.
const (
	SSRFPrefix = "prefix"
	SSRFStrict = "strict"
)

// Config holds all application configuration.
type Config struct {
	// Walk settings
	MaxRedirects   int
	HopTimeout     time.Duration
	UserAgent      string
	SSRFMode       string
	BodyDrainLimit int64

	// Server settings
	ServerAddress  string
	RateLimitRPS   float64
	RateLimitBurst int

	// Logging
	LogLevel  string
	LogFormat string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxRedirects:   10,
		HopTimeout:     8 * time.Second,
		UserAgent:      "Mozilla/5.0 (compatible; LinkFlow/1.0)",
		SSRFMode:       SSRFPrefix,
		BodyDrainLimit: 64 << 10,
		ServerAddress:  ":8080",
		RateLimitRPS:   5,
		RateLimitBurst: 10,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load returns Default overridden by LINKFLOW_* environment variables.
// Malformed values are logged and ignored.
func Load() Config {
	d := Default()
	return Config{
		MaxRedirects:   getIntEnv("LINKFLOW_MAX_REDIRECTS", d.MaxRedirects),
		HopTimeout:     getDurationEnv("LINKFLOW_HOP_TIMEOUT", d.HopTimeout),
		UserAgent:      getEnv("LINKFLOW_USER_AGENT", d.UserAgent),
		SSRFMode:       getEnv("LINKFLOW_SSRF_MODE", d.SSRFMode),
		BodyDrainLimit: getInt64Env("LINKFLOW_BODY_DRAIN_LIMIT", d.BodyDrainLimit),
		ServerAddress:  getEnv("LINKFLOW_ADDR", d.ServerAddress),
		RateLimitRPS:   getFloatEnv("LINKFLOW_RATE_LIMIT_RPS", d.RateLimitRPS),
		RateLimitBurst: getIntEnv("LINKFLOW_RATE_LIMIT_BURST", d.RateLimitBurst),
		LogLevel:       getEnv("LINKFLOW_LOG_LEVEL", d.LogLevel),
		LogFormat:      getEnv("LINKFLOW_LOG_FORMAT", d.LogFormat),
	}
}

// Validate rejects settings that would make a walk unbounded or meaningless.
func (c Config) Validate() error {
	if c.MaxRedirects <= 0 {
		return fmt.Errorf("max redirects must be > 0 (got %d)", c.MaxRedirects)
	}
	if c.HopTimeout <= 0 {
		return fmt.Errorf("hop timeout must be > 0 (got %s)", c.HopTimeout)
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		return fmt.Errorf("user agent must not be empty")
	}
	switch c.SSRFMode {
	case SSRFPrefix, SSRFStrict:
	default:
		return fmt.Errorf("ssrf mode must be %q or %q (got %q)", SSRFPrefix, SSRFStrict, c.SSRFMode)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit must be >= 0 (got %v)", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be > 0 when limiting (got %d)", c.RateLimitBurst)
	}
	return nil
}

// WorstCase is the longest a single walk can take before it must return.
func (c Config) WorstCase() time.Duration {
	return time.Duration(c.MaxRedirects) * c.HopTimeout
}

// Fields returns the configuration as log fields.
func (c Config) Fields() logrus.Fields {
	return logrus.Fields{
		"max_redirects":    c.MaxRedirects,
		"hop_timeout":      c.HopTimeout.String(),
		"worst_case":       c.WorstCase().String(),
		"user_agent":       c.UserAgent,
		"ssrf_mode":        c.SSRFMode,
		"body_drain_limit": c.BodyDrainLimit,
		"addr":             c.ServerAddress,
		"rate_limit_rps":   c.RateLimitRPS,
		"rate_limit_burst": c.RateLimitBurst,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
		logrus.Warnf("invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
		logrus.Warnf("invalid int64 value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
		logrus.Warnf("invalid float value for %s: %s, using default: %v", key, value, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
		logrus.Warnf("invalid duration value for %s: %s, using default: %v", key, value, defaultValue)
	}
	return defaultValue
}
