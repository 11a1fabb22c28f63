// Package config resolves the run configuration for the load driver.
//
// Configuration is resolved once at process start from environment
// variables (the primary interface, mirroring k6's -e flags), optionally
// layered over a YAML profile file, and is immutable afterwards.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"chaosdrive/internal/chaos"
)

// Defaults applied when the corresponding input is absent.
const (
	DefaultVUs          = 150
	DefaultDuration     = 3 * time.Minute
	DefaultTimeout      = 60 * time.Second
	DefaultPacing       = 1 * time.Second
	DefaultGracefulStop = 10 * time.Second
)

// Environment variable keys.
const (
	EnvUsers     = "USERS"
	EnvDuration  = "DUR"
	EnvURL       = "URL"
	EnvChaos     = "CHAOS"
	EnvLatency   = "LAT"
	EnvErrorRate = "ERR"
	EnvCPU       = "CPU"
)

// Config is the resolved, immutable run configuration shared read-only
// by every virtual user.
type Config struct {
	// VUs is the number of concurrent virtual users.
	VUs int

	// Duration is the total wall-clock length of the run.
	Duration time.Duration

	// URL is the target base URL. Required.
	URL string

	// Chaos is the precomputed chaos directive attached to every request.
	Chaos chaos.Spec

	// Timeout is the per-request client timeout.
	Timeout time.Duration

	// Pacing is the fixed delay between successive iterations of the
	// same virtual user.
	Pacing time.Duration

	// GracefulStop is how long to wait for in-flight requests once the
	// run duration has elapsed.
	GracefulStop time.Duration

	// Thresholds are optional pass/fail criteria evaluated after the run.
	Thresholds *Thresholds
}

// Thresholds define pass/fail criteria for the run summary.
type Thresholds struct {
	// MaxP95 fails the run if the p95 latency exceeds it.
	MaxP95 Duration `yaml:"maxP95"`

	// MaxErrorRate fails the run if the error fraction (0..1) exceeds it.
	MaxErrorRate float64 `yaml:"maxErrorRate"`
}

// ValidationError reports a fatal configuration problem. Configuration
// errors are the only fatal condition: they are reported before any
// traffic is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// Getenv returns the value of the environment variable key, or fallback
// if it is unset or empty.
func Getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// FromEnv resolves and validates a Config from the process environment
// alone.
//
// USERS defaults to 150 and silently falls back to the default when the
// value is not numeric; a numeric value that is zero or negative is a
// configuration error. DUR defaults to "3m"; a malformed or non-positive
// duration is a configuration error. URL is required.
func FromEnv() (*Config, error) {
	cfg, err := Resolve(nil)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve builds a Config by layering the process environment over an
// optional profile over the defaults. Environment values win over profile
// values; absent values fall through. The result is not validated, so
// callers can apply further overrides (flags) before calling Validate.
func Resolve(profile *Profile) (*Config, error) {
	cfg := &Config{
		VUs:          DefaultVUs,
		Duration:     DefaultDuration,
		Timeout:      DefaultTimeout,
		Pacing:       DefaultPacing,
		GracefulStop: DefaultGracefulStop,
	}

	var full, latency, errorRate, cpu string

	if profile != nil {
		if profile.VUs != 0 {
			cfg.VUs = profile.VUs
		}
		if profile.Duration != "" {
			dur, err := time.ParseDuration(profile.Duration)
			if err != nil {
				return nil, &ValidationError{Field: "duration", Message: fmt.Sprintf("cannot parse duration %q", profile.Duration)}
			}
			cfg.Duration = dur
		}
		cfg.URL = profile.URL
		cfg.Thresholds = profile.Thresholds
		full = profile.Chaos.Directive
		latency = profile.Chaos.Latency
		errorRate = profile.Chaos.ErrorRate
		cpu = profile.Chaos.CPU
	}

	if raw := Getenv(EnvUsers, ""); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			cfg.VUs = n
		}
	}

	if raw := Getenv(EnvDuration, ""); raw != "" {
		dur, err := time.ParseDuration(raw)
		if err != nil {
			return nil, &ValidationError{Field: EnvDuration, Message: fmt.Sprintf("cannot parse duration %q", raw)}
		}
		cfg.Duration = dur
	}

	cfg.URL = Getenv(EnvURL, cfg.URL)
	cfg.Chaos = chaos.Assemble(
		Getenv(EnvChaos, full),
		Getenv(EnvLatency, latency),
		Getenv(EnvErrorRate, errorRate),
		Getenv(EnvCPU, cpu),
	)
	return cfg, nil
}

// Validate checks the configuration, returning the first problem found.
func (c *Config) Validate() error {
	if c.URL == "" {
		return &ValidationError{Field: EnvURL, Message: "target URL is required"}
	}
	if c.VUs <= 0 {
		return &ValidationError{Field: EnvUsers, Message: fmt.Sprintf("virtual user count must be > 0, got %d", c.VUs)}
	}
	if c.Duration <= 0 {
		return &ValidationError{Field: EnvDuration, Message: fmt.Sprintf("duration must be > 0, got %s", c.Duration)}
	}
	if c.Thresholds != nil {
		if c.Thresholds.MaxErrorRate < 0 || c.Thresholds.MaxErrorRate > 1 {
			return &ValidationError{Field: "thresholds.maxErrorRate", Message: "must be between 0 and 1"}
		}
		if c.Thresholds.MaxP95 < 0 {
			return &ValidationError{Field: "thresholds.maxP95", Message: "must not be negative"}
		}
	}
	return nil
}
