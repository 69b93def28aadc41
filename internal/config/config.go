// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New(ctx) returns a Config holding every default.
//   - Load(ctx) layers an optional .env file, a YAML file and EXAMCAST_*
//     environment variables on top of the defaults.
//   - Errors wrap this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// LogFile, when set, tees logs into a size-rotated file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BundlePath is the model bundle artifact (.json, .yaml or .yml).
	BundlePath string `koanf:"bundle_path"`

	// WatchBundle reloads the bundle when the artifact changes on disk.
	WatchBundle bool `koanf:"watch_bundle"`

	// ReloadDebounceMS lets bursts of file events settle before reloading.
	ReloadDebounceMS int `koanf:"reload_debounce_ms"`

	// ONNXLibraryPath points at the onnxruntime shared library; only needed
	// for onnx bundles.
	ONNXLibraryPath string `koanf:"onnx_library_path"`

	// PassMark is the calibrated score counted as a pass.
	PassMark float64 `koanf:"pass_mark"`

	// FloorMargin is the minimum improvement over the last exam score.
	FloorMargin float64 `koanf:"floor_margin"`

	// MaxBodyBytes caps POST /predict bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// CORSAllowOrigin is sent as Access-Control-Allow-Origin.
	CORSAllowOrigin string `koanf:"cors_allow_origin"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		BundlePath:       "model.json",
		ReloadDebounceMS: 250,
		PassMark:         40,
		FloorMargin:      1,
		MaxBodyBytes:     1 << 20,
		CORSAllowOrigin:  "*",
	}
}

// ReloadDebounce returns ReloadDebounceMS as a duration.
func (c *Config) ReloadDebounce() time.Duration {
	return time.Duration(c.ReloadDebounceMS) * time.Millisecond
}

// Validate checks the fields the process cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.BundlePath) == "" {
		return fmt.Errorf("%w: bundle_path must not be empty", ErrInvalidConfig)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	if c.ReloadDebounceMS < 0 {
		return fmt.Errorf("%w: reload_debounce_ms must not be negative", ErrInvalidConfig)
	}
	if c.FloorMargin <= 0 {
		return fmt.Errorf("%w: floor_margin must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}
