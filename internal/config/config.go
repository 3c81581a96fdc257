package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/libriscan/libriscan/internal/arbiter"
	"github.com/libriscan/libriscan/internal/backend"
	"github.com/libriscan/libriscan/internal/camera"
	"github.com/libriscan/libriscan/internal/session"
)

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	if err := c.Backends.validate(); err != nil {
		return err
	}
	if err := c.Arbiter.validate(); err != nil {
		return err
	}
	if err := c.Scanner.validate(); err != nil {
		return err
	}
	if err := c.Lookup.validate(); err != nil {
		return err
	}
	return c.Server.validate()
}

func (c *Config) validateLogLevel() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("invalid log_level %q (must be debug, info, warn or error)", c.LogLevel)
	}
}

func (b *BackendsConfig) validate() error {
	if !b.NativeEnabled && !b.LibraryEnabled && !b.HeuristicEnabled && !b.CloudOCR.enabled() {
		return fmt.Errorf("at least one recognition backend must be enabled")
	}
	if b.CloudOCR.Endpoint != "" && b.CloudOCR.APIKey == "" {
		return fmt.Errorf("backends.cloud_ocr.api_key is required when an endpoint is set")
	}
	if b.CloudOCR.TimeoutSec < 0 {
		return fmt.Errorf("backends.cloud_ocr.timeout_sec must not be negative, got %d", b.CloudOCR.TimeoutSec)
	}
	return nil
}

func (c *CloudOCRConfig) enabled() bool {
	return c.Endpoint != "" && c.APIKey != ""
}

func (a *ArbiterConfig) validate() error {
	if a.MinConfidence < 0 || a.MinConfidence > 1 {
		return fmt.Errorf("arbiter.min_confidence must be between 0 and 1, got %g", a.MinConfidence)
	}
	if a.AttemptTimeoutSec < 0 {
		return fmt.Errorf("arbiter.attempt_timeout_sec must not be negative, got %d", a.AttemptTimeoutSec)
	}
	return nil
}

func (s *ScannerConfig) validate() error {
	if s.DetectIntervalMS < 0 {
		return fmt.Errorf("scanner.detect_interval_ms must not be negative, got %d", s.DetectIntervalMS)
	}
	if s.DebounceMS < 0 {
		return fmt.Errorf("scanner.debounce_ms must not be negative, got %d", s.DebounceMS)
	}
	if s.MissHintAfter < 0 {
		return fmt.Errorf("scanner.miss_hint_after must not be negative, got %d", s.MissHintAfter)
	}
	switch strings.ToLower(s.PreferredFacing) {
	case "", "rear", "front", "any":
		return nil
	default:
		return fmt.Errorf("invalid scanner.preferred_facing %q (must be rear, front or any)", s.PreferredFacing)
	}
}

func (l *LookupConfig) validate() error {
	if l.Enabled && l.Endpoint == "" {
		return fmt.Errorf("lookup.endpoint is required when lookup is enabled")
	}
	if l.TimeoutSec < 0 {
		return fmt.Errorf("lookup.timeout_sec must not be negative, got %d", l.TimeoutSec)
	}
	return nil
}

func (s *ServerConfig) validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port)
	}
	if s.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1, got %d", s.MaxUploadMB)
	}
	if s.TimeoutSec < 1 {
		return fmt.Errorf("server.timeout_sec must be at least 1, got %d", s.TimeoutSec)
	}
	if s.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative, got %d", s.ShutdownTimeout)
	}
	return nil
}

// ArbiterConfig converts the arbitration section to the arbiter package's
// native config.
func (c *Config) ArbiterConfig() arbiter.Config {
	return arbiter.Config{
		MinConfidence:  c.Arbiter.MinConfidence,
		AttemptTimeout: time.Duration(c.Arbiter.AttemptTimeoutSec) * time.Second,
	}
}

// SessionConfig converts the scanner section to the session package's
// native config.
func (c *Config) SessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.DetectInterval = time.Duration(c.Scanner.DetectIntervalMS) * time.Millisecond
	cfg.DebounceWindow = time.Duration(c.Scanner.DebounceMS) * time.Millisecond
	cfg.MissHintAfter = c.Scanner.MissHintAfter
	cfg.PreferredFacing = c.Facing()
	return cfg
}

// Facing maps the configured facing preference to a camera facing.
func (c *Config) Facing() camera.Facing {
	switch strings.ToLower(c.Scanner.PreferredFacing) {
	case "front":
		return camera.FacingFront
	case "rear":
		return camera.FacingRear
	default:
		return camera.FacingUnknown
	}
}

// BuildBackends constructs the enabled recognition backends in arbitration
// order. The slice is never empty for a validated config.
func (c *Config) BuildBackends() []backend.Backend {
	var out []backend.Backend
	if c.Backends.NativeEnabled {
		out = append(out, backend.NewNative())
	}
	if c.Backends.LibraryEnabled {
		out = append(out, backend.NewLibrary())
	}
	if c.Backends.CloudOCR.enabled() {
		out = append(out, backend.NewCloudOCR(backend.CloudOCRConfig{
			Endpoint: c.Backends.CloudOCR.Endpoint,
			APIKey:   c.Backends.CloudOCR.APIKey,
			Timeout:  time.Duration(c.Backends.CloudOCR.TimeoutSec) * time.Second,
		}, nil))
	}
	if c.Backends.HeuristicEnabled {
		out = append(out, backend.NewHeuristic())
	}
	return out
}
