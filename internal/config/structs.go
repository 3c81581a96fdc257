package config

import (
	"time"

	"github.com/libriscan/libriscan/internal/arbiter"
	"github.com/libriscan/libriscan/internal/backend"
	"github.com/libriscan/libriscan/internal/session"
)

// Config represents the complete configuration for the libriscan application.
// It covers every command (decode, scan, devices, serve) and supports loading
// from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Recognition backend settings
	Backends BackendsConfig `mapstructure:"backends" yaml:"backends" json:"backends"`

	// Arbitration settings
	Arbiter ArbiterConfig `mapstructure:"arbiter" yaml:"arbiter" json:"arbiter"`

	// Scanner session settings
	Scanner ScannerConfig `mapstructure:"scanner" yaml:"scanner" json:"scanner"`

	// Bibliographic lookup settings
	Lookup LookupConfig `mapstructure:"lookup" yaml:"lookup" json:"lookup"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// BackendsConfig selects which recognition backends participate and carries
// their per-backend settings.
type BackendsConfig struct {
	NativeEnabled    bool           `mapstructure:"native_enabled" yaml:"native_enabled" json:"native_enabled"`
	LibraryEnabled   bool           `mapstructure:"library_enabled" yaml:"library_enabled" json:"library_enabled"`
	HeuristicEnabled bool           `mapstructure:"heuristic_enabled" yaml:"heuristic_enabled" json:"heuristic_enabled"`
	CloudOCR         CloudOCRConfig `mapstructure:"cloud_ocr" yaml:"cloud_ocr" json:"cloud_ocr"`
}

// CloudOCRConfig carries the credentials for the cloud OCR fallback. The
// backend stays disabled unless both endpoint and API key are set.
type CloudOCRConfig struct {
	Endpoint   string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key" json:"api_key"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// ArbiterConfig contains candidate arbitration settings.
type ArbiterConfig struct {
	MinConfidence     float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	AttemptTimeoutSec int     `mapstructure:"attempt_timeout_sec" yaml:"attempt_timeout_sec" json:"attempt_timeout_sec"`
}

// ScannerConfig contains continuous-scan session settings.
type ScannerConfig struct {
	DetectIntervalMS int    `mapstructure:"detect_interval_ms" yaml:"detect_interval_ms" json:"detect_interval_ms"`
	DebounceMS       int    `mapstructure:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`
	MissHintAfter    int    `mapstructure:"miss_hint_after" yaml:"miss_hint_after" json:"miss_hint_after"`
	PreferredFacing  string `mapstructure:"preferred_facing" yaml:"preferred_facing" json:"preferred_facing"`
}

// LookupConfig contains bibliographic metadata lookup settings.
type LookupConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint   string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns a configuration with sensible defaults for all commands.
func DefaultConfig() *Config {
	arb := arbiter.DefaultConfig()
	sess := session.DefaultConfig()
	return &Config{
		LogLevel: "info",
		Verbose:  false,
		Backends: BackendsConfig{
			NativeEnabled:    true,
			LibraryEnabled:   true,
			HeuristicEnabled: true,
			CloudOCR: CloudOCRConfig{
				TimeoutSec: int(backend.DefaultCloudOCRTimeout / time.Second),
			},
		},
		Arbiter: ArbiterConfig{
			MinConfidence:     arb.MinConfidence,
			AttemptTimeoutSec: int(arb.AttemptTimeout / time.Second),
		},
		Scanner: ScannerConfig{
			DetectIntervalMS: int(sess.DetectInterval / time.Millisecond),
			DebounceMS:       int(sess.DebounceWindow / time.Millisecond),
			MissHintAfter:    sess.MissHintAfter,
			PreferredFacing:  "rear",
		},
		Lookup: LookupConfig{
			Enabled:    false,
			Endpoint:   "https://openlibrary.org",
			TimeoutSec: 10,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     10,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
	}
}
