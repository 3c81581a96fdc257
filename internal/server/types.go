// Package server exposes the recognition engine over HTTP: one-shot decoding
// of uploaded images, a WebSocket endpoint for live scan sessions fed by
// browser frames, health and Prometheus metrics.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/libriscan/libriscan/internal/arbiter"
	"github.com/libriscan/libriscan/internal/bibdata"
	"github.com/libriscan/libriscan/internal/session"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	arb         *arbiter.Arbiter
	lookup      *bibdata.Client // nil disables metadata enrichment
	sessionCfg  session.Config
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
}

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxUploadMB     int64
	TimeoutSec      int
	ShutdownTimeout int
}

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// DecodeResponse is the /decode payload. The attempt counters are reported
// on misses too so clients can tell "nothing ran" from "everything missed".
type DecodeResponse struct {
	Success    bool          `json:"success"`
	ISBN       string        `json:"isbn,omitempty"`
	ISBN13     string        `json:"isbn13,omitempty"`
	Format     string        `json:"format,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	Method     string        `json:"method,omitempty"`
	Attempted  int           `json:"attempted"`
	Produced   int           `json:"produced"`
	Valid      int           `json:"valid"`
	Book       *bibdata.Book `json:"book,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// NewServer creates a recognition server. A nil lookup client disables the
// optional bibliographic enrichment of decode results.
func NewServer(cfg Config, arb *arbiter.Arbiter, lookup *bibdata.Client, sessionCfg session.Config) *Server {
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = 30
	}
	return &Server{
		arb:         arb,
		lookup:      lookup,
		sessionCfg:  sessionCfg,
		corsOrigin:  cfg.CORSOrigin,
		maxUploadMB: cfg.MaxUploadMB,
		timeoutSec:  cfg.TimeoutSec,
	}
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/decode", s.corsMiddleware(s.decodeHandler))
	mux.HandleFunc("/scan", s.scanWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
