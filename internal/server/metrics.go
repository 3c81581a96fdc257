package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libriscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "libriscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Recognition metrics
	decodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libriscan_decode_requests_total",
			Help: "Total number of one-shot decode requests",
		},
		[]string{"status"}, // status: hit, miss, error
	)

	recognitionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "libriscan_recognition_duration_seconds",
			Help:    "Frame arbitration duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	backendWinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libriscan_backend_wins_total",
			Help: "Accepted candidates by producing backend",
		},
		[]string{"method"},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "libriscan_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024},
		},
	)

	// Scan session metrics
	scanSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "libriscan_scan_sessions_active",
			Help: "Number of live WebSocket scan sessions",
		},
	)

	scanSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libriscan_scan_sessions_total",
			Help: "Completed scan sessions by outcome",
		},
		[]string{"outcome"}, // outcome: scanned, closed, error
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libriscan_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
