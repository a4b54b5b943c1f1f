package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the ultrasonic modem service
type Metrics struct {
	// Embed pipeline metrics
	EmbedRequests   prometheus.Counter
	EmbedSuccesses  prometheus.Counter
	EmbedFailures   prometheus.Counter
	EmbedDuration   prometheus.Histogram
	CarrierDuration prometheus.Histogram
	PayloadSize     prometheus.Histogram

	// Decode pipeline metrics
	DecodeRequests  prometheus.Counter
	DecodeSuccesses prometheus.Counter
	DecodeFailures  *prometheus.CounterVec
	DecodeDuration  prometheus.Histogram

	// Signal analysis metrics
	AnalyzeRequests prometheus.Counter
	SignalStrength  prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// Decode failure reasons for the DecodeFailures counter.
const (
	ReasonInvalidAudio = "invalid_audio"
	ReasonNoSignal     = "no_signal"
)

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Embed pipeline metrics
		EmbedRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ultrasonic_embed_requests_total",
			Help: "Total number of embed requests",
		}),
		EmbedSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ultrasonic_embed_successes_total",
			Help: "Total number of successful embeds",
		}),
		EmbedFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ultrasonic_embed_failures_total",
			Help: "Total number of failed embeds",
		}),
		EmbedDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ultrasonic_embed_duration_seconds",
			Help:    "Time spent embedding commands into audio",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
		CarrierDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ultrasonic_carrier_duration_seconds",
			Help:    "Duration of generated carrier signals",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s to ~1 minute
		}),
		PayloadSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ultrasonic_payload_size_bytes",
			Help:    "Size of embedded payloads in bytes",
			Buckets: prometheus.ExponentialBuckets(16, 2, 10), // 16B to ~8KB
		}),

		// Decode pipeline metrics
		DecodeRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ultrasonic_decode_requests_total",
			Help: "Total number of decode requests",
		}),
		DecodeSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ultrasonic_decode_successes_total",
			Help: "Total number of successful decodes",
		}),
		DecodeFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ultrasonic_decode_failures_total",
			Help: "Total number of failed decodes by reason",
		}, []string{"reason"}),
		DecodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ultrasonic_decode_duration_seconds",
			Help:    "Time spent decoding commands from audio",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),

		// Signal analysis metrics
		AnalyzeRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ultrasonic_analyze_requests_total",
			Help: "Total number of analyze requests",
		}),
		SignalStrength: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ultrasonic_signal_strength",
			Help:    "Carrier-band RMS level of analyzed audio",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // 0.001 to ~0.5
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ultrasonic_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ultrasonic_http_request_duration_seconds",
			Help:    "HTTP request duration by endpoint",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ultrasonic_http_errors_total",
			Help: "Total number of HTTP error responses by endpoint",
		}, []string{"endpoint"}),
	}
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint, status string, duration float64) {
	m.HTTPRequests.WithLabelValues(endpoint, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordHTTPError records an HTTP error response
func (m *Metrics) RecordHTTPError(endpoint string) {
	m.HTTPErrors.WithLabelValues(endpoint).Inc()
}

// RecordDecodeFailure records a failed decode with its reason
func (m *Metrics) RecordDecodeFailure(reason string) {
	m.DecodeFailures.WithLabelValues(reason).Inc()
}
