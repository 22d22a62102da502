package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every application metric.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RateLimitedTotal     *prometheus.CounterVec

	// Auth
	UsersRegisteredTotal prometheus.Counter
	LoginAttemptsTotal   *prometheus.CounterVec

	// Emotion classification
	ClassificationsTotal   *prometheus.CounterVec
	ClassificationDuration *prometheus.HistogramVec

	// Journal analysis
	EntriesCreatedTotal     prometheus.Counter
	AnalysisProcessedTotal  *prometheus.CounterVec
	AnalysisFailedTotal     *prometheus.CounterVec
	AnalysisProcessDuration prometheus.Histogram

	// Cache (Redis)
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Queue (RabbitMQ)
	QueueMessagesPublished *prometheus.CounterVec
	QueueMessagesConsumed  *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		RateLimitedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
			[]string{"limiter"},
		),

		UsersRegisteredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "users_registered_total",
				Help: "Total number of registered users",
			},
		),

		LoginAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"}, // success, invalid_credentials, error
		),

		ClassificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emotion_classifications_total",
				Help: "Total number of emotion classification calls to the provider",
			},
			[]string{"status"}, // success, failed
		),

		ClassificationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emotion_classification_duration_seconds",
				Help:    "Duration of provider classification calls in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"model"},
		),

		EntriesCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "journal_entries_created_total",
				Help: "Total number of journal entries created",
			},
		),

		AnalysisProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journal_analysis_processed_total",
				Help: "Total number of journal entries analyzed",
			},
			[]string{"status"}, // analyzed, failed
		),

		AnalysisFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journal_analysis_failed_total",
				Help: "Total number of journal analysis failures",
			},
			[]string{"error_type"},
		),

		AnalysisProcessDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "journal_analysis_duration_seconds",
				Help:    "Duration of journal entry analysis in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"key_type"},
		),

		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"key_type"},
		),

		QueueMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_published_total",
				Help: "Total number of messages published to the queue",
			},
			[]string{"queue_name"},
		),

		QueueMessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_consumed_total",
				Help: "Total number of messages consumed from the queue",
			},
			[]string{"queue_name"},
		),
	}
}

// GlobalMetrics is registered with the default Prometheus registry, which
// promhttp.Handler serves.
var GlobalMetrics = NewMetrics(prometheus.DefaultRegisterer)
