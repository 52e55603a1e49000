package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Generation metrics
	RecordsGenerated prometheus.Counter

	// Encoding metrics
	EncodeDuration *prometheus.HistogramVec
	FileSize       *prometheus.GaugeVec

	// Storage metrics
	UploadDuration *prometheus.HistogramVec
	BytesUploaded  *prometheus.CounterVec
	StorageErrors  *prometheus.CounterVec

	// Query metrics
	QueryDuration     *prometheus.HistogramVec
	QueryEvents       *prometheus.CounterVec
	QueryBytesScanned *prometheus.GaugeVec
	QueryPayloadBytes *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		RecordsGenerated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "records_generated_total",
				Help: "Total number of employee records generated",
			},
		),

		EncodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "encode_duration_seconds",
				Help:    "Duration of encoding the record set to a file",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),
		FileSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "file_size_bytes",
				Help: "Size of the encoded file",
			},
			[]string{"format"},
		),

		UploadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upload_duration_seconds",
				Help:    "Duration of object uploads",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"backend", "format"},
		),
		BytesUploaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_bytes_uploaded_total",
				Help: "Total number of bytes uploaded to the object store",
			},
			[]string{"backend"},
		),
		StorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"backend", "operation"},
		),

		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_duration_seconds",
				Help:    "Duration of filter queries from submit to end of stream",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"format"},
		),
		QueryEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_events_total",
				Help: "Total number of response stream events by kind",
			},
			[]string{"format", "kind"},
		),
		QueryBytesScanned: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "query_bytes_scanned",
				Help: "Bytes scanned by the last query as reported by the store",
			},
			[]string{"format"},
		),
		QueryPayloadBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_payload_bytes_total",
				Help: "Total number of record payload bytes received",
			},
			[]string{"format"},
		),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// AddRecordsGenerated adds to the generated records counter.
func (m *Metrics) AddRecordsGenerated(count float64) {
	m.RecordsGenerated.Add(count)
}

// ObserveEncodeDuration observes encode duration.
func (m *Metrics) ObserveEncodeDuration(format string, seconds float64) {
	m.EncodeDuration.WithLabelValues(format).Observe(seconds)
}

// SetFileSize sets the encoded file size.
func (m *Metrics) SetFileSize(format string, bytes float64) {
	m.FileSize.WithLabelValues(format).Set(bytes)
}

// ObserveUploadDuration observes upload duration.
func (m *Metrics) ObserveUploadDuration(backend, format string, seconds float64) {
	m.UploadDuration.WithLabelValues(backend, format).Observe(seconds)
}

// AddBytesUploaded adds to the uploaded bytes counter.
func (m *Metrics) AddBytesUploaded(backend string, bytes float64) {
	m.BytesUploaded.WithLabelValues(backend).Add(bytes)
}

// IncStorageErrors increments storage errors counter.
func (m *Metrics) IncStorageErrors(backend string, operation string) {
	m.StorageErrors.WithLabelValues(backend, operation).Inc()
}

// ObserveQueryDuration observes query duration.
func (m *Metrics) ObserveQueryDuration(format string, seconds float64) {
	m.QueryDuration.WithLabelValues(format).Observe(seconds)
}

// IncQueryEvents increments the stream event counter.
func (m *Metrics) IncQueryEvents(format, kind string) {
	m.QueryEvents.WithLabelValues(format, kind).Inc()
}

// SetQueryBytesScanned sets the bytes scanned gauge.
func (m *Metrics) SetQueryBytesScanned(format string, bytes float64) {
	m.QueryBytesScanned.WithLabelValues(format).Set(bytes)
}

// AddQueryPayloadBytes adds to the payload bytes counter.
func (m *Metrics) AddQueryPayloadBytes(format string, bytes float64) {
	m.QueryPayloadBytes.WithLabelValues(format).Add(bytes)
}

// PushConfig contains Pushgateway settings.
type PushConfig struct {
	URL   string
	Job   string
	RunID string
}

// Push sends every registered metric to a Prometheus Pushgateway, grouped by
// run ID when one is set.
func (m *Metrics) Push(ctx context.Context, cfg PushConfig) error {
	if cfg.URL == "" {
		return fmt.Errorf("pushgateway url is required")
	}
	job := cfg.Job
	if job == "" {
		job = "s3selectlab"
	}

	pusher := push.New(cfg.URL, job).Gatherer(m.registry)
	if cfg.RunID != "" {
		pusher = pusher.Grouping("run_id", cfg.RunID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
