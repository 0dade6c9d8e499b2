package prometheus

import (
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metadataMetrics is the Prometheus implementation of metrics.MetadataMetrics.
type metadataMetrics struct {
	storeType         string
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewMetadataMetrics creates Prometheus-backed repository metrics labelled
// with storeType ("memory", "badger", "postgres").
//
// Returns a no-op implementation if metrics are not enabled.
func NewMetadataMetrics(storeType string) metrics.MetadataMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopMetadataMetrics()
	}
	return newMetadataMetrics(metrics.GetRegistry(), storeType)
}

func newMetadataMetrics(reg prometheus.Registerer, storeType string) *metadataMetrics {
	return &metadataMetrics{
		storeType: storeType,
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcdisk_metadata_operations_total",
				Help: "Total number of metadata operations by store type, operation, and status",
			},
			[]string{"store_type", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dcdisk_metadata_operation_duration_seconds",
				Help: "Duration of metadata operations in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.001,  // 1ms
					0.01,   // 10ms
					0.1,    // 100ms
					1.0,    // 1s
				},
			},
			[]string{"store_type", "operation"},
		),
	}
}

func (m *metadataMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	m.operationsTotal.WithLabelValues(m.storeType, operation, statusOf(err)).Inc()
	m.operationDuration.WithLabelValues(m.storeType, operation).Observe(duration.Seconds())
}

// contentMetrics is the Prometheus implementation of metrics.ContentMetrics.
type contentMetrics struct {
	storeType         string
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
}

// NewContentMetrics creates Prometheus-backed byte store metrics labelled
// with storeType ("filesystem", "s3").
//
// Returns a no-op implementation if metrics are not enabled.
func NewContentMetrics(storeType string) metrics.ContentMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopContentMetrics()
	}
	return newContentMetrics(metrics.GetRegistry(), storeType)
}

func newContentMetrics(reg prometheus.Registerer, storeType string) *contentMetrics {
	return &contentMetrics{
		storeType: storeType,
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcdisk_content_operations_total",
				Help: "Total number of byte store operations by store type, operation, and status",
			},
			[]string{"store_type", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dcdisk_content_operation_duration_seconds",
				Help: "Duration of byte store operations in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.1,   // 100ms
					1,     // 1s
					10,    // 10s
				},
			},
			[]string{"store_type", "operation"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcdisk_content_bytes_total",
				Help: "Total bytes written to or read from the byte store",
			},
			[]string{"store_type", "operation"},
		),
	}
}

func (m *contentMetrics) RecordOperation(operation string, duration time.Duration, bytes int64, err error) {
	m.operationsTotal.WithLabelValues(m.storeType, operation, statusOf(err)).Inc()
	m.operationDuration.WithLabelValues(m.storeType, operation).Observe(duration.Seconds())
	if bytes > 0 && err == nil {
		m.bytesTotal.WithLabelValues(m.storeType, operation).Add(float64(bytes))
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
