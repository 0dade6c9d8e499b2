package prometheus

import (
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// diskMetrics is the Prometheus implementation of metrics.DiskMetrics.
type diskMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
}

// NewDiskMetrics creates a new Prometheus-backed DiskMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewDiskMetrics() metrics.DiskMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopDiskMetrics()
	}
	return newDiskMetrics(metrics.GetRegistry())
}

func newDiskMetrics(reg prometheus.Registerer) *diskMetrics {
	return &diskMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcdisk_operations_total",
				Help: "Total number of disk operations by operation, status, and error code",
			},
			[]string{"operation", "status", "error_code"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dcdisk_operation_duration_seconds",
				Help: "Duration of disk operations in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.1,   // 100ms
					1,     // 1s
					10,    // 10s
					60,    // 1m
				},
			},
			[]string{"operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcdisk_bytes_transferred_total",
				Help: "Total payload bytes moved by uploads (in) and downloads (out)",
			},
			[]string{"direction"},
		),
	}
}

func (m *diskMetrics) RecordOperation(operation string, duration time.Duration, errorCode string) {
	status := "success"
	if errorCode != "" {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(operation, status, errorCode).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *diskMetrics) RecordBytesTransferred(direction string, bytes int64) {
	if bytes <= 0 {
		return
	}
	m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
}
