package metrics

import "time"

// ContentMetrics provides observability for byte store operations.
type ContentMetrics interface {
	// RecordOperation records a completed store operation and the number of
	// bytes it moved (0 for metadata-only calls such as stat).
	RecordOperation(operation string, duration time.Duration, bytes int64, err error)
}

// NewNoopContentMetrics returns a ContentMetrics that records nothing.
func NewNoopContentMetrics() ContentMetrics {
	return noopContentMetrics{}
}

type noopContentMetrics struct{}

func (noopContentMetrics) RecordOperation(operation string, duration time.Duration, bytes int64, err error) {
}
