package metrics

import "time"

// MetadataMetrics provides observability for metadata repository operations.
//
// This interface is optional - repositories given nil use NewNoopMetadataMetrics.
type MetadataMetrics interface {
	// RecordOperation records a completed repository operation.
	//
	// Parameters:
	//   - operation: Operation name (e.g., "save", "query_all", "query_slice")
	//   - duration: Time taken to complete the operation
	//   - err: Error if operation failed, nil if successful
	RecordOperation(operation string, duration time.Duration, err error)
}

// NewNoopMetadataMetrics returns a MetadataMetrics that records nothing.
func NewNoopMetadataMetrics() MetadataMetrics {
	return noopMetadataMetrics{}
}

type noopMetadataMetrics struct{}

func (noopMetadataMetrics) RecordOperation(operation string, duration time.Duration, err error) {}
