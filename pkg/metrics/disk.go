package metrics

import "time"

// DiskMetrics provides observability for the disk service operations
// (list, upload, download).
//
// Example usage:
//
//	// With metrics enabled
//	svc := disk.NewService(cfg, prometheus.NewDiskMetrics())
//
//	// Without metrics (no-op)
//	svc := disk.NewService(cfg, nil)
type DiskMetrics interface {
	// RecordOperation records a finished operation.
	//
	// Parameters:
	//   - operation: "list", "upload" or "download"
	//   - duration: Time taken
	//   - errorCode: Stable error code, empty on success
	RecordOperation(operation string, duration time.Duration, errorCode string)

	// RecordBytesTransferred records payload bytes.
	//
	// Parameters:
	//   - direction: "in" (upload) or "out" (download)
	//   - bytes: Number of bytes transferred
	RecordBytesTransferred(direction string, bytes int64)
}

// HTTPMetrics provides observability for the HTTP adapter.
type HTTPMetrics interface {
	// RecordRequest records a completed HTTP request.
	RecordRequest(route string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight gauge for route.
	RecordRequestStart(route string)

	// RecordRequestEnd decrements the in-flight gauge for route.
	RecordRequestEnd(route string)

	// RecordRateLimited counts a request rejected by the rate limiter.
	RecordRateLimited()
}

// NewNoopDiskMetrics returns a DiskMetrics that records nothing.
func NewNoopDiskMetrics() DiskMetrics {
	return noopDiskMetrics{}
}

// NewNoopHTTPMetrics returns an HTTPMetrics that records nothing.
func NewNoopHTTPMetrics() HTTPMetrics {
	return noopHTTPMetrics{}
}

type noopDiskMetrics struct{}

func (noopDiskMetrics) RecordOperation(operation string, duration time.Duration, errorCode string) {}
func (noopDiskMetrics) RecordBytesTransferred(direction string, bytes int64)                       {}

type noopHTTPMetrics struct{}

func (noopHTTPMetrics) RecordRequest(route string, status int, duration time.Duration) {}
func (noopHTTPMetrics) RecordRequestStart(route string)                                {}
func (noopHTTPMetrics) RecordRequestEnd(route string)                                  {}
func (noopHTTPMetrics) RecordRateLimited()                                             {}
