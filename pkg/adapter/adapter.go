package adapter

import (
	"context"

	"github.com/dcnetdisk/dcdisk/pkg/disk"
)

// Adapter represents a transport that exposes the disk service, managed by
// the dcdisk server.
//
// Lifecycle:
//  1. Creation: Adapter is created with transport-specific configuration
//  2. Service injection: SetService() provides the shared disk service
//  3. Startup: Serve() starts the listener and blocks until shutdown
//  4. Shutdown: Stop() initiates graceful shutdown with timeout
//
// Thread safety:
// Implementations must be safe for concurrent use. SetService() is called
// once before Serve(), but Stop() may be called concurrently with Serve().
type Adapter interface {
	// Serve starts the transport and blocks until the context is cancelled
	// or an unrecoverable error occurs.
	//
	// When the context is cancelled, Serve must initiate graceful shutdown:
	//   - Stop accepting new connections
	//   - Wait for in-flight requests to complete (with timeout)
	//   - Return context.Canceled or nil
	//
	// If Serve returns before context cancellation, the server treats it as
	// a fatal error and stops all other adapters.
	Serve(ctx context.Context) error

	// SetService injects the disk service shared by all adapters.
	//
	// Called exactly once before Serve(), no synchronization needed.
	SetService(svc *disk.Service)

	// Stop initiates graceful shutdown.
	//
	// Implementations must be idempotent, safe to call concurrently with
	// Serve(), and respect the context deadline.
	Stop(ctx context.Context) error

	// Protocol returns the transport name for logging and metrics ("HTTP").
	Protocol() string

	// Port returns the TCP port the adapter listens on.
	Port() int
}
