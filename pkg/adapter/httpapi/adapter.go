package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/internal/ratelimiter"
	"github.com/dcnetdisk/dcdisk/pkg/adapter"
	"github.com/dcnetdisk/dcdisk/pkg/disk"
	"github.com/dcnetdisk/dcdisk/pkg/metrics"
)

// HTTPAdapter serves the disk service over HTTP: the JSON API under
// /api/v1, an HTML listing under /web and a health probe.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. http.Server.Shutdown stops accepting connections and waits for
//     in-flight requests (up to ShutdownTimeout)
//  3. Remaining connections are closed forcibly after the timeout
//
// Thread safety:
// All methods are safe for concurrent use. Stop is idempotent.
type HTTPAdapter struct {
	config  HTTPConfig
	service *disk.Service
	metrics metrics.HTTPMetrics
	limiter *ratelimiter.KeyedLimiter

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener

	shutdownOnce sync.Once
	shutdown     chan struct{}
	stopErr      error
}

var _ adapter.Adapter = (*HTTPAdapter)(nil)

// HTTPConfig holds configuration parameters for the HTTP server.
//
// Default values (applied by New if zero):
//   - Port: 8080
//   - ReadTimeout: 5m (uploads stream through the request body)
//   - WriteTimeout: 5m (downloads stream through the response)
//   - IdleTimeout: 2m
//   - ShutdownTimeout: 30s
type HTTPConfig struct {
	// Enabled controls whether the HTTP adapter is started.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the TCP port to listen on.
	Port int `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"min=0"`

	// ShutdownTimeout bounds the wait for in-flight requests on shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"min=0"`

	// MaxUploadBytes caps the request body of an upload. 0 means unlimited.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" validate:"min=0"`

	// RateLimit throttles requests per session token (or client IP when
	// no token is sent).
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. 0 disables limiting.
	RequestsPerSecond uint `mapstructure:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the bucket size. Defaults to RequestsPerSecond.
	Burst uint `mapstructure:"burst" yaml:"burst"`
}

// ApplyDefaults replaces zero values with the documented defaults.
func (c *HTTPConfig) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Minute
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 2 * time.Minute
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

func (c *HTTPConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("invalid timeouts: must be >= 0")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("invalid MaxUploadBytes %d: must be >= 0", c.MaxUploadBytes)
	}
	return nil
}

// New creates an HTTPAdapter. Zero values in config are replaced with
// defaults; an invalid config panics (programmer error).
func New(config HTTPConfig, httpMetrics metrics.HTTPMetrics) *HTTPAdapter {
	config.ApplyDefaults()
	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid HTTP config: %v", err))
	}

	if httpMetrics == nil {
		httpMetrics = metrics.NewNoopHTTPMetrics()
	}

	burst := config.RateLimit.Burst
	if burst == 0 {
		burst = config.RateLimit.RequestsPerSecond
	}

	return &HTTPAdapter{
		config:   config,
		metrics:  httpMetrics,
		limiter:  ratelimiter.NewKeyed(config.RateLimit.RequestsPerSecond, burst, 10*time.Minute),
		shutdown: make(chan struct{}),
	}
}

// SetService injects the disk service.
func (a *HTTPAdapter) SetService(svc *disk.Service) {
	a.service = svc
	logger.Debug("HTTP adapter service configured")
}

// Serve listens on the configured port and blocks until ctx is cancelled,
// Stop is called, or the listener fails.
func (a *HTTPAdapter) Serve(ctx context.Context) error {
	if a.service == nil {
		return errors.New("HTTP adapter has no service: call SetService before Serve")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.config.Port))
	if err != nil {
		return fmt.Errorf("failed to create HTTP listener on port %d: %w", a.config.Port, err)
	}

	srv := &http.Server{
		Handler:           a.Handler(),
		ReadTimeout:       a.config.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      a.config.WriteTimeout,
		IdleTimeout:       a.config.IdleTimeout,
	}

	a.mu.Lock()
	select {
	case <-a.shutdown:
		a.mu.Unlock()
		_ = listener.Close()
		return nil
	default:
	}
	a.server = srv
	a.listener = listener
	a.mu.Unlock()

	logger.Info("HTTP server listening on port %d", a.config.Port)
	logger.Debug("HTTP config: read_timeout=%v write_timeout=%v idle_timeout=%v max_upload_bytes=%d rate_limit=%d/s",
		a.config.ReadTimeout, a.config.WriteTimeout, a.config.IdleTimeout,
		a.config.MaxUploadBytes, a.config.RateLimit.RequestsPerSecond)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("HTTP shutdown signal received: %v", ctx.Err())
			stopCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
			defer cancel()
			_ = a.Stop(stopCtx)
		case <-a.shutdown:
		}
	}()

	err = srv.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	return fmt.Errorf("HTTP server: %w", err)
}

// Stop gracefully shuts the server down, closing remaining connections
// once ctx expires. Safe to call multiple times.
func (a *HTTPAdapter) Stop(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		close(a.shutdown)

		a.mu.Lock()
		srv := a.server
		a.mu.Unlock()
		if srv == nil {
			return
		}

		logger.Debug("HTTP shutdown initiated")
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("HTTP graceful shutdown incomplete, closing connections: %v", err)
			_ = srv.Close()
			a.stopErr = err
		}
	})
	return a.stopErr
}

// Protocol implements adapter.Adapter.
func (a *HTTPAdapter) Protocol() string {
	return "HTTP"
}

// Port implements adapter.Adapter.
func (a *HTTPAdapter) Port() int {
	return a.config.Port
}
