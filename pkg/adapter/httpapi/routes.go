package httpapi

import (
	"net"
	"net/http"
	"time"

	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/pkg/auth"
	"github.com/dcnetdisk/dcdisk/pkg/disk"
	"github.com/justinas/alice"
)

// Route names used as metric labels.
const (
	routeList     = "list"
	routeUpload   = "upload"
	routeDownload = "download"
	routeMkdir    = "mkdir"
	routeWebList  = "web_list"
	routeHealth   = "health"
)

// Handler returns the routed handler of the adapter. Exposed for tests and
// for embedding in another server.
func (a *HTTPAdapter) Handler() http.Handler {
	mux := http.NewServeMux()

	a.handle(mux, "GET /api/v1/files", routeList, a.handleList)
	a.handle(mux, "POST /api/v1/files", routeUpload, a.handleUpload)
	a.handle(mux, "GET /api/v1/files/download", routeDownload, a.handleDownload)
	a.handle(mux, "POST /api/v1/directories", routeMkdir, a.handleMkdir)
	a.handle(mux, "GET /web/files", routeWebList, a.handleWebList)

	mux.Handle("GET /health", alice.New(a.recoverPanic, a.instrument(routeHealth)).ThenFunc(a.handleHealth))

	return mux
}

func (a *HTTPAdapter) handle(mux *http.ServeMux, pattern, route string, h http.HandlerFunc) {
	chain := alice.New(a.recoverPanic, a.instrument(route), a.rateLimit)
	mux.Handle(pattern, chain.ThenFunc(h))
}

func (a *HTTPAdapter) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic serving %s %s: %v", r.Method, r.URL.Path, err)
				w.Header().Set("Connection", "close")
				writeJSON(w, http.StatusInternalServerError, disk.Response{
					ErrorCode:    disk.CodeTransferFailed,
					ErrorMessage: "the server encountered a problem and could not process your request",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// instrument records request metrics and a debug access log line.
func (a *HTTPAdapter) instrument(route string) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			a.metrics.RecordRequestStart(route)
			defer a.metrics.RecordRequestEnd(route)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			a.metrics.RecordRequest(route, rec.status, duration)
			logger.Debug("%s %s -> %d (%d bytes, %v)", r.Method, r.URL.Path, rec.status, rec.written, duration)
		})
	}
}

// rateLimit throttles per session token, falling back to the client IP.
func (a *HTTPAdapter) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.limiter.Allow(clientKey(r)) {
			a.metrics.RecordRateLimited()
			w.Header().Set("Retry-After", "1")
			writeError(w, &disk.Error{Code: disk.CodeRateLimited})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if token := auth.ExtractToken(r); token != "" {
		return "token:" + token
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
