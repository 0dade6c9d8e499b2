package config

import (
	"github.com/dcnetdisk/dcdisk/pkg/metrics"
	promMetrics "github.com/dcnetdisk/dcdisk/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// The collectors below are never nil; they are no-ops when disabled.
	Disk     metrics.DiskMetrics
	HTTP     metrics.HTTPMetrics
	Content  metrics.ContentMetrics
	Metadata metrics.MetadataMetrics
}

// InitializeMetrics creates all metrics components based on configuration.
//
// If metrics are enabled the global Prometheus registry is initialized, the
// metrics HTTP server is created (not started) and Prometheus-backed
// collectors are returned. Otherwise every collector is a no-op.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			Disk:     metrics.NewNoopDiskMetrics(),
			HTTP:     metrics.NewNoopHTTPMetrics(),
			Content:  metrics.NewNoopContentMetrics(),
			Metadata: metrics.NewNoopMetadataMetrics(),
		}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server:   metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port}),
		Disk:     promMetrics.NewDiskMetrics(),
		HTTP:     promMetrics.NewHTTPMetrics(),
		Content:  promMetrics.NewContentMetrics(cfg.Content.Type),
		Metadata: promMetrics.NewMetadataMetrics(cfg.Metadata.Type),
	}
}
