package config

import (
	"fmt"

	"github.com/dcnetdisk/dcdisk/pkg/adapter"
	"github.com/dcnetdisk/dcdisk/pkg/adapter/httpapi"
	"github.com/dcnetdisk/dcdisk/pkg/metrics"
)

// CreateAdapters creates all enabled transport adapters from the configuration.
//
// Parameters:
//   - cfg: The complete dcdisk configuration
//   - httpMetrics: Optional HTTP metrics collector (nil = no metrics)
func CreateAdapters(cfg *Config, httpMetrics metrics.HTTPMetrics) ([]adapter.Adapter, error) {
	var adapters []adapter.Adapter

	if cfg.HTTP.Enabled {
		adapters = append(adapters, httpapi.New(cfg.HTTP, httpMetrics))
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no adapters enabled in configuration")
	}

	return adapters, nil
}
