package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	resetRegistry()
	t.Cleanup(resetRegistry)

	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())

	InitRegistry()
	first := GetRegistry()
	InitRegistry()

	assert.True(t, IsEnabled())
	assert.Same(t, first, GetRegistry())
}

func TestMetricsEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		wantStatus int
	}{
		{name: "disabled", enabled: false, wantStatus: http.StatusServiceUnavailable},
		{name: "enabled", enabled: true, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetRegistry()
			t.Cleanup(resetRegistry)
			if tt.enabled {
				InitRegistry()
			}

			rec := httptest.NewRecorder()
			newMux(9090).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestIndexPage(t *testing.T) {
	rec := httptest.NewRecorder()
	newMux(9191).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), ":9191/metrics")
}

func TestNoopMetrics(t *testing.T) {
	NewNoopDiskMetrics().RecordOperation("list", 0, "")
	NewNoopHTTPMetrics().RecordRequest("list", 200, 0)
	NewNoopMetadataMetrics().RecordOperation("save", 0, nil)
	NewNoopContentMetrics().RecordOperation("write", 0, 1, nil)
}
