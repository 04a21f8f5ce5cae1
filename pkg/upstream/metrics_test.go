package upstream

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEndpoint(t *testing.T) {
	_, base := newTestServer(t)

	// Generate some traffic first.
	for _, path := range []string{"/health", "/health", "/v1/models", "/error/503"} {
		resp, err := http.Get(base + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	exposition := string(body)

	assert.Contains(t, exposition,
		`upstream_requests_total{code="200",method="GET",route="/health"} 2`)
	assert.Contains(t, exposition,
		`upstream_requests_total{code="200",method="GET",route="/v1/models"} 1`)
	// Injected routes are labeled by template, so error codes do not fan
	// out into per-path series.
	assert.Contains(t, exposition,
		`upstream_requests_total{code="503",method="GET",route="/error/{code:[0-9]+}"} 1`)
	assert.Contains(t, exposition, "upstream_request_duration_seconds_bucket")
	assert.Contains(t, exposition, "upstream_active_streams 0")
}

func TestMetricsDoNotLeakAcrossServers(t *testing.T) {
	_, firstBase := newTestServer(t)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(firstBase + "/health")
		require.NoError(t, err)
		resp.Body.Close()
	}

	// A second server owns a fresh registry; the first one's traffic
	// must not appear in it.
	_, secondBase := newTestServer(t)
	resp, err := http.Get(secondBase + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), fmt.Sprintf(`route="/health"} %d`, 3))
}
