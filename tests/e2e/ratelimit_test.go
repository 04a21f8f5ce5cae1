package e2e_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oagw/upstreamd/pkg/gateway"
	"github.com/oagw/upstreamd/pkg/gwtest"
)

// singleTokenBucket allows exactly one request per minute with no burst
// headroom, so the second request in a test must be rejected.
func singleTokenBucket() *gateway.RateLimitConfig {
	return &gateway.RateLimitConfig{
		Algorithm: gateway.AlgorithmTokenBucket,
		Sustained: gateway.SustainedRate{Rate: 1, Window: gateway.WindowMinute},
		Burst:     &gateway.BurstConfig{Capacity: 1},
		Scope:     gateway.ScopeTenant,
		Strategy:  gateway.StrategyReject,
		Cost:      1,
	}
}

func TestProxyRateLimitAllowsFirstRequest(t *testing.T) {
	c := gwtest.RequireGateway(t)
	upstreamURL := gwtest.StartUpstream(t)

	req := gwtest.NewUpstreamRequest(t, gwtest.UniqueAlias("rl-ok"), upstreamURL)
	req.RateLimit = singleTokenBucket()
	p := gwtest.Provision(t, c, req, gwtest.MatchHTTP("/v1/models", http.MethodGet))

	resp := proxyDo(t, c, http.MethodGet, p.Alias(), "/v1/models", nil, nil)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProxyRateLimitRejectsBurstOverflow(t *testing.T) {
	c := gwtest.RequireGateway(t)
	upstreamURL := gwtest.StartUpstream(t)

	req := gwtest.NewUpstreamRequest(t, gwtest.UniqueAlias("rl-429"), upstreamURL)
	req.RateLimit = singleTokenBucket()
	p := gwtest.Provision(t, c, req, gwtest.MatchHTTP("/v1/models", http.MethodGet))

	// First request drains the only token.
	first := proxyDo(t, c, http.MethodGet, p.Alias(), "/v1/models", nil, nil)
	_ = first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)

	second := proxyDo(t, c, http.MethodGet, p.Alias(), "/v1/models", nil, nil)
	defer func() { _ = second.Body.Close() }()
	require.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, gateway.ErrorSourceGateway, errorSource(second))
	assert.NotEmpty(t, second.Header.Get("Retry-After"), "missing Retry-After on 429")
}
