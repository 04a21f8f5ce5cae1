// Package gwtest carries the shared plumbing for the end to end suite under
// tests/e2e: environment discovery, gateway reachability checks and
// provisioning of upstreams and routes with automatic cleanup.
package gwtest

import (
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Environment variable names understood by the suite.
const (
	EnvGatewayBaseURL   = "E2E_OAGW_BASE_URL"
	EnvUpstreamURL      = "E2E_MOCK_UPSTREAM_URL"
	EnvAuthToken        = "E2E_AUTH_TOKEN"
	EnvExternalUpstream = "E2E_MOCK_UPSTREAM_EXTERNAL"
)

// Defaults used when the environment says nothing.
const (
	DefaultGatewayBaseURL = "http://localhost:8086"
	DefaultUpstreamURL    = "http://127.0.0.1:19876"

	// DefaultTenantID is the well-known development tenant every request
	// is issued under.
	DefaultTenantID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

// Config is the suite configuration resolved from the environment.
type Config struct {
	// GatewayBaseURL is where the gateway under test listens.
	GatewayBaseURL string
	// UpstreamURL is where the mock upstream listens. Unless
	// ExternalUpstream is set the suite binds this address itself.
	UpstreamURL string
	// AuthToken, when non-empty, is sent as a bearer token on control
	// plane requests.
	AuthToken string
	// ExternalUpstream disables the in-process mock upstream in favor of
	// one already running at UpstreamURL.
	ExternalUpstream bool
}

var dotenvOnce sync.Once

// Env resolves the suite configuration. A .env file in the working directory
// is loaded once, without overriding variables already set.
func Env() Config {
	dotenvOnce.Do(func() { _ = godotenv.Load(".env") })

	cfg := Config{
		GatewayBaseURL: DefaultGatewayBaseURL,
		UpstreamURL:    DefaultUpstreamURL,
	}
	if v := os.Getenv(EnvGatewayBaseURL); v != "" {
		cfg.GatewayBaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(EnvUpstreamURL); v != "" {
		cfg.UpstreamURL = strings.TrimRight(v, "/")
	}
	cfg.AuthToken = os.Getenv(EnvAuthToken)
	if v := os.Getenv(EnvExternalUpstream); v != "" {
		cfg.ExternalUpstream = v == "true" || v == "1" || v == "yes"
	}
	return cfg
}
