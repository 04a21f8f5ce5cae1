package gwtest

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oagw/upstreamd/pkg/config"
	"github.com/oagw/upstreamd/pkg/gateway"
	"github.com/oagw/upstreamd/pkg/upstream"
)

// pingTimeout bounds the gateway reachability probe.
const pingTimeout = 5 * time.Second

// StartUpstream makes the mock upstream available at the configured address
// and returns its base URL. With ExternalUpstream set it only returns the
// address, otherwise an in-process server is bound and stopped at cleanup.
func StartUpstream(t *testing.T) string {
	t.Helper()
	env := Env()
	if env.ExternalUpstream {
		return env.UpstreamURL
	}

	u, err := url.Parse(env.UpstreamURL)
	if err != nil {
		t.Fatalf("invalid %s %q: %v", EnvUpstreamURL, env.UpstreamURL, err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("%s %q must carry an explicit port", EnvUpstreamURL, env.UpstreamURL)
	}

	cfg := config.Default()
	cfg.Server.Host = u.Hostname()
	cfg.Server.Port = port

	srv := upstream.New(cfg)
	if err := srv.Start(); err != nil {
		t.Fatalf("start mock upstream at %s: %v", env.UpstreamURL, err)
	}
	t.Cleanup(func() {
		if err := srv.Stop(); err != nil {
			t.Logf("stop mock upstream: %v", err)
		}
	})
	return env.UpstreamURL
}

// RequireGateway returns a client for the gateway under test, skipping the
// calling test when the gateway does not answer at all. Any HTTP status
// counts as answering; only transport failures skip.
func RequireGateway(t *testing.T) *gateway.Client {
	t.Helper()
	env := Env()

	opts := []gateway.Option{gateway.WithTenant(DefaultTenantID)}
	if env.AuthToken != "" {
		opts = append(opts, gateway.WithToken(env.AuthToken))
	}
	c := gateway.New(env.GatewayBaseURL, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		t.Skipf("gateway not reachable at %s: %v", env.GatewayBaseURL, err)
	}
	return c
}

// UniqueAlias returns prefix with a random suffix so parallel suite runs
// never collide on upstream aliases.
func UniqueAlias(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// NewUpstreamRequest builds the registration request for a mock upstream
// reachable at upstreamURL.
func NewUpstreamRequest(t *testing.T, alias, upstreamURL string) *gateway.CreateUpstreamRequest {
	t.Helper()
	ep, err := gateway.EndpointFromURL(upstreamURL)
	if err != nil {
		t.Fatalf("upstream url %q: %v", upstreamURL, err)
	}
	return &gateway.CreateUpstreamRequest{
		Alias:    alias,
		Protocol: "http",
		Server:   gateway.Server{Endpoints: []gateway.Endpoint{ep}},
	}
}

// MatchHTTP builds a single-protocol match rule for path and methods.
func MatchHTTP(path string, methods ...string) gateway.MatchRules {
	return gateway.MatchRules{HTTP: &gateway.HTTPMatch{
		Methods: methods,
		Path:    path,
	}}
}

// ProvisionedUpstream is an upstream plus its routes, registered for the
// duration of one test.
type ProvisionedUpstream struct {
	Upstream *gateway.Upstream
	Routes   []*gateway.Route
}

// Alias returns the alias requests are proxied under.
func (p *ProvisionedUpstream) Alias() string {
	return p.Upstream.Alias
}

// Provision registers an upstream and one route per match rule. Everything
// is deleted again at test cleanup, routes first.
func Provision(t *testing.T, c *gateway.Client, req *gateway.CreateUpstreamRequest, matches ...gateway.MatchRules) *ProvisionedUpstream {
	t.Helper()
	ctx := context.Background()

	up, err := c.CreateUpstream(ctx, req)
	if err != nil {
		t.Fatalf("create upstream %q: %v", req.Alias, err)
	}
	t.Cleanup(func() {
		if err := c.DeleteUpstream(context.Background(), up.ID); err != nil && !errors.Is(err, gateway.ErrNotFound) {
			t.Logf("delete upstream %s: %v", up.ID, err)
		}
	})

	p := &ProvisionedUpstream{Upstream: up}
	for _, m := range matches {
		route, err := c.CreateRoute(ctx, &gateway.CreateRouteRequest{
			UpstreamID: gateway.RawID(up.ID),
			Match:      m,
		})
		if err != nil {
			t.Fatalf("create route for %q: %v", req.Alias, err)
		}
		t.Cleanup(func() {
			if err := c.DeleteRoute(context.Background(), route.ID); err != nil && !errors.Is(err, gateway.ErrNotFound) {
				t.Logf("delete route %s: %v", route.ID, err)
			}
		})
		p.Routes = append(p.Routes, route)
	}
	return p
}
