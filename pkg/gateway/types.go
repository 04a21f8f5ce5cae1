package gateway

import (
	"fmt"
	"net/url"
	"strconv"
)

// SharingMode controls whether a config block applies only to its owner or
// is inherited/enforced down the route chain.
type SharingMode string

// Sharing modes.
const (
	SharingPrivate SharingMode = "private"
	SharingInherit SharingMode = "inherit"
	SharingEnforce SharingMode = "enforce"
)

// Scheme identifies the transport an endpoint speaks.
type Scheme string

// Endpoint schemes.
const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
	SchemeWSS   Scheme = "wss"
	SchemeWT    Scheme = "wt"
	SchemeGRPC  Scheme = "grpc"
)

// Endpoint is a single reachable address of an upstream server.
type Endpoint struct {
	Scheme Scheme `json:"scheme"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

// EndpointFromURL converts a raw URL such as "http://127.0.0.1:19876" into
// an Endpoint. When the URL carries no explicit port the scheme default is
// used (80 for http, 443 otherwise).
func EndpointFromURL(raw string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse endpoint url: %w", err)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("endpoint url %q missing scheme or host", raw)
	}

	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return Endpoint{}, fmt.Errorf("endpoint url %q: invalid port", raw)
		}
	} else if u.Scheme == "http" {
		port = 80
	} else {
		port = 443
	}

	return Endpoint{
		Scheme: Scheme(u.Scheme),
		Host:   u.Hostname(),
		Port:   port,
	}, nil
}

// Server is the set of endpoints requests to an upstream are forwarded to.
type Server struct {
	Endpoints []Endpoint `json:"endpoints"`
}

// AuthConfig attaches a credential-injection plugin to an upstream. Type is
// the plugin identifier, Config its plugin-specific settings (header name,
// value prefix, secret reference and so on).
type AuthConfig struct {
	Type    string            `json:"type"`
	Sharing SharingMode       `json:"sharing,omitempty"`
	Config  map[string]string `json:"config,omitempty"`
}

// HeaderRules describes request-side header rewriting.
type HeaderRules struct {
	Set                  map[string]string `json:"set,omitempty"`
	Add                  map[string]string `json:"add,omitempty"`
	Remove               []string          `json:"remove,omitempty"`
	Passthrough          string            `json:"passthrough,omitempty"`
	PassthroughAllowlist []string          `json:"passthrough_allowlist,omitempty"`
}

// ResponseHeaderRules describes response-side header rewriting.
type ResponseHeaderRules struct {
	Set    map[string]string `json:"set,omitempty"`
	Add    map[string]string `json:"add,omitempty"`
	Remove []string          `json:"remove,omitempty"`
}

// HeadersConfig bundles request and response header rules.
type HeadersConfig struct {
	Request  *HeaderRules         `json:"request,omitempty"`
	Response *ResponseHeaderRules `json:"response,omitempty"`
}

// Rate limit windows.
const (
	WindowSecond = "second"
	WindowMinute = "minute"
	WindowHour   = "hour"
	WindowDay    = "day"
)

// Rate limit algorithms.
const (
	AlgorithmTokenBucket   = "token_bucket"
	AlgorithmSlidingWindow = "sliding_window"
)

// Rate limit scopes.
const (
	ScopeGlobal = "global"
	ScopeTenant = "tenant"
	ScopeUser   = "user"
	ScopeIP     = "ip"
	ScopeRoute  = "route"
)

// Rate limit strategies.
const (
	StrategyReject  = "reject"
	StrategyQueue   = "queue"
	StrategyDegrade = "degrade"
)

// SustainedRate is the steady-state allowance of a rate limit.
type SustainedRate struct {
	Rate   int    `json:"rate"`
	Window string `json:"window,omitempty"`
}

// BurstConfig caps how far a client may briefly exceed the sustained rate.
type BurstConfig struct {
	Capacity int `json:"capacity"`
}

// RateLimitConfig configures throttling for an upstream or route.
type RateLimitConfig struct {
	Sharing   SharingMode   `json:"sharing,omitempty"`
	Algorithm string        `json:"algorithm,omitempty"`
	Sustained SustainedRate `json:"sustained"`
	Burst     *BurstConfig  `json:"burst,omitempty"`
	Scope     string        `json:"scope,omitempty"`
	Strategy  string        `json:"strategy,omitempty"`
	Cost      int           `json:"cost,omitempty"`
}

// PluginsConfig lists additional plugin ids applied to an upstream or route.
type PluginsConfig struct {
	Sharing SharingMode `json:"sharing,omitempty"`
	Items   []string    `json:"items,omitempty"`
}

// HTTPMatch selects requests by method and path prefix.
type HTTPMatch struct {
	Methods        []string `json:"methods"`
	Path           string   `json:"path"`
	QueryAllowlist []string `json:"query_allowlist,omitempty"`
	PathSuffixMode string   `json:"path_suffix_mode,omitempty"`
}

// MatchRules holds the per-protocol matchers of a route. Exactly one is set.
type MatchRules struct {
	HTTP *HTTPMatch `json:"http,omitempty"`
}

// CreateUpstreamRequest registers a new upstream.
type CreateUpstreamRequest struct {
	Server    Server           `json:"server"`
	Protocol  string           `json:"protocol"`
	Alias     string           `json:"alias,omitempty"`
	Auth      *AuthConfig      `json:"auth,omitempty"`
	Headers   *HeadersConfig   `json:"headers,omitempty"`
	Plugins   *PluginsConfig   `json:"plugins,omitempty"`
	RateLimit *RateLimitConfig `json:"rate_limit,omitempty"`
	Tags      []string         `json:"tags,omitempty"`
	Enabled   *bool            `json:"enabled,omitempty"`
}

// CreateRouteRequest attaches a match rule to an upstream.
type CreateRouteRequest struct {
	UpstreamID string           `json:"upstream_id"`
	Match      MatchRules       `json:"match"`
	Plugins    *PluginsConfig   `json:"plugins,omitempty"`
	RateLimit  *RateLimitConfig `json:"rate_limit,omitempty"`
	Tags       []string         `json:"tags,omitempty"`
	Priority   int              `json:"priority"`
	Enabled    *bool            `json:"enabled,omitempty"`
}

// Upstream is the control plane's view of a registered upstream.
type Upstream struct {
	ID        string           `json:"id"`
	TenantID  string           `json:"tenant_id"`
	Alias     string           `json:"alias"`
	Server    Server           `json:"server"`
	Protocol  string           `json:"protocol"`
	Enabled   bool             `json:"enabled"`
	Auth      *AuthConfig      `json:"auth,omitempty"`
	Headers   *HeadersConfig   `json:"headers,omitempty"`
	Plugins   *PluginsConfig   `json:"plugins,omitempty"`
	RateLimit *RateLimitConfig `json:"rate_limit,omitempty"`
	Tags      []string         `json:"tags,omitempty"`
}

// Route is the control plane's view of a registered route.
type Route struct {
	ID         string           `json:"id"`
	TenantID   string           `json:"tenant_id"`
	UpstreamID string           `json:"upstream_id"`
	Match      MatchRules       `json:"match"`
	Plugins    *PluginsConfig   `json:"plugins,omitempty"`
	RateLimit  *RateLimitConfig `json:"rate_limit,omitempty"`
	Tags       []string         `json:"tags,omitempty"`
	Priority   int              `json:"priority"`
	Enabled    bool             `json:"enabled"`
}

// Bool returns a pointer to b, for the Enabled fields of create requests.
func Bool(b bool) *bool { return &b }
