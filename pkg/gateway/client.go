package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HeaderErrorSource is set by the gateway on proxied error responses to say
// which side produced the error.
const HeaderErrorSource = "x-oagw-error-source"

// Values of the HeaderErrorSource header.
const (
	ErrorSourceGateway  = "gateway"
	ErrorSourceUpstream = "upstream"
)

// Client is an HTTP client for the gateway's control plane API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string // optional auth token
	tenantID   string // sent as x-tenant-id on every request
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken sets the auth token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTenant sets the tenant id attached to every request.
func WithTenant(tenantID string) Option {
	return func(c *Client) {
		c.tenantID = tenantID
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a new gateway client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the gateway base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ProxyURL returns the data plane URL for a request to the named upstream.
// path must start with "/".
func (c *Client) ProxyURL(alias, path string) string {
	return c.baseURL + "/oagw/v1/proxy/" + url.PathEscape(alias) + path
}

// Ping reports whether the gateway answers HTTP at all. Any status code
// counts as reachable, only transport failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.get(ctx, "/oagw/v1/upstreams")
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// CreateUpstream registers a new upstream.
func (c *Client) CreateUpstream(ctx context.Context, req *CreateUpstreamRequest) (*Upstream, error) {
	resp, err := c.post(ctx, "/oagw/v1/upstreams", req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrDuplicate
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var created Upstream
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode upstream: %w", err)
	}
	return &created, nil
}

// GetUpstream returns a specific upstream.
func (c *Client) GetUpstream(ctx context.Context, id string) (*Upstream, error) {
	resp, err := c.get(ctx, "/oagw/v1/upstreams/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var upstream Upstream
	if err := json.NewDecoder(resp.Body).Decode(&upstream); err != nil {
		return nil, fmt.Errorf("failed to decode upstream: %w", err)
	}
	return &upstream, nil
}

// ListUpstreams returns all upstreams visible to the tenant.
func (c *Client) ListUpstreams(ctx context.Context) ([]Upstream, error) {
	resp, err := c.get(ctx, "/oagw/v1/upstreams")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var upstreams []Upstream
	if err := json.NewDecoder(resp.Body).Decode(&upstreams); err != nil {
		return nil, fmt.Errorf("failed to decode upstreams: %w", err)
	}
	return upstreams, nil
}

// DeleteUpstream removes an upstream.
func (c *Client) DeleteUpstream(ctx context.Context, id string) error {
	resp, err := c.delete(ctx, "/oagw/v1/upstreams/"+url.PathEscape(id))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// CreateRoute attaches a route to an upstream. The request's UpstreamID must
// be the bare UUID, see RawID.
func (c *Client) CreateRoute(ctx context.Context, req *CreateRouteRequest) (*Route, error) {
	resp, err := c.post(ctx, "/oagw/v1/routes", req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrDuplicate
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var created Route
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode route: %w", err)
	}
	return &created, nil
}

// DeleteRoute removes a route.
func (c *Client) DeleteRoute(ctx context.Context, id string) error {
	resp, err := c.delete(ctx, "/oagw/v1/routes/"+url.PathEscape(id))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// Proxy issues a data plane request through the gateway to the named
// upstream. Tenant and token headers are attached like on control plane
// calls. The response is returned as-is, the caller owns the body.
func (c *Client) Proxy(ctx context.Context, method, alias, path string, header http.Header, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.ProxyURL(alias, path), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.do(req)
}

// RawID strips the schema prefix from a typed resource id such as
// "gts.x.core.oagw.upstream.v1~0199cb2dcf4c74e3..." and returns the bare
// instance UUID. Ids without a '~' separator are returned unchanged.
func RawID(id string) string {
	if i := strings.LastIndex(id, "~"); i >= 0 {
		return id[i+1:]
	}
	return id
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) delete(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.tenantID != "" {
		req.Header.Set("x-tenant-id", c.tenantID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpClient.Do(req)
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var prob Problem
	if json.Unmarshal(body, &prob) == nil && (prob.Title != "" || prob.Type != "") {
		if prob.Status == 0 {
			prob.Status = resp.StatusCode
		}
		return &prob
	}
	return fmt.Errorf("request failed: status %d", resp.StatusCode)
}
