package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oagw/upstreamd/pkg/httputil"
)

// --- Helpers ---

// mockGateway creates a test server that responds with a handler and returns
// a client pointed at it.
func mockGateway(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	c := New(ts.URL, WithTenant("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"))
	return ts, c
}

func jsonHandler(statusCode int, body interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, statusCode, body)
	}
}

// problemHandler answers like the management API does on errors: a problem
// document under the problem+json content type.
func problemHandler(prob Problem) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteProblem(w, prob.Status, prob)
	}
}

// --- New / Options Tests ---

func TestNew(t *testing.T) {
	c := New("http://localhost:8086/")
	if c.baseURL != "http://localhost:8086" {
		t.Errorf("baseURL = %q, want trailing slash stripped", c.baseURL)
	}
	if c.httpClient.Timeout != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", c.httpClient.Timeout)
	}
}

func TestNew_Options(t *testing.T) {
	hc := &http.Client{}
	c := New("http://localhost:8086",
		WithTimeout(5*time.Second),
		WithToken("secret-token"),
		WithTenant("tenant-1"),
		WithHTTPClient(hc),
	)
	if c.token != "secret-token" {
		t.Errorf("token = %q, want %q", c.token, "secret-token")
	}
	if c.tenantID != "tenant-1" {
		t.Errorf("tenantID = %q, want %q", c.tenantID, "tenant-1")
	}
	if c.httpClient != hc {
		t.Error("WithHTTPClient did not replace the client")
	}
}

// --- Request header tests ---

func TestDo_SetsTenantAndToken(t *testing.T) {
	var gotTenant, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = r.Header.Get("x-tenant-id")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("[]"))
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL, WithTenant("tenant-1"), WithToken("tok"))
	if _, err := c.ListUpstreams(context.Background()); err != nil {
		t.Fatalf("ListUpstreams() error = %v", err)
	}
	if gotTenant != "tenant-1" {
		t.Errorf("x-tenant-id = %q, want %q", gotTenant, "tenant-1")
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok")
	}
}

// --- Upstream CRUD tests ---

func TestCreateUpstream_Success(t *testing.T) {
	created := Upstream{
		ID:       "gts.x.core.oagw.upstream.v1~0199cb2dcf4c74e3",
		TenantID: "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa",
		Alias:    "mock-upstream",
		Protocol: "http",
		Enabled:  true,
	}

	var gotPath, gotMethod string
	var gotReq CreateUpstreamRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL, WithTenant("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"))
	result, err := c.CreateUpstream(context.Background(), &CreateUpstreamRequest{
		Alias:    "mock-upstream",
		Protocol: "http",
		Server: Server{Endpoints: []Endpoint{
			{Scheme: SchemeHTTP, Host: "127.0.0.1", Port: 19876},
		}},
	})
	if err != nil {
		t.Fatalf("CreateUpstream() error = %v", err)
	}
	if result.Alias != "mock-upstream" {
		t.Errorf("CreateUpstream().Alias = %q, want %q", result.Alias, "mock-upstream")
	}
	if gotMethod != "POST" || gotPath != "/oagw/v1/upstreams" {
		t.Errorf("request = %s %s, want POST /oagw/v1/upstreams", gotMethod, gotPath)
	}
	if len(gotReq.Server.Endpoints) != 1 || gotReq.Server.Endpoints[0].Host != "127.0.0.1" {
		t.Errorf("request endpoints = %+v, want one endpoint at 127.0.0.1", gotReq.Server.Endpoints)
	}
}

func TestCreateUpstream_DisabledIsSerialized(t *testing.T) {
	var raw map[string]json.RawMessage
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Upstream{ID: "x", Enabled: false})
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL)
	_, err := c.CreateUpstream(context.Background(), &CreateUpstreamRequest{
		Protocol: "http",
		Server:   Server{Endpoints: []Endpoint{{Scheme: SchemeHTTP, Host: "h", Port: 80}}},
		Enabled:  Bool(false),
	})
	if err != nil {
		t.Fatalf("CreateUpstream() error = %v", err)
	}
	if string(raw["enabled"]) != "false" {
		t.Errorf("enabled field = %s, want false on the wire", raw["enabled"])
	}
}

func TestCreateUpstream_Conflict(t *testing.T) {
	_, c := mockGateway(t, problemHandler(Problem{Title: "Conflict", Status: 409}))
	_, err := c.CreateUpstream(context.Background(), &CreateUpstreamRequest{Protocol: "http"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("CreateUpstream() error = %v, want ErrDuplicate", err)
	}
}

func TestGetUpstream_NotFound(t *testing.T) {
	_, c := mockGateway(t, problemHandler(Problem{Title: "Not Found", Status: 404}))
	_, err := c.GetUpstream(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUpstream() error = %v, want ErrNotFound", err)
	}
}

func TestListUpstreams_Success(t *testing.T) {
	list := []Upstream{
		{ID: "a", Alias: "one"},
		{ID: "b", Alias: "two"},
	}
	_, c := mockGateway(t, jsonHandler(200, list))
	got, err := c.ListUpstreams(context.Background())
	if err != nil {
		t.Fatalf("ListUpstreams() error = %v", err)
	}
	if len(got) != 2 || got[1].Alias != "two" {
		t.Errorf("ListUpstreams() = %+v, want 2 upstreams", got)
	}
}

func TestDeleteUpstream_NoContent(t *testing.T) {
	_, c := mockGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "DELETE" {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		httputil.WriteNoContent(w)
	})
	if err := c.DeleteUpstream(context.Background(), "gts.x.core.oagw.upstream.v1~abc"); err != nil {
		t.Errorf("DeleteUpstream() error = %v, want nil", err)
	}
}

// --- Route tests ---

func TestCreateRoute_Success(t *testing.T) {
	var gotReq CreateRouteRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oagw/v1/routes" {
			t.Errorf("path = %s, want /oagw/v1/routes", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Route{ID: "gts.x.core.oagw.route.v1~r1", Enabled: true})
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL)
	route, err := c.CreateRoute(context.Background(), &CreateRouteRequest{
		UpstreamID: "0199cb2dcf4c74e3",
		Match: MatchRules{HTTP: &HTTPMatch{
			Methods: []string{"POST"},
			Path:    "/v1/chat/completions",
		}},
	})
	if err != nil {
		t.Fatalf("CreateRoute() error = %v", err)
	}
	if route.ID == "" {
		t.Error("CreateRoute() returned empty id")
	}
	if gotReq.Match.HTTP == nil || gotReq.Match.HTTP.Path != "/v1/chat/completions" {
		t.Errorf("request match = %+v, want http path match", gotReq.Match)
	}
}

// --- Error parsing tests ---

func TestParseError_ProblemDocument(t *testing.T) {
	prob := Problem{
		Type:   "gts.x.core.errors.err.v1~x.oagw.validation.error.v1",
		Title:  "Validation failed",
		Status: 422,
		Detail: "alias must not be empty",
	}
	_, c := mockGateway(t, problemHandler(prob))
	_, err := c.CreateUpstream(context.Background(), &CreateUpstreamRequest{Protocol: "http"})
	if err == nil {
		t.Fatal("CreateUpstream() error = nil, want problem")
	}
	var got *Problem
	if !errors.As(err, &got) {
		t.Fatalf("error %v is not a *Problem", err)
	}
	if got.Title != "Validation failed" || got.Detail != "alias must not be empty" {
		t.Errorf("problem = %+v, want title and detail preserved", got)
	}
}

func TestParseError_NonProblemBody(t *testing.T) {
	_, c := mockGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_, _ = w.Write([]byte("internal server error"))
	})
	_, err := c.ListUpstreams(context.Background())
	if err == nil || err.Error() != "request failed: status 500" {
		t.Errorf("error = %v, want plain status error", err)
	}
}

// --- Ping tests ---

func TestPing_AnyStatusIsReachable(t *testing.T) {
	_, c := mockGateway(t, jsonHandler(401, nil))
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v, want nil for HTTP 401", err)
	}
}

func TestPing_ConnectionRefused(t *testing.T) {
	c := New("http://127.0.0.1:1", WithTimeout(time.Second))
	if err := c.Ping(context.Background()); err == nil {
		t.Error("Ping() error = nil, want connection error")
	}
}

// --- URL and id helpers ---

func TestProxyURL(t *testing.T) {
	c := New("http://localhost:8086")
	got := c.ProxyURL("mock-upstream", "/v1/chat/completions")
	want := "http://localhost:8086/oagw/v1/proxy/mock-upstream/v1/chat/completions"
	if got != want {
		t.Errorf("ProxyURL() = %q, want %q", got, want)
	}
}

func TestRawID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"gts.x.core.oagw.upstream.v1~0199cb2dcf4c74e3", "0199cb2dcf4c74e3"},
		{"0199cb2dcf4c74e3", "0199cb2dcf4c74e3"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RawID(tt.in); got != tt.want {
			t.Errorf("RawID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEndpointFromURL(t *testing.T) {
	tests := []struct {
		in      string
		want    Endpoint
		wantErr bool
	}{
		{in: "http://127.0.0.1:19876", want: Endpoint{Scheme: SchemeHTTP, Host: "127.0.0.1", Port: 19876}},
		{in: "https://api.example.com", want: Endpoint{Scheme: SchemeHTTPS, Host: "api.example.com", Port: 443}},
		{in: "http://upstream.local", want: Endpoint{Scheme: SchemeHTTP, Host: "upstream.local", Port: 80}},
		{in: "not a url", wantErr: true},
		{in: "127.0.0.1:19876", wantErr: true}, // no scheme
	}
	for _, tt := range tests {
		got, err := EndpointFromURL(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("EndpointFromURL(%q) error = nil, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("EndpointFromURL(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("EndpointFromURL(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
