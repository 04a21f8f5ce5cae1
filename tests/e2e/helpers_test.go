package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/oagw/upstreamd/pkg/gateway"
)

// requestTimeout bounds every proxied request in this suite. Streaming
// scenarios carry their own, longer budget.
const requestTimeout = 10 * time.Second

func proxyDo(t *testing.T, c *gateway.Client, method, alias, path string, header http.Header, body io.Reader) *http.Response {
	t.Helper()
	// Cancel at test end, not on return: the caller still reads the body.
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	t.Cleanup(cancel)
	resp, err := c.Proxy(ctx, method, alias, path, header, body)
	if err != nil {
		t.Fatalf("proxy %s %s: %v", method, path, err)
	}
	return resp
}

func proxyJSON(t *testing.T, c *gateway.Client, method, alias, path string, payload any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return proxyDo(t, c, method, alias, path, header, bytes.NewReader(raw))
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode response %q: %v", raw, err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return string(raw)
}

func errorSource(resp *http.Response) string {
	return resp.Header.Get(gateway.HeaderErrorSource)
}
