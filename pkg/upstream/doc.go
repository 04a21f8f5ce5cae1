// Package upstream implements the mock upstream the OAGW e2e suite
// proxies traffic to.
//
// The server emulates an OpenAI-style backend with a fixed route table:
//
//	GET  /health                       liveness probe
//	POST /echo                         reflects headers and body back
//	POST /v1/chat/completions          canned completion document
//	POST /v1/chat/completions/stream   SSE stream ending in data: [DONE]
//	GET  /v1/models                    canned model list
//	GET  /error/{code}                 responds with the named status code
//	GET  /status/{code}                like /error but with a minimal body
//	GET  /error/timeout                holds the request past any deadline
//	GET  /metrics                      Prometheus exposition
//
// Every response is deterministic. Handlers keep no state between
// requests; the only thing that accumulates is observability counters,
// which never feed back into responses. That determinism is the point:
// gateway tests assert on exact bodies, stream framing, and status codes
// without coordinating with the upstream.
//
// # Lifecycle
//
// A Server runs exactly one listener:
//
//	srv := upstream.New(config.Default())
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
//	resp, _ := http.Get(srv.BaseURL() + "/health")
//
// Start binds synchronously: once it returns nil the socket accepts
// connections, so tests may fire requests immediately. Stop drains
// in-flight requests within the configured shutdown timeout, joins the
// serve goroutine, and leaves the port free for immediate rebinding.
// Both are safe to call from any goroutine and Stop is idempotent.
package upstream
