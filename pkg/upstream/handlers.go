package upstream

import (
	"io"
	"net/http"
	"strings"

	"github.com/oagw/upstreamd/pkg/httputil"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEcho reflects the inbound request so gateway tests can verify
// exactly what arrived after proxying: header names are lower-cased,
// values are passed through byte-for-byte, and the body is decoded as
// UTF-8 with invalid sequences replaced. For repeated header names the
// last value wins. No size cap and no judgment about which headers
// should be present; enforcement belongs to the gateway under test.
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.log.Debug("echo body read failed", "error", err)
		httputil.WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: ErrorDetail{
			Message: "failed to read request body",
			Type:    "invalid_request_error",
			Code:    "body_read_error",
		}})
		return
	}

	headers := make(map[string]string, len(r.Header)+1)
	for name, vals := range r.Header {
		if len(vals) == 0 {
			continue
		}
		headers[strings.ToLower(name)] = vals[len(vals)-1]
	}
	// net/http promotes Host out of the header map; callers expect to
	// see it among the reflected headers.
	if r.Host != "" {
		headers["host"] = r.Host
	}

	httputil.WriteJSON(w, http.StatusOK, EchoResponse{
		Headers: headers,
		Body:    strings.ToValidUTF8(string(body), "�"),
	})
}

// handleChatCompletions returns the fixed non-streaming completion.
// The request body is ignored; the response never varies.
func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, cannedCompletion())
}

// handleModels returns the fixed model list.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, cannedModels())
}
