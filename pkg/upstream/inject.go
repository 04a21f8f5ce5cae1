package upstream

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/oagw/upstreamd/pkg/httputil"
)

// Transport bounds on injectable status codes. net/http refuses to write
// anything outside this range, so requests beyond it get a local
// validation error instead of a panic.
const (
	minInjectCode = 100
	maxInjectCode = 999
)

// handleErrorCode answers with the status code named in the path and a
// structured error body encoding the same code.
func (s *Server) handleErrorCode(w http.ResponseWriter, r *http.Request) {
	code, ok := s.injectedCode(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, code, ErrorEnvelope{Error: ErrorDetail{
		Message: fmt.Sprintf("Simulated error %d", code),
		Type:    "server_error",
		Code:    fmt.Sprintf("error_%d", code),
	}})
}

// handleStatusCode answers with the status code named in the path and a
// minimal descriptive body.
func (s *Server) handleStatusCode(w http.ResponseWriter, r *http.Request) {
	code, ok := s.injectedCode(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, code, StatusDocument{
		Status:      code,
		Description: fmt.Sprintf("Status %d", code),
	})
}

// handleTimeout holds the request far past any sane client deadline, then
// answers anyway. The response only exists to prove the deadline did not
// fire; callers exercising timeout behavior must never see it.
func (s *Server) handleTimeout(w http.ResponseWriter, r *http.Request) {
	select {
	case <-r.Context().Done():
		s.log.Debug("timeout hold released early", "reason", r.Context().Err())
		return
	case <-time.After(s.cfg.Stream.TimeoutHoldDuration()):
	}
	httputil.WriteText(w, http.StatusOK, "should not reach here")
}

// injectedCode extracts the {code} route variable. The route pattern
// admits only digits, so the remaining failure mode is a numeric code the
// transport cannot carry; those get a 400 naming the rejected value. No
// other validation: within transport range every code passes through,
// however unusual.
func (s *Server) injectedCode(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := mux.Vars(r)["code"]
	code, err := strconv.Atoi(raw)
	if err != nil || code < minInjectCode || code > maxInjectCode {
		s.log.Debug("rejected injected status code", "code", raw)
		httputil.WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: ErrorDetail{
			Message: fmt.Sprintf("Cannot respond with status code %q", raw),
			Type:    "invalid_request_error",
			Code:    "unsupported_status_code",
		}})
		return 0, false
	}
	return code, true
}
