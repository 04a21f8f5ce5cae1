package upstream

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// newRouter builds the fixed route table. The {code} routes constrain the
// variable to digits so the parameter arrives typed at the handler, and
// /error/timeout is registered ahead of /error/{code} so the literal
// segment is never captured by the variable.
func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID)
	r.Use(s.observe)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/echo", s.handleEcho).Methods(http.MethodPost)
	r.HandleFunc("/v1/chat/completions", s.handleChatCompletions).Methods(http.MethodPost)
	r.HandleFunc("/v1/chat/completions/stream", s.handleChatStream).Methods(http.MethodPost)
	r.HandleFunc("/v1/models", s.handleModels).Methods(http.MethodGet)
	r.HandleFunc("/error/timeout", s.handleTimeout).Methods(http.MethodGet)
	r.HandleFunc("/error/{code:[0-9]+}", s.handleErrorCode).Methods(http.MethodGet)
	r.HandleFunc("/status/{code:[0-9]+}", s.handleStatusCode).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)

	return r
}

// requestID tags every response with a fresh id so interleaved debug logs
// stay attributable. Request processing itself never reads it.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", uuid.NewString())
		next.ServeHTTP(w, r)
	})
}
