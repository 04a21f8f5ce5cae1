package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/oagw/upstreamd/pkg/config"
	"github.com/oagw/upstreamd/pkg/logging"
)

// joinTimeout bounds the wait for the serve goroutine after shutdown.
// Missing it is logged, never returned: by then the listener is closed
// and the caller has nothing left to act on.
const joinTimeout = 5 * time.Second

// State identifies where a Server is in its lifecycle.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Server is the mock upstream: one bound listener serving the fixed route
// table until stopped. All methods are safe to call from any goroutine.
type Server struct {
	cfg     config.Config
	log     *slog.Logger
	metrics *serverMetrics

	mu         sync.RWMutex
	state      State
	listener   net.Listener
	httpServer *http.Server
	serveDone  chan struct{}
	startTime  time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStreamDelay overrides the pause between streamed chunks. Tests use
// a zero delay to keep stream assertions fast.
func WithStreamDelay(d time.Duration) Option {
	return func(s *Server) {
		s.cfg.Stream.FragmentDelayMs = int(d / time.Millisecond)
	}
}

// WithTimeoutHold overrides how long /error/timeout sits on a request.
func WithTimeoutHold(d time.Duration) Option {
	return func(s *Server) {
		s.cfg.Stream.TimeoutHold = int(d / time.Second)
	}
}

// New creates a stopped Server from cfg. Callers start from
// config.Default() and adjust what they need.
func New(cfg config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		log:     logging.Nop(),
		metrics: newServerMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and hands the accept loop to a dedicated
// goroutine. When Start returns nil the socket is already accepting:
// net.Listen installs the kernel backlog before Serve runs, so a request
// fired immediately after Start cannot see connection-refused. A bind
// failure is returned as-is and leaves the server stopped; there is no
// retry.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return fmt.Errorf("server is %s", s.state)
	}
	s.state = StateStarting

	if err := s.cfg.Validate(); err != nil {
		s.state = StateStopped
		return fmt.Errorf("invalid configuration: %w", err)
	}

	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.state = StateStopped
		return fmt.Errorf("bind %s: %w", addr, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.newRouter(),
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
	}
	s.serveDone = make(chan struct{})
	s.startTime = time.Now()

	go func(srv *http.Server, ln net.Listener, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve loop ended", "error", err)
		}
	}(s.httpServer, ln, s.serveDone)

	s.state = StateRunning
	s.log.Info("mock upstream listening", "addr", ln.Addr().String())
	return nil
}

// Stop drains in-flight requests, joins the serve goroutine, and frees
// the port. Graceful shutdown is bounded by the configured shutdown
// timeout; when the bound is blown the listener is forced closed and the
// overrun is logged as a warning rather than returned. Stopping a server
// that is not running is a no-op. After Stop returns, the port is
// immediately rebindable.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	srv := s.httpServer
	done := s.serveDone
	uptime := time.Since(s.startTime)
	s.mu.Unlock()

	timeout := time.Duration(s.cfg.Server.ShutdownTimeout) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.log.Warn("graceful shutdown incomplete, forcing close", "error", err)
		_ = srv.Close()
	}

	select {
	case <-done:
	case <-time.After(joinTimeout):
		s.log.Warn("serve loop did not exit within join bound")
	}

	s.mu.Lock()
	s.state = StateStopped
	s.listener = nil
	s.httpServer = nil
	s.serveDone = nil
	s.mu.Unlock()

	s.log.Info("mock upstream stopped", "uptime", uptime)
	return nil
}

// BaseURL returns the dialable root URL of the server. Unspecified hosts
// (empty, 0.0.0.0, ::) are advertised as 127.0.0.1, and the port is the
// resolved one, so a configured port 0 reports the kernel-assigned port.
func (s *Server) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	host := s.cfg.Server.Host
	port := s.cfg.Server.Port
	if s.listener != nil {
		if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
			port = tcp.Port
		}
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// State reports the current lifecycle phase.
func (s *Server) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsRunning reports whether the server is accepting requests.
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}

// Uptime returns whole seconds since Start, or 0 when not running.
func (s *Server) Uptime() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateRunning {
		return 0
	}
	return int(time.Since(s.startTime).Seconds())
}
