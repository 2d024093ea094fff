package telemetryserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/hearthwatch/telemetry/config"
	"github.com/hearthwatch/telemetry/health"
	"github.com/hearthwatch/telemetry/livetrace"
	"github.com/hearthwatch/telemetry/logging"
	"github.com/hearthwatch/telemetry/metrics"
)

// listenBacklog matches the teacher's fixed accept-queue depth for the
// telemetry server: generous enough that a burst of scrape requests never
// gets refused at the kernel.
const listenBacklog = 1024

// Deps bundles the collaborators the built-in routes render from.
type Deps struct {
	Metrics    *metrics.Registry
	MetricsCfg config.MetricsSettings
	LiveTraces *livetrace.Registry
	Health     *health.Evaluator
	Log        *logging.Handle
}

// Server owns one listener (TCP or Unix) serving the fixed telemetry route
// table plus any custom routes registered before Listen.
type Server struct {
	router *Router
	deps   Deps

	mu       sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
	done     chan struct{}
}

// New builds a server with the built-in routes registered. Custom routes
// must be registered via Register before calling Listen.
func New(deps Deps) *Server {
	s := &Server{router: NewRouter(), deps: deps, done: make(chan struct{})}
	s.router.Register(http.MethodGet, "/health", healthHandler())
	if deps.Metrics != nil {
		s.router.Register(http.MethodGet, "/metrics", metricsHandler(deps.Metrics, deps.MetricsCfg))
	}
	s.router.Register(http.MethodGet, "/pprof/heap", heapProfileHandler())
	s.router.Register(http.MethodGet, "/pprof/heap_stats", heapStatsHandler())
	if deps.LiveTraces != nil {
		s.router.Register(http.MethodGet, "/debug/traces", tracesHandler(deps.LiveTraces))
	}
	if deps.Health != nil {
		s.router.Register(http.MethodGet, "/healthz", HealthzHandler(deps.Health))
		s.router.Register(http.MethodGet, "/readyz", ReadyzHandler(deps.Health))
	}
	return s
}

// Register adds a custom route; it reports false if method+path is already
// taken by a built-in or earlier custom route (first registration wins).
func (s *Server) Register(method, path string, handler HandlerFunc) bool {
	return s.router.Register(method, path, handler)
}

// Listen binds addr without starting to accept connections yet, so the
// bound address (notably an OS-chosen ":0" port) is known to the caller
// before Serve is called.
func (s *Server) Listen(addr config.ServerAddr) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lc net.ListenConfig
	var network, address string
	switch addr.Kind {
	case "tcp":
		network, address = "tcp", addr.TCP
		lc.Control = controlReuseAddrPort
	case "unix":
		network, address = "unix", addr.Unix
		if err := removeStaleSocket(address, s.deps.Log); err != nil {
			return err
		}
	default:
		return fmt.Errorf("telemetryserver: unknown addr kind %q", addr.Kind)
	}

	// net.ListenConfig has no knob for the listen(2) backlog itself — only
	// the pre-bind socket-option hook below. The standard library always
	// requests the platform maximum (clamped to SOMAXCONN), which already
	// exceeds listenBacklog on every target platform, so there's nothing
	// further to configure here; listenBacklog documents the floor this
	// server was sized against rather than a value it sets directly.
	ln, err := lc.Listen(context.Background(), network, address)
	if err != nil {
		return err
	}
	if tl, ok := ln.(*net.TCPListener); ok {
		ln = tcpKeepAliveListener{tl}
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address; valid only after a successful Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is canceled, then drains in-flight
// requests before returning: the graceful-shutdown contract of spec.md
// §4.8 ("a user-supplied future signals shutdown; in-flight connections are
// allowed to finish; the future this call returns resolves once drained").
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.listener == nil {
		s.mu.Unlock()
		return errors.New("telemetryserver: Listen must be called before Serve")
	}
	s.httpSrv = &http.Server{Handler: s.router}
	ln := s.listener
	srv := s.httpSrv
	s.mu.Unlock()

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	err := srv.Serve(ln)
	close(s.done)
	if errors.Is(err, http.ErrServerClosed) {
		return <-shutdownErr
	}
	return err
}

// Done reports once Serve's listener has stopped accepting connections.
func (s *Server) Done() <-chan struct{} { return s.done }

func removeStaleSocket(path string, log *logging.Handle) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		if log != nil {
			log.Warn("failed to remove stale telemetry socket", logging.F("path", path), logging.F("error", err.Error()))
		}
		return nil
	}
	return nil
}

// controlReuseAddrPort sets SO_REUSEADDR and SO_REUSEPORT on the listening
// socket before bind, so a rolling restart can rebind the same port while
// the outgoing process still holds it open for its drain window.
func controlReuseAddrPort(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = setReuseAddrPort(int(fd))
	})
	if err != nil {
		return err
	}
	return sockErr
}

// tcpKeepAliveListener mirrors net/http.Server's own default listener
// wrapper: long-idle scrape connections get a keepalive probe rather than
// hanging around as half-dead file descriptors.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}
