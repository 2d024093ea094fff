package telemetryserver

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthwatch/telemetry/config"
	"github.com/hearthwatch/telemetry/health"
)

func startServer(t *testing.T, deps Deps) (*Server, func()) {
	t.Helper()
	s := New(deps)
	require.NoError(t, s.Listen(config.ServerAddr{Kind: "tcp", TCP: "127.0.0.1:0"}))
	ctx, cancel := context.WithCancel(context.Background())
	go s.Serve(ctx)
	return s, cancel
}

func TestHealthRouteReturnsEmpty200(t *testing.T) {
	s, cancel := startServer(t, Deps{})
	defer cancel()

	resp, err := http.Get("http://" + s.Addr().String() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body)
}

func TestUnknownRouteReturns404(t *testing.T) {
	s, cancel := startServer(t, Deps{})
	defer cancel()

	resp, err := http.Get("http://" + s.Addr().String() + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCustomRouteRegistrationFirstWins(t *testing.T) {
	s := New(Deps{})
	ok := s.Register(http.MethodGet, "/health", healthHandler())
	assert.False(t, ok, "built-in /health must not be shadowed by a later registration")
}

func TestHealthzRouteReflectsEvaluatorRollup(t *testing.T) {
	ev := health.NewEvaluator(time.Minute, health.ProbeFunc(func(ctx context.Context) health.ProbeResult {
		return health.Unhealthy("db", "connection refused")
	}))
	s, cancel := startServer(t, Deps{Health: ev})
	defer cancel()

	resp, err := http.Get("http://" + s.Addr().String() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"overall":"unhealthy"`)
}

func TestGracefulShutdownDrainsServe(t *testing.T) {
	s := New(Deps{})
	require.NoError(t, s.Listen(config.ServerAddr{Kind: "tcp", TCP: "127.0.0.1:0"}))
	ctx, cancel := context.WithCancel(context.Background())

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Serve(ctx) }()

	cancel()
	select {
	case err := <-serveErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after shutdown signal")
	}
	<-s.Done()
}
