package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthwatch/telemetry/config"
)

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	s := config.Default()
	s.Server.Addr = config.ServerAddr{Kind: "tcp", TCP: "127.0.0.1:0"}
	s.Tracing.Enabled = false
	return s
}

func TestInitBuildsRuntimeAndServerAddr(t *testing.T) {
	rt, err := initOnce1(ServiceInfo{Name: "svc", Version: "0.0.1"}, testSettings(t))
	require.NoError(t, err)
	require.NotNil(t, rt.Root.Log)
	require.NotNil(t, rt.Metrics)
	require.NotNil(t, rt.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Driver.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for rt.Driver.ServerAddr() == "" && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.NotEmpty(t, rt.Driver.ServerAddr())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not shut down")
	}
}

func TestContextScopeRoundTrips(t *testing.T) {
	rt, err := initOnce1ForTest(t)
	require.NoError(t, err)

	ctx := rt.Root.Scope(context.Background())
	got := Current(ctx)
	assert.Same(t, rt.Root.Log, got.Log)
}

func initOnce1ForTest(t *testing.T) (*Runtime, error) {
	t.Helper()
	return initOnce1(ServiceInfo{Name: "svc2", Version: "0.0.1"}, testSettings(t))
}
