package telemetry

import (
	"context"
	"errors"
	"sync"

	"github.com/hearthwatch/telemetry/telemetryserver"
)

// Driver is the composite lifecycle object Init returns: it owns the
// telemetry HTTP server (if enabled) and every background task started at
// Init (trace exporters draining the tracer's finished-span channel, plus
// anything a caller adds via AddTask), and collapses
// all of their shutdown paths into one Shutdown call. Adapted from the
// teacher engine's Start/Stop pair, generalized from one synchronous
// component to N concurrently-running ones.
type Driver struct {
	server *telemetryserver.Server

	mu      sync.Mutex
	tasks   []func(ctx context.Context) error
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	errsMu  sync.Mutex
	errs    []error
	started bool
	addr    string
}

func newDriver(server *telemetryserver.Server) *Driver {
	return &Driver{server: server}
}

func (d *Driver) recordErr(err error) {
	if err == nil {
		return
	}
	d.errsMu.Lock()
	d.errs = append(d.errs, err)
	d.errsMu.Unlock()
}

// AddTask registers a background task run as soon as Run is called; fn
// should return when ctx is canceled. Calling AddTask after Run is a no-op
// returning false.
func (d *Driver) AddTask(fn func(ctx context.Context) error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return false
	}
	d.tasks = append(d.tasks, fn)
	return true
}

// ServerAddr returns the bound address of the telemetry HTTP server, or ""
// if the server is disabled.
func (d *Driver) ServerAddr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

// Run starts the server (if present) and every registered background task,
// and blocks until ctx is canceled, at which point it signals every task to
// stop, waits for them to finish, and returns the first non-nil error any
// of them reported (if any).
func (d *Driver) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return errors.New("telemetry: Driver.Run called twice")
	}
	d.started = true
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if d.server != nil {
		if a := d.server.Addr(); a != nil {
			d.addr = a.String()
		}
	}
	tasks := append([]func(ctx context.Context) error(nil), d.tasks...)
	d.mu.Unlock()

	if d.server != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.recordErr(d.server.Serve(runCtx))
		}()
	}
	for _, fn := range tasks {
		d.wg.Add(1)
		go func(fn func(ctx context.Context) error) {
			defer d.wg.Done()
			d.recordErr(fn(runCtx))
		}(fn)
	}

	<-runCtx.Done()
	d.wg.Wait()

	d.errsMu.Lock()
	defer d.errsMu.Unlock()
	if len(d.errs) == 0 {
		return nil
	}
	return d.errs[0]
}

// Shutdown signals every running task (including the server, if any) to
// stop. It returns immediately without waiting for Run to return.
func (d *Driver) Shutdown() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
