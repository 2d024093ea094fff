package telemetryserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"runtime/pprof"
	"sync/atomic"
	"time"

	"github.com/hearthwatch/telemetry/config"
	"github.com/hearthwatch/telemetry/health"
	"github.com/hearthwatch/telemetry/livetrace"
	"github.com/hearthwatch/telemetry/metrics"
)

// healthHandler answers the bare built-in /health route: an empty 200 just
// proves the process is alive and serving, independent of any probe rollup.
func healthHandler() HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		return nil
	}
}

// metricsHandler serves the registry's OpenMetrics text exposition.
func metricsHandler(reg *metrics.Registry, settings config.MetricsSettings) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		out, err := reg.Collect(settings)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", "application/openmetrics-text; version=1.0.0; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, err = w.Write(out)
		return err
	}
}

// heapProfileHandler streams a pprof heap profile, the pragmatic Go stand-in
// for the teacher's jemalloc gperftools heap dump: same route, same rough
// content-type family, backed by runtime/pprof instead of a C allocator.
func heapProfileHandler() HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "application/x-gperftools-profile")
		w.WriteHeader(http.StatusOK)
		return pprof.WriteHeapProfile(w)
	}
}

// heapStatsHandler renders a human-readable summary of runtime.MemStats,
// standing in for the teacher's allocator stats text dump.
func heapStatsHandler() HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "HeapAlloc: %d\n", m.HeapAlloc)
		fmt.Fprintf(w, "HeapSys: %d\n", m.HeapSys)
		fmt.Fprintf(w, "HeapIdle: %d\n", m.HeapIdle)
		fmt.Fprintf(w, "HeapInuse: %d\n", m.HeapInuse)
		fmt.Fprintf(w, "HeapReleased: %d\n", m.HeapReleased)
		fmt.Fprintf(w, "HeapObjects: %d\n", m.HeapObjects)
		fmt.Fprintf(w, "NumGC: %d\n", m.NumGC)
		fmt.Fprintf(w, "PauseTotalNs: %d\n", m.PauseTotalNs)
		return nil
	}
}

// tracesHandler serves the live trace registry's Chrome trace-event JSON
// dump for /debug/traces.
func tracesHandler(reg *livetrace.Registry) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		out, err := reg.DumpJSON(time.Now())
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, err = w.Write(out)
		return err
	}
}

// healthResponse is the JSON body the optional /healthz and /readyz custom
// routes render, adapted from the teacher's adapters/telemetryhttp
// healthResponse/readinessTracker pair: readiness still tracks the previous
// rollup so a flapping probe shows when it last changed.
type healthResponse struct {
	Overall   health.Status        `json:"overall"`
	Probes    []health.ProbeResult `json:"probes,omitempty"`
	Generated time.Time            `json:"generated"`
	TTL       time.Duration        `json:"ttl"`
	Ready     *bool                `json:"ready,omitempty"`
	Previous  string               `json:"previous,omitempty"`
	ChangedAt *time.Time           `json:"changed_at,omitempty"`
}

// readinessTracker remembers the previously reported status so a readiness
// response can surface when the rollup last flipped.
type readinessTracker struct {
	lastStatus atomic.Value
	changedAt  atomic.Value
}

func (rt *readinessTracker) update(cur string, now time.Time) (prev string, changedAt *time.Time) {
	if raw := rt.lastStatus.Load(); raw != nil {
		prev = raw.(string)
	}
	if prev != cur {
		rt.lastStatus.Store(cur)
		rt.changedAt.Store(now)
		return prev, &now
	}
	if raw := rt.changedAt.Load(); raw != nil {
		t := raw.(time.Time)
		changedAt = &t
	}
	return prev, changedAt
}

// HealthzHandler builds an optional custom route reporting the full probe
// rollup as JSON, supplementing the bare built-in /health.
func HealthzHandler(ev *health.Evaluator) HandlerFunc {
	tracker := &readinessTracker{}
	return func(w http.ResponseWriter, r *http.Request) error {
		snap := ev.Evaluate(r.Context())
		prev, changedAt := tracker.update(string(snap.Overall), time.Now())
		resp := healthResponse{Overall: snap.Overall, Probes: snap.Probes, Generated: snap.Generated, TTL: snap.TTL}
		if prev != "" && prev != string(snap.Overall) {
			resp.Previous = prev
		}
		resp.ChangedAt = changedAt
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return json.NewEncoder(w).Encode(resp)
	}
}

// ReadyzHandler builds an optional custom route reporting readiness: ready
// when the rollup is healthy or merely degraded, not ready when unhealthy or
// unknown (no probes registered yet).
func ReadyzHandler(ev *health.Evaluator) HandlerFunc {
	tracker := &readinessTracker{}
	return func(w http.ResponseWriter, r *http.Request) error {
		snap := ev.Evaluate(r.Context())
		prev, changedAt := tracker.update(string(snap.Overall), time.Now())
		ready := snap.Overall == health.StatusHealthy || snap.Overall == health.StatusDegraded
		resp := healthResponse{Overall: snap.Overall, Generated: snap.Generated, TTL: snap.TTL, Ready: &ready}
		if prev != "" && prev != string(snap.Overall) {
			resp.Previous = prev
		}
		resp.ChangedAt = changedAt
		w.Header().Set("Content-Type", "application/json")
		if !ready || snap.Overall == health.StatusUnknown {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		return json.NewEncoder(w).Encode(resp)
	}
}
