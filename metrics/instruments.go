package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Metric is satisfied by every instrument kind this package defines; its
// method is unexported so only this package's types can participate as a
// Family's M type parameter.
type Metric interface {
	collector() prom.Collector
}

// Counter is a monotonically non-decreasing instrument.
type Counter struct{ c prom.Counter }

func (c Counter) Inc(delta float64) {
	if delta <= 0 {
		return
	}
	c.c.Add(delta)
}
func (c Counter) collector() prom.Collector { return c.c }

// Gauge is a monotonic-snapshot instrument.
type Gauge struct{ g prom.Gauge }

func (g Gauge) Set(value float64)  { g.g.Set(value) }
func (g Gauge) Add(delta float64)  { g.g.Add(delta) }
func (g Gauge) collector() prom.Collector { return g.g }

// Histogram is a bucketed instrument.
type Histogram struct{ h prom.Histogram }

func (h Histogram) Observe(value float64)  { h.h.Observe(value) }
func (h Histogram) collector() prom.Collector { return h.h }

// TimeHistogram is a Histogram specialized for durations: StartTimer
// returns a Timer whose ObserveDuration records elapsed seconds.
type TimeHistogram struct{ h prom.Histogram }

func (h TimeHistogram) collector() prom.Collector { return h.h }

// Timer observes elapsed wall time into its histogram exactly once.
type Timer struct {
	h     prom.Histogram
	start time.Time
}

func (h TimeHistogram) StartTimer() Timer { return Timer{h: h.h, start: time.Now()} }
func (t Timer) ObserveDuration()          { t.h.Observe(time.Since(t.start).Seconds()) }

func newCounter(s *Subsystem, name, help string, labelNames, labelValues []string) Counter {
	fq, err := s.fqName(name)
	if err != nil {
		return Counter{c: prom.NewCounter(prom.CounterOpts{Name: "metrics_invalid", Help: "invalid metric name"})}
	}
	c := prom.NewCounter(prom.CounterOpts{Name: fq, Help: help, ConstLabels: mergeLabels(s.constLabels(), labelNames, labelValues)})
	got, err := s.register(c)
	if err != nil {
		return Counter{c: c}
	}
	return Counter{c: got.(prom.Counter)}
}

func newGauge(s *Subsystem, name, help string, labelNames, labelValues []string) Gauge {
	fq, err := s.fqName(name)
	if err != nil {
		return Gauge{g: prom.NewGauge(prom.GaugeOpts{Name: "metrics_invalid", Help: "invalid metric name"})}
	}
	g := prom.NewGauge(prom.GaugeOpts{Name: fq, Help: help, ConstLabels: mergeLabels(s.constLabels(), labelNames, labelValues)})
	got, err := s.register(g)
	if err != nil {
		return Gauge{g: g}
	}
	return Gauge{g: got.(prom.Gauge)}
}

func newHistogram(buckets []float64) func(s *Subsystem, name, help string, labelNames, labelValues []string) Histogram {
	return func(s *Subsystem, name, help string, labelNames, labelValues []string) Histogram {
		fq, err := s.fqName(name)
		if err != nil {
			return Histogram{h: prom.NewHistogram(prom.HistogramOpts{Name: "metrics_invalid", Help: "invalid metric name"})}
		}
		if len(buckets) == 0 {
			buckets = prom.DefBuckets
		}
		h := prom.NewHistogram(prom.HistogramOpts{Name: fq, Help: help, Buckets: buckets, ConstLabels: mergeLabels(s.constLabels(), labelNames, labelValues)})
		got, err := s.register(h)
		if err != nil {
			return Histogram{h: h}
		}
		return Histogram{h: got.(prom.Histogram)}
	}
}

func newTimeHistogram(buckets []float64) func(s *Subsystem, name, help string, labelNames, labelValues []string) TimeHistogram {
	build := newHistogram(buckets)
	return func(s *Subsystem, name, help string, labelNames, labelValues []string) TimeHistogram {
		return TimeHistogram(build(s, name, help, labelNames, labelValues))
	}
}

func mergeLabels(base prom.Labels, names, values []string) prom.Labels {
	out := prom.Labels{}
	for k, v := range base {
		out[k] = v
	}
	for i, n := range names {
		if i < len(values) {
			out[n] = values[i]
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
