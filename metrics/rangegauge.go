package metrics

import (
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
)

// RangeGauge is a gauge that additionally tracks the min and max values
// observed since the last scrape, rendering three series: <name>,
// <name>_min, <name>_max (spec.md §4.7). The scrape swaps current into the
// min/max slots, then re-reads current and clamps min/max to it, so
// min <= current <= max holds even under a concurrent Set racing a Collect.
type RangeGauge struct {
	mu      sync.Mutex
	current float64
	min     float64
	max     float64
	seen    bool

	descCurrent *prom.Desc
	descMin     *prom.Desc
	descMax     *prom.Desc
	labelValues []string
}

func newRangeGauge(name, help string, constLabels prom.Labels) *RangeGauge {
	return &RangeGauge{
		descCurrent: prom.NewDesc(name, help, nil, constLabels),
		descMin:     prom.NewDesc(name+"_min", help+" (minimum since last scrape)", nil, constLabels),
		descMax:     prom.NewDesc(name+"_max", help+" (maximum since last scrape)", nil, constLabels),
	}
}

// Set records a new observed value.
func (g *RangeGauge) Set(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = v
	if !g.seen {
		g.min, g.max, g.seen = v, v, true
		return
	}
	if v < g.min {
		g.min = v
	}
	if v > g.max {
		g.max = v
	}
}

// Add adjusts the current value by delta.
func (g *RangeGauge) Add(delta float64) {
	g.mu.Lock()
	v := g.current + delta
	g.mu.Unlock()
	g.Set(v)
}

func (g *RangeGauge) Describe(ch chan<- *prom.Desc) {
	ch <- g.descCurrent
	ch <- g.descMin
	ch <- g.descMax
}

func (g *RangeGauge) Collect(ch chan<- prom.Metric) {
	cur, min, max := g.renderAndReset()
	ch <- prom.MustNewConstMetric(g.descCurrent, prom.GaugeValue, cur)
	ch <- prom.MustNewConstMetric(g.descMin, prom.GaugeValue, min)
	ch <- prom.MustNewConstMetric(g.descMax, prom.GaugeValue, max)
}

func (g *RangeGauge) collector() prom.Collector { return g }

func (g *RangeGauge) renderAndReset() (cur, min, max float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	min, max = g.min, g.max
	g.min, g.max = g.current, g.current
	cur = g.current
	if cur < min {
		min = cur
	}
	if cur > max {
		max = cur
	}
	return cur, min, max
}

func newRangeGaugeBuilder(s *Subsystem, name, help string, labelNames, labelValues []string) *RangeGauge {
	fq, err := s.fqName(name)
	if err != nil {
		fq = "metrics_invalid"
	}
	g := newRangeGauge(fq, help, mergeLabels(s.constLabels(), labelNames, labelValues))
	got, regErr := s.register(g)
	if regErr != nil {
		return g
	}
	return got.(*RangeGauge)
}

// NewRangeGaugeFamily declares a RangeGauge family under subsystem.
func NewRangeGaugeFamily[L comparable](s *Subsystem, name, help string) *Family[L, *RangeGauge] {
	return newFamily[L](s, name, help, newRangeGaugeBuilder)
}
