package metrics

import (
	"errors"
	"sync"
)

// LabelSet is implemented by the small label-holding structs callers pass
// to Family.GetOrCreate. Names and Values must report label dimensions in
// matching order.
type LabelSet interface {
	Names() []string
	Values() []string
}

// Family associates a label-set struct with one metric instance, creating
// it lazily and reusing it on subsequent calls with an equal label set
// (spec.md §4.7 "Family<LabelSet, M>"). L must be comparable so it can key
// the instance cache directly.
type Family[L comparable, M Metric] struct {
	mu        sync.Mutex
	instances map[L]M
	subsystem *Subsystem
	name      string
	help      string
	build     func(s *Subsystem, name, help string, labelNames, labelValues []string) M
}

// NewCounterFamily declares an un-labeled Counter family under subsystem.
func NewCounterFamily(s *Subsystem, name, help string) *Family[emptyLabels, Counter] {
	return newFamily[emptyLabels](s, name, help, newCounter)
}

// NewGaugeFamily declares a Gauge family under subsystem.
func NewGaugeFamily[L comparable](s *Subsystem, name, help string) *Family[L, Gauge] {
	return newFamily[L](s, name, help, newGauge)
}

// NewCounterFamilyFor declares a Counter family with a label-set type L.
func NewCounterFamilyFor[L comparable](s *Subsystem, name, help string) *Family[L, Counter] {
	return newFamily[L](s, name, help, newCounter)
}

// NewHistogramFamily declares a Histogram family with an optional explicit
// (strictly increasing) bucket boundary list — spec.md §4.7 requires bucket
// vectors to be validated, which here happens once at family construction.
func NewHistogramFamily[L comparable](s *Subsystem, name, help string, buckets []float64) (*Family[L, Histogram], error) {
	if err := validateBuckets(buckets); err != nil {
		return nil, err
	}
	return newFamily[L](s, name, help, newHistogram(buckets)), nil
}

// NewTimeHistogramFamily is NewHistogramFamily specialized for durations.
func NewTimeHistogramFamily[L comparable](s *Subsystem, name, help string, buckets []float64) (*Family[L, TimeHistogram], error) {
	if err := validateBuckets(buckets); err != nil {
		return nil, err
	}
	return newFamily[L](s, name, help, newTimeHistogram(buckets)), nil
}

func validateBuckets(buckets []float64) error {
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return errNonIncreasingBuckets
		}
	}
	return nil
}

var errNonIncreasingBuckets = errors.New("metrics: histogram buckets must be strictly increasing")

func newFamily[L comparable, M Metric](s *Subsystem, name, help string, build func(*Subsystem, string, string, []string, []string) M) *Family[L, M] {
	return &Family[L, M]{instances: make(map[L]M), subsystem: s, name: name, help: help, build: build}
}

// GetOrCreate returns the instance for labels, building and registering it
// on first use.
func (f *Family[L, M]) GetOrCreate(labels L) M {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.instances[labels]; ok {
		return m
	}
	var names, values []string
	if ls, ok := any(labels).(LabelSet); ok {
		names, values = ls.Names(), ls.Values()
	}
	m := f.build(f.subsystem, f.name, f.help, names, values)
	f.instances[labels] = m
	return m
}

// emptyLabels is the zero-dimension label set for un-labeled families.
type emptyLabels struct{}

func (emptyLabels) Names() []string  { return nil }
func (emptyLabels) Values() []string { return nil }
