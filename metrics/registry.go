// Package metrics implements the metrics registry (spec.md C7): a main and
// an optional Prometheus registry, subsystem namespacing, generic metric
// families, and OpenMetrics text rendering — grounded in the teacher's
// telemetry/metrics/prometheus.go provider.
package metrics

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hearthwatch/telemetry/config"
)

var nameSanitizeRE = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitize(s string) string {
	s = nameSanitizeRE.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// ExtraProducer appends pre-encoded OpenMetrics text from a third-party
// metrics system during collection (spec.md §4.7 "Extra producers").
type ExtraProducer func() []byte

type infoRecord struct {
	name   string
	help   string
	labels prom.Labels
}

// Registry is the top-level C7 entry point: a main registry, an optional
// registry (only scraped when settings ask for it), an info-metric map
// keyed by caller-chosen id, and a list of extra producer callbacks.
type Registry struct {
	main     *prom.Registry
	optional *prom.Registry

	serviceName string
	format      config.ServiceNameFormat

	infoMu sync.Mutex
	info   map[string]infoRecord

	extraMu sync.Mutex
	extra   []ExtraProducer
}

// NewRegistry builds a Registry namespaced by serviceName according to
// format (spec.md §4.7 "Choice is set once at init").
func NewRegistry(serviceName string, format config.ServiceNameFormat) *Registry {
	return &Registry{
		main:        prom.NewRegistry(),
		optional:    prom.NewRegistry(),
		serviceName: sanitize(serviceName),
		format:      format,
		info:        make(map[string]infoRecord),
	}
}

// Subsystem is a namespaced view over one of the registry's two
// prom.Registry instances (spec.md §4.7 "Subsystem").
type Subsystem struct {
	registry         *prom.Registry
	name             string
	serviceName      string
	format           config.ServiceNameFormat
	useServicePrefix bool
}

// GetSubsystem returns a namespaced sub-registry view. optional selects the
// optional registry over the main one; useServicePrefix controls, when the
// registry-wide format is MetricPrefix, whether this particular subsystem's
// metric names are additionally prefixed with the service name.
func (r *Registry) GetSubsystem(name string, optional bool, useServicePrefix bool) *Subsystem {
	reg := r.main
	if optional {
		reg = r.optional
	}
	return &Subsystem{
		registry:         reg,
		name:             sanitize(name),
		serviceName:      r.serviceName,
		format:           r.format,
		useServicePrefix: useServicePrefix,
	}
}

func (s *Subsystem) fqName(metric string) (string, error) {
	metric = sanitize(metric)
	if metric == "" {
		return "", fmt.Errorf("metrics: empty metric name in subsystem %q", s.name)
	}
	parts := []string{}
	if s.format.Kind == "metric_prefix" && s.useServicePrefix && s.serviceName != "" {
		parts = append(parts, s.serviceName)
	}
	if s.name != "" {
		parts = append(parts, s.name)
	}
	parts = append(parts, metric)
	return strings.Join(parts, "_"), nil
}

// constLabels returns the extra labels every metric in this subsystem
// carries under the LabelWithName format.
func (s *Subsystem) constLabels() prom.Labels {
	if s.format.Kind != "label_with_name" || s.format.ServiceLabel == "" {
		return nil
	}
	return prom.Labels{s.format.ServiceLabel: s.serviceName}
}

// register registers c, tolerating an AlreadyRegisteredError by returning
// the previously registered collector instead (mirrors the teacher's
// NewCounter/NewGauge/NewHistogram idempotent-register pattern).
func (s *Subsystem) register(c prom.Collector) (prom.Collector, error) {
	if err := s.registry.Register(c); err != nil {
		if are, ok := err.(prom.AlreadyRegisteredError); ok {
			return are.ExistingCollector, nil
		}
		return nil, err
	}
	return c, nil
}

// AddExtraProducer registers a callback invoked during Collect to append
// pre-encoded OpenMetrics text from a third-party metrics system.
func (r *Registry) AddExtraProducer(p ExtraProducer) {
	r.extraMu.Lock()
	defer r.extraMu.Unlock()
	r.extra = append(r.extra, p)
}
