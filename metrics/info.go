package metrics

import prom "github.com/prometheus/client_golang/prometheus"

// ReportInfo stores info, keyed by key, as a gauge always set to 1 with a
// label set equal to info's fields (spec.md §4.7 "Info metric"). A later
// call with the same key replaces the previous value rather than adding a
// second series.
func (r *Registry) ReportInfo(key, name, help string, info LabelSet) {
	labels := prom.Labels{}
	names, values := info.Names(), info.Values()
	for i, n := range names {
		if i < len(values) {
			labels[n] = values[i]
		}
	}
	r.infoMu.Lock()
	defer r.infoMu.Unlock()
	r.info[key] = infoRecord{name: sanitize(name), help: help, labels: labels}
}
