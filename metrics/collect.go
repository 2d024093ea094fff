package metrics

import (
	"bytes"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/hearthwatch/telemetry/config"
)

var eofMarker = []byte("# EOF\n")

// Collect renders the full OpenMetrics text body (spec.md §4.7 "Collection"):
// info metrics first, then the main registry, then the optional registry if
// settings.ReportOptional, then every extra producer's bytes, with exactly
// one trailing "# EOF\n".
func (r *Registry) Collect(settings config.MetricsSettings) ([]byte, error) {
	var buf bytes.Buffer

	if err := r.encodeInfoMetrics(&buf); err != nil {
		return nil, fmt.Errorf("metrics: encode info metrics: %w", err)
	}
	if err := encodeRegistry(&buf, r.main); err != nil {
		return nil, fmt.Errorf("metrics: encode main registry: %w", err)
	}
	if settings.ReportOptional {
		if err := encodeRegistry(&buf, r.optional); err != nil {
			return nil, fmt.Errorf("metrics: encode optional registry: %w", err)
		}
	}

	r.extraMu.Lock()
	producers := append([]ExtraProducer(nil), r.extra...)
	r.extraMu.Unlock()
	for _, p := range producers {
		buf.Write(stripEOF(p()))
	}

	buf.Write(eofMarker)
	return buf.Bytes(), nil
}

func (r *Registry) encodeInfoMetrics(buf *bytes.Buffer) error {
	r.infoMu.Lock()
	records := make([]infoRecord, 0, len(r.info))
	for _, rec := range r.info {
		records = append(records, rec)
	}
	r.infoMu.Unlock()
	if len(records) == 0 {
		return nil
	}

	reg := prom.NewRegistry()
	for _, rec := range records {
		g := prom.NewGauge(prom.GaugeOpts{Name: rec.name, Help: rec.help, ConstLabels: rec.labels})
		g.Set(1)
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return encodeRegistry(buf, reg)
}

func encodeRegistry(dst *bytes.Buffer, reg *prom.Registry) error {
	mfs, err := reg.Gather()
	if err != nil {
		return err
	}
	var local bytes.Buffer
	enc := expfmt.NewEncoder(&local, expfmt.NewFormat(expfmt.TypeOpenMetrics))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	dst.Write(stripEOF(local.Bytes()))
	return nil
}

func stripEOF(b []byte) []byte {
	return bytes.TrimSuffix(b, eofMarker)
}
