package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelBridge mirrors selected counters into an OTel MeterProvider for
// deployments layering OTel exporters/views alongside the native
// OpenMetrics /metrics endpoint — parity with the optional registry rather
// than a replacement for it. Grounded in the teacher's
// telemetry/metrics/otel_provider.go bridge.
type OTelBridge struct {
	mp    *sdkmetric.MeterProvider
	meter otelmetric.Meter
}

// NewOTelBridge builds a bare MeterProvider (no exporter attached here;
// callers wire one in via sdkmetric.WithReader before handing this off in
// production).
func NewOTelBridge(serviceName string) *OTelBridge {
	mp := sdkmetric.NewMeterProvider()
	return &OTelBridge{mp: mp, meter: mp.Meter(serviceName)}
}

// MirrorCounter declares an OTel Float64Counter alongside a registry
// counter of the same name/help, returning a recorder callers invoke
// wherever they'd otherwise call Counter.Inc.
func (b *OTelBridge) MirrorCounter(name, help string) (func(ctx context.Context, delta float64, attrs ...attribute.KeyValue), error) {
	inst, err := b.meter.Float64Counter(name, otelmetric.WithDescription(help))
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, delta float64, attrs ...attribute.KeyValue) {
		inst.Add(ctx, delta, otelmetric.WithAttributes(attrs...))
	}, nil
}

// Shutdown flushes and releases the underlying MeterProvider.
func (b *OTelBridge) Shutdown(ctx context.Context) error { return b.mp.Shutdown(ctx) }
