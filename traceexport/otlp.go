package traceexport

import (
	"context"
	"fmt"
	"time"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	collectortracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hearthwatch/telemetry/config"
	"github.com/hearthwatch/telemetry/logging"
	"github.com/hearthwatch/telemetry/tracing"
)

// OTLPGRPCExporter batches finished spans and ships them to a collector's
// v1/traces gRPC endpoint. Spans are the engine's own FinishedSpan type, not
// an OTel SDK span, so the ExportTraceServiceRequest is built by hand
// (spec.md §4.5.2 / SPEC_FULL DOMAIN STACK).
type OTLPGRPCExporter struct {
	client      collectortracepb.TraceServiceClient
	conn        *grpc.ClientConn
	serviceName string
	maxBatch    int
	timeout     time.Duration
	log         *logging.Handle
}

// NewOTLPGRPCExporter dials settings.EndpointURL and prepares a client for
// the TraceService.Export RPC.
func NewOTLPGRPCExporter(settings config.OpenTelemetryGRPC, serviceName string, log *logging.Handle) (*OTLPGRPCExporter, error) {
	conn, err := grpc.NewClient(settings.EndpointURL, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("traceexport: dial otlp collector: %w", err)
	}
	maxBatch := settings.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = 100
	}
	return &OTLPGRPCExporter{
		client:      collectortracepb.NewTraceServiceClient(conn),
		conn:        conn,
		serviceName: serviceName,
		maxBatch:    maxBatch,
		timeout:     settings.RequestTimeout(),
		log:         log,
	}, nil
}

// Run pulls up to maxBatch finished spans per cycle and ships them as one
// ExportTraceServiceRequest, until the channel closes.
func (e *OTLPGRPCExporter) Run(ctx context.Context, spans <-chan tracing.FinishedSpan) error {
	defer e.conn.Close()
	batch := make([]tracing.FinishedSpan, 0, e.maxBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		e.send(ctx, batch)
		batch = batch[:0]
	}
	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		case fs, ok := <-spans:
			if !ok {
				flush()
				return nil
			}
			batch = append(batch, fs)
		drain:
			for len(batch) < e.maxBatch {
				select {
				case more, ok := <-spans:
					if !ok {
						flush()
						return nil
					}
					batch = append(batch, more)
				default:
					break drain
				}
			}
			flush()
		}
	}
}

func (e *OTLPGRPCExporter) send(ctx context.Context, batch []tracing.FinishedSpan) {
	req := &collectortracepb.ExportTraceServiceRequest{
		ResourceSpans: []*tracepb.ResourceSpans{e.toResourceSpans(batch)},
	}
	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if _, err := e.client.Export(reqCtx, req); err != nil {
		if e.log != nil {
			e.log.Error("otlp export: send batch", logging.F("batch_size", len(batch)), logging.F("error", err.Error()))
		}
		// transport errors are logged and the batch is not retried,
		// per spec.md §4.5.2
	}
}

func (e *OTLPGRPCExporter) toResourceSpans(batch []tracing.FinishedSpan) *tracepb.ResourceSpans {
	scopeSpans := &tracepb.ScopeSpans{}
	for _, fs := range batch {
		scopeSpans.Spans = append(scopeSpans.Spans, toOTLPSpan(fs))
	}
	return &tracepb.ResourceSpans{
		Resource: &resourcepb.Resource{
			Attributes: []*commonpb.KeyValue{
				{Key: "service.name", Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: e.serviceName}}},
			},
		},
		ScopeSpans: []*tracepb.ScopeSpans{scopeSpans},
	}
}

func toOTLPSpan(fs tracing.FinishedSpan) *tracepb.Span {
	traceIDBytes := make([]byte, 16)
	copy(traceIDBytes, fs.TraceID[:])
	spanIDBytes := make([]byte, 8)
	copy(spanIDBytes, fs.SpanID[:])

	sp := &tracepb.Span{
		TraceId:           traceIDBytes,
		SpanId:            spanIDBytes,
		Name:              fs.Name,
		Kind:              tracepb.Span_SPAN_KIND_INTERNAL,
		StartTimeUnixNano: uint64(fs.Start.UnixNano()),
		EndTimeUnixNano:   uint64(fs.Finish.UnixNano()),
	}
	if fs.ParentSpanID.IsValid() {
		parentBytes := make([]byte, 8)
		copy(parentBytes, fs.ParentSpanID[:])
		sp.ParentSpanId = parentBytes
	}
	for _, tag := range fs.Tags {
		sp.Attributes = append(sp.Attributes, &commonpb.KeyValue{
			Key:   string(tag.Key),
			Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: tag.Value.AsString()}},
		})
	}
	for _, f := range fs.LogFields {
		sp.Events = append(sp.Events, &tracepb.Span_Event{
			TimeUnixNano: uint64(fs.Finish.UnixNano()),
			Name:         f.Key,
			Attributes: []*commonpb.KeyValue{
				{Key: f.Key, Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: f.Value}}},
			},
		})
	}
	return sp
}
