// Package traceexport implements the two trace exporters of spec.md C5:
// Jaeger Thrift over UDP and OpenTelemetry over gRPC. Both are plain
// functions over a channel of finished spans, terminating when the
// tracer's sender side closes the channel.
package traceexport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/apache/thrift/lib/go/thrift"
	jaegerthrift "github.com/uber/jaeger-client-go/thrift-gen/jaeger"

	"github.com/hearthwatch/telemetry/logging"
	"github.com/hearthwatch/telemetry/tracing"
)

// JaegerUDPExporter sends each finished span as one compact-Thrift Jaeger
// Batch datagram, reusing the thrift-gen/jaeger wire structs from
// github.com/uber/jaeger-client-go instead of hand-rolling Thrift.
type JaegerUDPExporter struct {
	conn        *net.UDPConn
	process     *jaegerthrift.Process
	log         *logging.Handle
	maxSpanTags int
}

// NewJaegerUDPExporter binds a UDP socket to localAddr (empty for an
// ephemeral loopback port) and dials remoteAddr (the Jaeger agent).
// Address family of local and remote must match, per spec.md §4.5.1.
func NewJaegerUDPExporter(localAddr, remoteAddr, serviceName string, log *logging.Handle) (*JaegerUDPExporter, error) {
	raddr, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return nil, fmt.Errorf("traceexport: resolve jaeger agent addr: %w", err)
	}
	var laddr *net.UDPAddr
	if localAddr != "" {
		laddr, err = net.ResolveUDPAddr(raddr.Network(), localAddr)
		if err != nil {
			return nil, fmt.Errorf("traceexport: resolve local addr: %w", err)
		}
	}
	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("traceexport: dial jaeger agent: %w", err)
	}
	return &JaegerUDPExporter{
		conn:    conn,
		process: &jaegerthrift.Process{ServiceName: serviceName},
		log:     log,
	}, nil
}

// Run drains spans until the channel is closed, sending one UDP datagram
// per finished span.
func (e *JaegerUDPExporter) Run(ctx context.Context, spans <-chan tracing.FinishedSpan) error {
	defer e.conn.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fs, ok := <-spans:
			if !ok {
				return nil
			}
			e.sendOne(fs)
		}
	}
}

func (e *JaegerUDPExporter) sendOne(fs tracing.FinishedSpan) {
	thriftSpan := toThriftSpan(fs)
	batch := &jaegerthrift.Batch{Process: e.process, Spans: []*jaegerthrift.Span{thriftSpan}}
	payload, err := serializeBatch(batch)
	if err != nil {
		if e.log != nil {
			e.log.Error("jaeger export: encode span", logging.F("span", fs.Name), logging.F("error", err.Error()))
		}
		return
	}
	_, err = e.conn.Write(payload)
	if err == nil {
		return
	}
	if errors.Is(err, syscall.EMSGSIZE) {
		largest := largestTagName(thriftSpan.Tags)
		if e.log != nil {
			e.log.Error("jaeger export: datagram too large for agent socket",
				logging.F("span", fs.Name),
				logging.F("tag_count", len(thriftSpan.Tags)),
				logging.F("approx_size_bytes", len(payload)),
				logging.F("largest_tag", largest),
				logging.F("log_field_count", len(thriftSpan.Logs)),
			)
		}
		return // do not retry or drop later spans, per spec.md §4.5.1
	}
	if e.log != nil {
		e.log.Error("jaeger export: send datagram", logging.F("span", fs.Name), logging.F("error", err.Error()))
	}
}

func largestTagName(tags []*jaegerthrift.Tag) string {
	var best string
	var bestLen int
	for _, tag := range tags {
		l := len(tag.Key)
		if tag.VStr != nil {
			l += len(*tag.VStr)
		}
		if l > bestLen {
			bestLen = l
			best = tag.Key
		}
	}
	return best
}

func toThriftSpan(fs tracing.FinishedSpan) *jaegerthrift.Span {
	traceHigh, traceLow := traceIDHalves(fs.TraceID)
	flags := int32(0)
	if fs.Sampled {
		flags = 1
	}
	sp := &jaegerthrift.Span{
		TraceIdLow:    traceLow,
		TraceIdHigh:   traceHigh,
		SpanId:        spanIDToInt64(fs.SpanID),
		ParentSpanId:  spanIDToInt64(fs.ParentSpanID),
		OperationName: fs.Name,
		Flags:         flags,
		StartTime:     fs.Start.UnixMicro(),
		Duration:      fs.Finish.Sub(fs.Start).Microseconds(),
	}
	for _, tag := range fs.Tags {
		s := tag.Value.AsString()
		sp.Tags = append(sp.Tags, &jaegerthrift.Tag{
			Key:  string(tag.Key),
			VType: jaegerthrift.TagType_STRING,
			VStr: &s,
		})
	}
	for _, f := range fs.LogFields {
		v := f.Value
		sp.Logs = append(sp.Logs, &jaegerthrift.Log{
			Timestamp: fs.Finish.UnixMicro(),
			Fields: []*jaegerthrift.Tag{{
				Key:   f.Key,
				VType: jaegerthrift.TagType_STRING,
				VStr:  &v,
			}},
		})
	}
	return sp
}

func serializeBatch(batch *jaegerthrift.Batch) ([]byte, error) {
	var buf bytes.Buffer
	transport := thrift.NewStreamTransportW(&buf)
	proto := thrift.NewTCompactProtocolConf(transport, nil)
	if err := batch.Write(context.Background(), proto); err != nil {
		return nil, fmt.Errorf("write thrift batch: %w", err)
	}
	if err := proto.Flush(context.Background()); err != nil {
		return nil, fmt.Errorf("flush thrift batch: %w", err)
	}
	return buf.Bytes(), nil
}
