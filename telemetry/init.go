package telemetry

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/hearthwatch/telemetry/config"
	"github.com/hearthwatch/telemetry/health"
	"github.com/hearthwatch/telemetry/livetrace"
	"github.com/hearthwatch/telemetry/logging"
	"github.com/hearthwatch/telemetry/metrics"
	"github.com/hearthwatch/telemetry/telemetryserver"
	"github.com/hearthwatch/telemetry/traceexport"
	"github.com/hearthwatch/telemetry/tracing"
)

// ServiceInfo names the process Init is wiring telemetry for; it feeds the
// metrics registry's service-name formatting and the info metric every
// service reports about itself.
type ServiceInfo struct {
	Name    string
	Version string
}

// Runtime is everything Init hands back: the root Context a caller installs
// once at process start, the metrics registry for callers registering their
// own Family instances, the health evaluator, and the Driver.
type Runtime struct {
	Root    Context
	Metrics *metrics.Registry
	Health  *health.Evaluator
	Driver  *Driver
}

var initOnce sync.Once
var initErr = fmt.Errorf("telemetry: Init already called in this process")

// Init builds the whole telemetry runtime from settings: the log pipeline,
// the trace engine and its exporter (if tracing is enabled), the metrics
// registry, the live trace registry, and (if enabled) the telemetry HTTP
// server bound early so its address is known before the caller finishes its
// own startup sequence. Init may be called at most once per process; a
// second call returns an error rather than silently rewiring the global
// logger/tracer out from under already-running code.
func Init(info ServiceInfo, settings config.Settings) (*Runtime, error) {
	var rt *Runtime
	var err error
	called := false
	initOnce.Do(func() {
		called = true
		rt, err = initOnce1(info, settings)
	})
	if !called {
		return nil, initErr
	}
	return rt, err
}

func initOnce1(info ServiceInfo, settings config.Settings) (*Runtime, error) {
	settings = settings.Normalize()

	log, err := buildLogger(settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("telemetry: init logging: %w", err)
	}

	metricsReg := metrics.NewRegistry(info.Name, settings.Metrics.ServiceNameFormat)
	metricsReg.ReportInfo("build", "build_info", "service build metadata", buildInfoLabels{Version: info.Version})

	liveTraces := livetrace.NewRegistry(false)

	var tracer *tracing.Tracer
	var driverTasks []func(ctx context.Context) error
	if settings.Tracing.Enabled {
		sampler := buildSampler(settings.Tracing.SamplingStrategy)
		tracer = tracing.NewTracer(sampler, 256, liveTraces, false)
		exporterTask, err := buildExporterTask(settings.Tracing, info.Name, tracer, log)
		if err != nil {
			return nil, fmt.Errorf("telemetry: init tracing exporter: %w", err)
		}
		driverTasks = append(driverTasks, exporterTask)
	}
	setGlobalTracer(tracer)

	evaluator := health.NewEvaluator(0)

	var srv *telemetryserver.Server
	if settings.Server.Enabled {
		srv = telemetryserver.New(telemetryserver.Deps{
			Metrics:    metricsReg,
			MetricsCfg: settings.Metrics,
			LiveTraces: liveTraces,
			Health:     evaluator,
			Log:        log,
		})
		if err := srv.Listen(settings.Server.Addr); err != nil {
			return nil, fmt.Errorf("telemetry: bind telemetry server: %w", err)
		}
	}

	if settings.MemoryProfiler.Enabled {
		startMemoryProfiler(settings.MemoryProfiler)
	}

	driver := newDriver(srv)
	for _, task := range driverTasks {
		driver.AddTask(task)
	}

	root := Context{Log: log}
	return &Runtime{Root: root, Metrics: metricsReg, Health: evaluator, Driver: driver}, nil
}

type buildInfoLabels struct{ Version string }

func (b buildInfoLabels) Names() []string  { return []string{"version"} }
func (b buildInfoLabels) Values() []string { return []string{b.Version} }

func buildLogger(settings config.LoggingSettings) (*logging.Handle, error) {
	var sink logging.Sink
	var err error
	switch {
	case settings.Format == "json" && settings.Output.Kind == "file":
		sink, err = logging.NewFileJSONSink(settings.Output.Path)
	case settings.Format == "json":
		sink = logging.NewStdoutJSONSink()
	case settings.Output.Kind == "file":
		sink, err = logging.NewFileSink(settings.Output.Path)
	default:
		sink = logging.NewTerminalSink(os.Stdout)
	}
	if err != nil {
		return nil, err
	}
	return logging.NewHandle(settings, sink, nil), nil
}

func buildSampler(s config.SamplingStrategy) tracing.Sampler {
	if s.Kind == "active" {
		return tracing.NewProbabilisticSampler(s.Ratio, s.CapPerSecond)
	}
	return tracing.PassiveSampler{}
}

func buildExporterTask(settings config.TracingSettings, serviceName string, tracer *tracing.Tracer, log *logging.Handle) (func(ctx context.Context) error, error) {
	switch settings.Output.Kind {
	case "jaeger_thrift_udp":
		if settings.Output.Jaeger == nil {
			return nil, fmt.Errorf("tracing output kind jaeger_thrift_udp with no jaeger config")
		}
		exporter, err := traceexport.NewJaegerUDPExporter(settings.Output.Jaeger.ReporterBindAddr, settings.Output.Jaeger.ServerAddr, serviceName, log)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error { return exporter.Run(ctx, tracer.Finished()) }, nil
	case "otlp_grpc":
		if settings.Output.OTLP == nil {
			return nil, fmt.Errorf("tracing output kind otlp_grpc with no otlp config")
		}
		exporter, err := traceexport.NewOTLPGRPCExporter(*settings.Output.OTLP, serviceName, log)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error { return exporter.Run(ctx, tracer.Finished()) }, nil
	default:
		return nil, fmt.Errorf("unknown tracing output kind %q", settings.Output.Kind)
	}
}

// startMemoryProfiler turns on Go's built-in allocation-site sampling at the
// configured rate. There is no in-pack example of jemalloc-style sampled
// heap profiling (the teacher and the rest of the retrieval pack never
// touch an allocator profiler), so this is deliberately built on
// runtime.MemProfileRate rather than invented third-party bindings: it is
// the nearest stdlib equivalent and it feeds the same runtime/pprof heap
// dump the telemetry server's /pprof/heap route already serves.
func startMemoryProfiler(settings config.MemoryProfilerSettings) {
	rate := 1 << (12 + settings.SampleInterval/4)
	runtime.MemProfileRate = rate
}
