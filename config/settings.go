// Package config holds the YAML-serializable Settings tree the telemetry
// runtime consumes as immutable configuration at Init. The settings/YAML
// module that validates and hot-reloads this tree in production is an
// out-of-scope collaborator (see spec.md §1); this package only defines the
// shape, its defaults, and a self-documenting field map, mirroring the
// Default()/Normalize() pattern the teacher used for its telemetry policy
// knobs.
package config

import "time"

// LogLevel enumerates the verbosity levels a logger can be filtered at.
type LogLevel int

const (
	LevelCritical LogLevel = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l LogLevel) String() string {
	switch l {
	case LevelCritical:
		return "critical"
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// MarshalYAML renders the level as its lowercase name.
func (l LogLevel) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// UnmarshalYAML parses the lowercase name back into a LogLevel.
func (l *LogLevel) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch s {
	case "critical":
		*l = LevelCritical
	case "error":
		*l = LevelError
	case "warning":
		*l = LevelWarning
	case "info":
		*l = LevelInfo
	case "debug":
		*l = LevelDebug
	case "trace":
		*l = LevelTrace
	default:
		*l = LevelInfo
	}
	return nil
}

// LogOutput selects where rendered log lines are written.
type LogOutput struct {
	// Kind is one of "terminal" or "file".
	Kind string `yaml:"kind"`
	// Path is required when Kind is "file".
	Path string `yaml:"path,omitempty"`
}

// RateLimit bounds emission with a token bucket.
type RateLimit struct {
	Enabled           bool    `yaml:"enabled"`
	EventsPerSecond   float64 `yaml:"events_per_second"`
	Burst             int     `yaml:"burst"`
	CountDroppedAsErr bool    `yaml:"count_dropped_as_err"`
}

// LoggingSettings configures the structured log pipeline (C3).
type LoggingSettings struct {
	Output           LogOutput `yaml:"output"`
	Format           string    `yaml:"format"` // "text" | "json"
	Verbosity        LogLevel  `yaml:"verbosity"`
	RedactKeys       []string  `yaml:"redact_keys,omitempty"`
	RateLimit        RateLimit `yaml:"rate_limit"`
	LogVolumeMetrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"log_volume_metrics"`
}

// JaegerThriftUDP configures the Jaeger Thrift/UDP exporter.
type JaegerThriftUDP struct {
	ServerAddr      string `yaml:"server_addr"`
	ReporterBindAddr string `yaml:"reporter_bind_addr,omitempty"`
}

// OpenTelemetryGRPC configures the OTLP/gRPC exporter.
type OpenTelemetryGRPC struct {
	EndpointURL          string        `yaml:"endpoint_url"`
	MaxBatchSize         int           `yaml:"max_batch_size"`
	RequestTimeoutSeconds int          `yaml:"request_timeout_seconds"`
	requestTimeout       time.Duration // derived, not serialized
}

// RequestTimeout returns RequestTimeoutSeconds as a time.Duration.
func (o OpenTelemetryGRPC) RequestTimeout() time.Duration {
	if o.requestTimeout != 0 {
		return o.requestTimeout
	}
	return time.Duration(o.RequestTimeoutSeconds) * time.Second
}

// TraceOutput is a sum type over the two supported exporters. Exactly one of
// Jaeger or OTLP should be non-nil; Kind names which.
type TraceOutput struct {
	Kind   string             `yaml:"kind"` // "jaeger_thrift_udp" | "otlp_grpc"
	Jaeger *JaegerThriftUDP   `yaml:"jaeger,omitempty"`
	OTLP   *OpenTelemetryGRPC `yaml:"otlp,omitempty"`
}

// SamplingStrategy selects how root spans are sampled.
type SamplingStrategy struct {
	Kind         string  `yaml:"kind"` // "passive" | "active"
	Ratio        float64 `yaml:"ratio,omitempty"`
	CapPerSecond float64 `yaml:"cap_per_second,omitempty"`
}

// TracingSettings configures the trace engine and exporters (C4, C5).
type TracingSettings struct {
	Enabled          bool             `yaml:"enabled"`
	Output           TraceOutput      `yaml:"output"`
	SamplingStrategy SamplingStrategy `yaml:"sampling_strategy"`
	RateLimit        RateLimit        `yaml:"rate_limit"`
}

// ServiceNameFormat selects how metric subsystems are namespaced (C7).
type ServiceNameFormat struct {
	Kind          string `yaml:"kind"` // "metric_prefix" | "label_with_name"
	ServiceLabel  string `yaml:"service_label,omitempty"`
}

// MetricsSettings configures the metrics registry (C7).
type MetricsSettings struct {
	ServiceNameFormat ServiceNameFormat `yaml:"service_name_format"`
	ReportOptional    bool              `yaml:"report_optional"`
}

// MemoryProfilerSettings configures Go's built-in allocation sampling
// (runtime.MemProfileRate), which Init sets when Enabled is true.
type MemoryProfilerSettings struct {
	Enabled        bool  `yaml:"enabled"`
	SampleInterval uint8 `yaml:"sample_interval"` // 0..64
}

// ServerAddr is a sum type over TCP and Unix bind targets.
type ServerAddr struct {
	Kind string `yaml:"kind"` // "tcp" | "unix"
	TCP  string `yaml:"tcp,omitempty"`
	Unix string `yaml:"unix,omitempty"`
}

// ServerSettings gates and configures the telemetry HTTP server (C8).
type ServerSettings struct {
	Enabled bool       `yaml:"enabled"`
	Addr    ServerAddr `yaml:"addr"`
}

// Settings is the full configuration surface the runtime consumes at Init.
type Settings struct {
	Logging         LoggingSettings        `yaml:"logging"`
	Tracing         TracingSettings        `yaml:"tracing"`
	Metrics         MetricsSettings        `yaml:"metrics"`
	MemoryProfiler  MemoryProfilerSettings `yaml:"memory_profiler"`
	Server          ServerSettings         `yaml:"server"`
}

// Default returns the settings a freshly started service should use absent
// any operator override: text logs to the terminal at Info, tracing
// disabled, Prometheus-prefixed metrics, memory profiler off, server on a
// loopback TCP port.
func Default() Settings {
	return Settings{
		Logging: LoggingSettings{
			Output:    LogOutput{Kind: "terminal"},
			Format:    "text",
			Verbosity: LevelInfo,
			RateLimit: RateLimit{Enabled: false},
		},
		Tracing: TracingSettings{
			Enabled: false,
			Output: TraceOutput{
				Kind:   "jaeger_thrift_udp",
				Jaeger: &JaegerThriftUDP{ServerAddr: "127.0.0.1:6831"},
			},
			SamplingStrategy: SamplingStrategy{Kind: "passive"},
		},
		Metrics: MetricsSettings{
			ServiceNameFormat: ServiceNameFormat{Kind: "metric_prefix"},
		},
		MemoryProfiler: MemoryProfilerSettings{Enabled: false, SampleInterval: 19},
		Server: ServerSettings{
			Enabled: true,
			Addr:    ServerAddr{Kind: "tcp", TCP: "127.0.0.1:0"},
		},
	}
}

// Normalize returns a copy of s with out-of-range values clamped to safe
// defaults, the same defensive posture the teacher's TelemetryPolicy.Normalize
// applied to hand-edited YAML.
func (s Settings) Normalize() Settings {
	c := s
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Tracing.SamplingStrategy.Ratio < 0 {
		c.Tracing.SamplingStrategy.Ratio = 0
	}
	if c.Tracing.SamplingStrategy.Ratio > 1 {
		c.Tracing.SamplingStrategy.Ratio = 1
	}
	if c.MemoryProfiler.SampleInterval > 64 {
		c.MemoryProfiler.SampleInterval = 64
	}
	if c.Tracing.Output.Kind == "otlp_grpc" && c.Tracing.Output.OTLP != nil {
		if c.Tracing.Output.OTLP.MaxBatchSize <= 0 {
			c.Tracing.Output.OTLP.MaxBatchSize = 100
		}
		if c.Tracing.Output.OTLP.RequestTimeoutSeconds <= 0 {
			c.Tracing.Output.OTLP.RequestTimeoutSeconds = 10
		}
	}
	return c
}
