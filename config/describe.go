package config

// Describe replaces the original's settings!-macro-generated add_docs walk
// (spec.md §9) with a hand-written key-path -> doc-line map. The settings
// module proper owns rendering this into operator-facing documentation; the
// core only needs to expose it so that surface isn't silently undocumented.
func Describe() map[string]string {
	return map[string]string{
		"logging.output":              "Where rendered log lines go: terminal or a file path.",
		"logging.format":              "text or json.",
		"logging.verbosity":           "Minimum level emitted: critical|error|warning|info|debug|trace.",
		"logging.redact_keys":         "Field keys stripped from every record before it reaches a sink.",
		"logging.rate_limit":          "Token-bucket cap on emitted records; records over the cap are dropped and not counted by any metric.",
		"logging.log_volume_metrics":  "When enabled, increments log_records_total{level} once per record.",
		"tracing.enabled":             "Master switch for the trace engine and its exporter.",
		"tracing.output":              "Exporter selection: jaeger_thrift_udp or otlp_grpc, with its own sub-config.",
		"tracing.sampling_strategy":   "passive (honor incoming sampled flag) or active (ratio + token-bucket cap).",
		"metrics.service_name_format": "metric_prefix namespaces subsystems by name; label_with_name adds a service label instead.",
		"metrics.report_optional":     "Whether /metrics also serializes the optional registry.",
		"memory_profiler.enabled":     "When enabled, Init sets Go's runtime.MemProfileRate from sample_interval; /pprof/heap and /pprof/heap_stats are served either way.",
		"memory_profiler.sample_interval": "0..64; Init turns it into runtime.MemProfileRate = 1 << (12 + sample_interval/4) bytes.",
		"server.enabled":              "Whether the telemetry HTTP server binds at all.",
		"server.addr":                "tcp host:port or a unix socket path.",
	}
}
