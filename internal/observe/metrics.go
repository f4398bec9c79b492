// Package observe provides application-wide observability primitives for
// gymvox: OpenTelemetry metrics, distributed tracing, trace-aware structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed by [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all gymvox metrics.
const meterName = "github.com/MrWong99/gymvox"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Parser ---

	// ParseDuration tracks the time to parse one transcript.
	ParseDuration metric.Float64Histogram

	// ParseCommands counts parsed commands. Attributes:
	//   attribute.String("kind", ...), attribute.String("rule", ...), attribute.String("source", ...)
	ParseCommands metric.Int64Counter

	// ParseConfidence records the confidence of every parsed command.
	// Attribute: attribute.String("kind", ...)
	ParseConfidence metric.Float64Histogram

	// --- Lexicon ---

	// AliasChanges counts alias teach/forget operations. Attributes:
	//   attribute.String("op", ...), attribute.String("status", ...)
	AliasChanges metric.Int64Counter

	// LexiconSize is the number of distinct names and aliases in the
	// current lexicon snapshot.
	LexiconSize metric.Int64Gauge

	// --- Surfaces ---

	// ToolCalls counts MCP tool invocations. Attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// StreamConnections tracks open WebSocket transcript streams.
	StreamConnections metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// parseBuckets are histogram boundaries in seconds. A parse is a handful of
// map lookups, so the interesting range is microseconds.
var parseBuckets = []float64{
	0.00001, 0.000025, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01,
}

var confidenceBuckets = []float64{0, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1}

var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Parser.
	if met.ParseDuration, err = m.Float64Histogram("gymvox.parse.duration",
		metric.WithDescription("Latency of parsing one transcript."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(parseBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ParseCommands, err = m.Int64Counter("gymvox.parse.commands",
		metric.WithDescription("Total parsed commands by kind, rule and source."),
	); err != nil {
		return nil, err
	}
	if met.ParseConfidence, err = m.Float64Histogram("gymvox.parse.confidence",
		metric.WithDescription("Confidence of parsed commands by kind."),
		metric.WithExplicitBucketBoundaries(confidenceBuckets...),
	); err != nil {
		return nil, err
	}

	// Lexicon.
	if met.AliasChanges, err = m.Int64Counter("gymvox.lexicon.aliases_taught",
		metric.WithDescription("Total alias teach and forget operations by op and status."),
	); err != nil {
		return nil, err
	}
	if met.LexiconSize, err = m.Int64Gauge("gymvox.lexicon.size",
		metric.WithDescription("Distinct exercise names and aliases in the lexicon."),
	); err != nil {
		return nil, err
	}

	// Surfaces.
	if met.ToolCalls, err = m.Int64Counter("gymvox.mcp.tool.calls",
		metric.WithDescription("Total MCP tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.StreamConnections, err = m.Int64UpDownCounter("gymvox.stream.connections",
		metric.WithDescription("Number of open transcript streams."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("gymvox.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordParse records one parse: its latency, the produced command kind and
// the winning rule, and the confidence.
func (m *Metrics) RecordParse(ctx context.Context, source, kind, rule string, confidence float64, d time.Duration) {
	m.ParseDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("source", source)),
	)
	m.ParseCommands.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("rule", rule),
			attribute.String("source", source),
		),
	)
	m.ParseConfidence.Record(ctx, confidence,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}

// Status is the "status" attribute value for an operation that returned err.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordAliasChange records an alias teach or forget.
func (m *Metrics) RecordAliasChange(ctx context.Context, op, status string) {
	m.AliasChanges.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", status),
		),
	)
}

// SetLexiconSize records the current lexicon size.
func (m *Metrics) SetLexiconSize(ctx context.Context, n int) {
	m.LexiconSize.Record(ctx, int64(n))
}

// RecordToolCall records an MCP tool call.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}
