package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumWhere returns the value of the data point whose attribute key equals
// value, and whether such a point exists.
func sumWhere(sum metricdata.Sum[int64], key, value string) (int64, bool) {
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return dp.Value, true
		}
	}
	return 0, false
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordParse(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordParse(ctx, "http", "log_set", "set_log", 1.0, 40*time.Microsecond)
	m.RecordParse(ctx, "http", "log_set", "set_log", 0.9, 60*time.Microsecond)
	m.RecordParse(ctx, "stream", "unknown", "unknown", 0, 20*time.Microsecond)

	rm := collect(t, reader)

	dur := findMetric(rm, "gymvox.parse.duration")
	if dur == nil {
		t.Fatal("gymvox.parse.duration not found")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("gymvox.parse.duration is not a histogram")
	}
	var samples uint64
	for _, dp := range hist.DataPoints {
		samples += dp.Count
	}
	if samples != 3 {
		t.Errorf("duration samples = %d, want 3", samples)
	}

	cmds := findMetric(rm, "gymvox.parse.commands")
	if cmds == nil {
		t.Fatal("gymvox.parse.commands not found")
	}
	sum, ok := cmds.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("gymvox.parse.commands is not a sum")
	}
	if got, ok := sumWhere(sum, "kind", "log_set"); !ok || got != 2 {
		t.Errorf("log_set count = %d (found=%v), want 2", got, ok)
	}
	if got, ok := sumWhere(sum, "source", "stream"); !ok || got != 1 {
		t.Errorf("stream count = %d (found=%v), want 1", got, ok)
	}

	if findMetric(rm, "gymvox.parse.confidence") == nil {
		t.Error("gymvox.parse.confidence not found")
	}
}

func TestRecordAliasChange(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAliasChange(ctx, "teach", Status(nil))
	m.RecordAliasChange(ctx, "teach", Status(nil))
	m.RecordAliasChange(ctx, "forget", Status(errors.New("unknown alias")))

	rm := collect(t, reader)
	met := findMetric(rm, "gymvox.lexicon.aliases_taught")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	if got, ok := sumWhere(sum, "op", "teach"); !ok || got != 2 {
		t.Errorf("teach count = %d, want 2", got)
	}
	if got, ok := sumWhere(sum, "status", "error"); !ok || got != 1 {
		t.Errorf("error count = %d, want 1", got)
	}
}

func TestSetLexiconSize(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.SetLexiconSize(ctx, 10)
	m.SetLexiconSize(ctx, 42)

	rm := collect(t, reader)
	met := findMetric(rm, "gymvox.lexicon.size")
	if met == nil {
		t.Fatal("metric not found")
	}
	g, ok := met.Data.(metricdata.Gauge[int64])
	if !ok {
		t.Fatalf("metric is %T, want gauge", met.Data)
	}
	if len(g.DataPoints) != 1 || g.DataPoints[0].Value != 42 {
		t.Errorf("gauge points = %+v, want a single 42", g.DataPoints)
	}
}

func TestToolCallsCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordToolCall(ctx, "parse_transcript", "ok")
	m.RecordToolCall(ctx, "parse_transcript", "error")

	rm := collect(t, reader)
	met := findMetric(rm, "gymvox.mcp.tool.calls")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	if got, ok := sumWhere(sum, "status", "ok"); !ok || got != 1 {
		t.Errorf("ok count = %d, want 1", got)
	}
}

func TestStreamConnections(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.StreamConnections.Add(ctx, 1)
	m.StreamConnections.Add(ctx, 1)
	m.StreamConnections.Add(ctx, -1)

	rm := collect(t, reader)
	met := findMetric(rm, "gymvox.stream.connections")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	if len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
		t.Errorf("open streams = %+v, want 1", sum.DataPoints)
	}
}

func TestHTTPRequestDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.HTTPRequestDuration.Record(ctx, 0.05,
		metric.WithAttributes(
			attribute.String("method", "GET"),
			attribute.String("path", "/healthz"),
		),
	)

	rm := collect(t, reader)
	met := findMetric(rm, "gymvox.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if got := hist.DataPoints[0].Count; got != 1 {
		t.Errorf("sample count = %d, want 1", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
