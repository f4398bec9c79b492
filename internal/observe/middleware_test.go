package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// testSetup creates both metrics and tracing infrastructure for middleware tests.
func testSetup(t *testing.T) (*Metrics, *sdkmetric.ManualReader, *tracetest.InMemoryExporter) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(origTP) })

	return m, reader, exp
}

// apiMux mirrors the shape of the gymvox API routes.
func apiMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/parse", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("DELETE /v1/aliases/{alias}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("alias") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestMiddleware_RoutesAndStatus(t *testing.T) {
	m, reader, exp := testSetup(t)
	handler := Middleware(m)(apiMux())

	tests := []struct {
		method, target string
		wantStatus     int
		wantPath       string // metric path attribute
		wantRoute      string // span http.route, "" when unrouted
	}{
		{"POST", "/v1/parse", http.StatusOK, "POST /v1/parse", "POST /v1/parse"},
		{"DELETE", "/v1/aliases/dl", http.StatusNoContent, "DELETE /v1/aliases/{alias}", "DELETE /v1/aliases/{alias}"},
		{"DELETE", "/v1/aliases/missing", http.StatusNotFound, "DELETE /v1/aliases/{alias}", "DELETE /v1/aliases/{alias}"},
		{"GET", "/v1/nope", http.StatusNotFound, "/v1/nope", ""},
	}
	for _, tt := range tests {
		exp.Reset()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

		if rec.Code != tt.wantStatus {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.target, rec.Code, tt.wantStatus)
		}
		spans := exp.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("%s %s: spans = %d, want 1", tt.method, tt.target, len(spans))
		}
		if want := "HTTP " + tt.method + " " + tt.target; spans[0].Name != want {
			t.Errorf("span name = %q, want %q", spans[0].Name, want)
		}
		var route string
		var status int64
		for _, a := range spans[0].Attributes {
			switch string(a.Key) {
			case "http.route":
				route = a.Value.AsString()
			case "http.response.status_code":
				status = a.Value.AsInt64()
			}
		}
		if route != tt.wantRoute {
			t.Errorf("%s %s: http.route = %q, want %q", tt.method, tt.target, route, tt.wantRoute)
		}
		if status != int64(tt.wantStatus) {
			t.Errorf("%s %s: span status = %d, want %d", tt.method, tt.target, status, tt.wantStatus)
		}
	}

	// Both alias deletes share one series keyed by the route pattern.
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	met := findMetric(rm, "gymvox.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist := met.Data.(metricdata.Histogram[float64])
	counts := map[string]uint64{}
	for _, dp := range hist.DataPoints {
		path, _ := dp.Attributes.Value("path")
		counts[path.AsString()] += dp.Count
	}
	want := map[string]uint64{
		"POST /v1/parse":             1,
		"DELETE /v1/aliases/{alias}": 2,
		"/v1/nope":                   1,
	}
	for path, n := range want {
		if counts[path] != n {
			t.Errorf("samples for %q = %d, want %d (all: %v)", path, counts[path], n, counts)
		}
	}
}

func TestMiddleware_CorrelationID(t *testing.T) {
	m, _, _ := testSetup(t)

	var seen string
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationID(r.Context())
	}))

	tests := []struct {
		name        string
		traceparent string
		want        string // "" means any fresh 32-char trace ID
	}{
		{"fresh trace", "", ""},
		{"w3c trace context", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", "4bf92f3577b34da6a3ce929d0e0e4736"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("POST", "/v1/parse", nil)
		if tt.traceparent != "" {
			req.Header.Set("traceparent", tt.traceparent)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if len(seen) != 32 || (tt.want != "" && seen != tt.want) {
			t.Errorf("%s: correlation ID = %q, want %q", tt.name, seen, tt.want)
		}
		if got := rec.Header().Get("X-Correlation-ID"); got != seen {
			t.Errorf("%s: X-Correlation-ID = %q, want %q", tt.name, got, seen)
		}
		if got := rec.Header().Get("traceparent"); !strings.Contains(got, seen) {
			t.Errorf("%s: response traceparent = %q, want trace %s", tt.name, got, seen)
		}
	}
}

func TestMiddleware_QuietPathsLogAtDebug(t *testing.T) {
	m, _, _ := testSetup(t)

	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(orig) })

	handler := Middleware(m)(apiMux())
	for _, req := range []*http.Request{
		httptest.NewRequest("GET", "/healthz", nil),
		httptest.NewRequest("GET", "/metrics", nil),
		httptest.NewRequest("POST", "/v1/parse", nil),
	} {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	levels := map[string]string{}
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line struct {
			Level string `json:"level"`
			Msg   string `json:"msg"`
			Path  string `json:"path"`
		}
		if err := dec.Decode(&line); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		if line.Msg == "request completed" {
			levels[line.Path] = line.Level
		}
	}

	want := map[string]string{"/healthz": "DEBUG", "/metrics": "DEBUG", "/v1/parse": "INFO"}
	for path, level := range want {
		if levels[path] != level {
			t.Errorf("log level for %s = %q, want %q", path, levels[path], level)
		}
	}
}

func TestMiddleware_UnwrapReachesFlusher(t *testing.T) {
	m, _, _ := testSetup(t)

	var flushErr error
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flushErr = http.NewResponseController(w).Flush()
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/stream", nil))

	if flushErr != nil {
		t.Errorf("Flush through middleware: %v", flushErr)
	}
	if !rec.Flushed {
		t.Error("underlying recorder was not flushed")
	}
}

func TestMiddleware_WebSocketUpgrade(t *testing.T) {
	m, _, _ := testSetup(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/stream", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		typ, msg, err := conn.Read(r.Context())
		if err != nil {
			return
		}
		_ = conn.Write(r.Context(), typ, bytes.ToUpper(msg))
		conn.Close(websocket.StatusNormalClosure, "")
	})
	srv := httptest.NewServer(Middleware(m)(mux))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/stream", nil)
	if err != nil {
		t.Fatalf("Dial through middleware: %v", err)
	}
	defer conn.CloseNow()

	if err := conn.Write(ctx, websocket.MessageText, []byte("same again")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_, got, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "SAME AGAIN" {
		t.Errorf("echo = %q, want %q", got, "SAME AGAIN")
	}
}
