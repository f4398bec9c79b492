package health

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func pass(context.Context) error { return nil }

func failWith(msg string) func(context.Context) error {
	return func(context.Context) error { return errors.New(msg) }
}

// blockUntilDone waits for the check context, the way a hung database ping
// does.
func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func readyz(t *testing.T, h *Handler, ctx context.Context) (int, result) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Readyz(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec.Code, body
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checkers   []Checker
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "no checkers",
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name: "lexicon loaded, postgres up",
			checkers: []Checker{
				{Name: "lexicon", Check: pass},
				{Name: "postgres", Check: pass},
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"lexicon": "ok", "postgres": "ok"},
		},
		{
			name: "postgres down",
			checkers: []Checker{
				{Name: "lexicon", Check: pass},
				{Name: "postgres", Check: failWith("ping: connection refused")},
				{Name: "postgres_breaker", Check: failWith("resilience: circuit breaker is open")},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "fail",
			wantChecks: map[string]string{
				"lexicon":          "ok",
				"postgres":         "fail: ping: connection refused",
				"postgres_breaker": "fail: resilience: circuit breaker is open",
			},
		},
		{
			name:       "empty lexicon",
			checkers:   []Checker{{Name: "lexicon", Check: failWith("lexicon is empty")}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "fail",
			wantChecks: map[string]string{"lexicon": "fail: lexicon is empty"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, body := readyz(t, New(tt.checkers...), context.Background())
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if body.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tt.wantStatus)
			}
			if !maps.Equal(body.Checks, tt.wantChecks) {
				t.Errorf("checks = %v, want %v", body.Checks, tt.wantChecks)
			}
		})
	}
}

func TestReadyz_RunsChecksConcurrently(t *testing.T) {
	t.Parallel()

	// Each check waits until both have started; run one after the other
	// they would both time out.
	var started sync.WaitGroup
	started.Add(2)
	rendezvous := func(ctx context.Context) error {
		started.Done()
		done := make(chan struct{})
		go func() {
			started.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	h := New(
		Checker{Name: "lexicon", Check: rendezvous},
		Checker{Name: "postgres", Check: rendezvous},
	)
	h.timeout = 2 * time.Second

	code, body := readyz(t, h, context.Background())
	if code != http.StatusOK {
		t.Errorf("code = %d, want 200 (checks = %v)", code, body.Checks)
	}
}

func TestReadyz_SlowCheckTimesOutAlone(t *testing.T) {
	t.Parallel()

	h := New(
		Checker{Name: "lexicon", Check: pass},
		Checker{Name: "postgres", Check: blockUntilDone},
	)
	h.timeout = 20 * time.Millisecond

	start := time.Now()
	code, body := readyz(t, h, context.Background())
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Readyz took %v, want about the check timeout", elapsed)
	}
	if code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", code)
	}
	want := map[string]string{
		"lexicon":  "ok",
		"postgres": "fail: " + context.DeadlineExceeded.Error(),
	}
	if !maps.Equal(body.Checks, want) {
		t.Errorf("checks = %v, want %v", body.Checks, want)
	}
}

func TestReadyz_RequestCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, body := readyz(t, New(Checker{Name: "postgres", Check: blockUntilDone}), ctx)
	if code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", code)
	}
	if got := body.Checks["postgres"]; got != "fail: "+context.Canceled.Error() {
		t.Errorf("postgres check = %q", got)
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	New(Checker{Name: "lexicon", Check: failWith("lexicon is empty")}).Register(mux)

	tests := []struct {
		method, path string
		want         int
	}{
		// Liveness ignores the checkers.
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusServiceUnavailable},
		{http.MethodPost, "/healthz", http.StatusMethodNotAllowed},
		{http.MethodPost, "/readyz", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
