package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.RecordWrite("bet", "create", nil)
	m.RecordWrite("bet", "create", nil)
	m.RecordWrite("trade", "delete", errors.New("boom"))
	m.FetchFailed("trade")
	m.EventPublished(nil)
	m.Limited()

	if got := testutil.ToFloat64(m.RecordWrites.WithLabelValues("bet", "create", OutcomeSuccess)); got != 2 {
		t.Errorf("bet creates = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RecordWrites.WithLabelValues("trade", "delete", OutcomeError)); got != 1 {
		t.Errorf("failed trade deletes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.FetchFailures.WithLabelValues("trade")); got != 1 {
		t.Errorf("trade fetch failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RateLimited); got != 1 {
		t.Errorf("rate limited = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordWrite("bet", "create", nil)
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.SheetExported("bet", time.Second, nil)
	m.Limited()
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/bets/history", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`bankroll_http_requests_total{method="GET",route="/bets/history",status="200"} 1`,
		"bankroll_http_request_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output is missing %q", want)
		}
	}
}
