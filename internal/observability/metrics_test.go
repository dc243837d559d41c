package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/internal/engine"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/api/projection")

	req := httptest.NewRequest(http.MethodPost, "/api/projection", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `proforma_http_requests_total{code="418",route="/api/projection"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `proforma_http_request_duration_seconds_bucket{route="/api/projection"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestObserveComputation(t *testing.T) {
	metrics := NewMetrics()

	result, err := engine.Compute(assumptions.Default())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	metrics.ObserveComputation(result, time.Millisecond)
	metrics.ObserveComputation(nil, time.Millisecond)
	metrics.ObserveCacheLookup(true)
	metrics.ObserveCacheLookup(false)
	metrics.ObserveCacheLookup(false)

	body := scrape(t, metrics)
	for _, want := range []string{
		`proforma_computations_total{outcome="ok"} 1`,
		`proforma_computations_total{outcome="invalid"} 1`,
		`proforma_irr_total{perspective="equity",status="converged"} 1`,
		`proforma_irr_total{perspective="project",status="converged"} 1`,
		`proforma_cache_lookups_total{result="hit"} 1`,
		`proforma_cache_lookups_total{result="miss"} 2`,
		`proforma_computation_duration_seconds_count 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var metrics *Metrics

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if metrics.Middleware(next) == nil {
		t.Fatalf("nil metrics should pass requests through")
	}
	metrics.ObserveComputation(nil, 0)
	metrics.ObserveCacheLookup(true)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}
