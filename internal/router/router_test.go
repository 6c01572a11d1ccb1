package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/handler"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type emptySource struct{}

func (emptySource) Restaurants(context.Context) ([]analytics.Restaurant, error) { return nil, nil }
func (emptySource) Orders(context.Context) ([]analytics.Order, error) { return nil, nil }

func newTestRouter(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	h := handler.New(analytics.NewService(emptySource{}, analytics.Options{}), handler.Options{})
	return New(h, health.NewChecker(), cfg)
}

func TestRoutes(t *testing.T) {
	r := newTestRouter(t, Config{RequestTimeout: time.Second})

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/restaurants", http.StatusOK},
		{http.MethodGet, "/api/restaurants", http.StatusOK},
		{http.MethodGet, "/restaurants/1/daily?start=2025-06-22&end=2025-06-23", http.StatusOK},
		{http.MethodGet, "/api/restaurants/1/daily?start=2025-06-22&end=2025-06-23", http.StatusOK},
		{http.MethodGet, "/top-restaurants?start=2025-06-22&end=2025-06-23", http.StatusOK},
		{http.MethodGet, "/api/top-restaurants?start=2025-06-22&end=2025-06-23", http.StatusOK},
		{http.MethodPost, "/api/cache/invalidate", http.StatusOK},
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodPost, "/restaurants", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
		if rec.Header().Get(pkgmw.RequestIDHeader) == "" {
			t.Errorf("%s %s: missing request id header", tt.method, tt.path)
		}
	}
}

func TestEmptyDatasetShapes(t *testing.T) {
	r := newTestRouter(t, Config{})
	tests := []struct{ path, want string }{
		{"/restaurants", `{"data":[],"total":0}`},
		{"/top-restaurants?start=2025-06-22&end=2025-06-22", `[]`},
		{"/restaurants/9/daily?start=2025-06-22&end=2025-06-22",
			`{"daily":[{"date":"2025-06-22","orders":0,"revenue":0,"aov":0,"peak_hour":null}]}`},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if got := strings.TrimSpace(rec.Body.String()); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t, Config{AllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/restaurants", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/restaurants", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestRateLimitAndMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := newTestRouter(t, Config{Limiter: ratelimit.New(1, time.Minute), Metrics: m})

	codes := make([]int, 0, 3)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/restaurants", nil))
		codes = append(codes, rec.Code)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	codes = append(codes, rec.Code)

	if codes[0] != 200 || codes[1] != 429 || codes[2] != 200 {
		t.Errorf("codes = %v, want [200 429 200]", codes)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/restaurants", "429")); got != 1 {
		t.Errorf("429 counter = %v, want 1", got)
	}
}
