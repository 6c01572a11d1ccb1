package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/restaurants", nil))
	if seen == "" {
		t.Fatal("no request id in context")
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("header %q != context %q", rec.Header().Get(RequestIDHeader), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/restaurants", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc-123" {
		t.Errorf("request id = %q, want caller-supplied abc-123", seen)
	}
}

func TestMetricsRecordsNormalizedPath(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := Metrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/restaurants/17/daily", nil))

	c := m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/restaurants/{id}/daily", "418")
	if got := testutil.ToFloat64(c); got != 1 {
		t.Errorf("counter = %v, want 1", got)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/restaurants":           "/restaurants",
		"/restaurants/5/daily":   "/restaurants/{id}/daily",
		"/api/top-restaurants":   "/api/top-restaurants",
		"/restaurants/abc/daily": "/restaurants/abc/daily",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	rec := httptest.NewRecorder()
	Timeout(20*time.Millisecond)(slow).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}

	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rec = httptest.NewRecorder()
	Timeout(time.Second)(fast).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestTracingAttachesRootSpan(t *testing.T) {
	var root *tracing.Span
	h := RequestID(Tracing(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, child := tracing.StartChild(r.Context(), "compute")
		child.End()
		root = tracing.FromContext(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/top-restaurants", nil)
	req.Header.Set(RequestIDHeader, "trace-me")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if root == nil || root.TraceID != "trace-me" || root.Name != "GET /top-restaurants" {
		t.Fatalf("root span = %+v", root)
	}
	if len(root.Children()) != 1 {
		t.Errorf("children = %d, want 1", len(root.Children()))
	}
}
