package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterRefills(t *testing.T) {
	l := New(2, time.Minute)
	now := time.Date(2025, 6, 22, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("b") {
		t.Error("keys must be independent")
	}

	now = now.Add(30 * time.Second)
	if !l.Allow("a") {
		t.Error("one token should refill after half the window")
	}
	if l.Allow("a") {
		t.Error("only one token should have refilled")
	}
}

func TestLimiterEvictsIdle(t *testing.T) {
	l := New(5, time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }
	l.Allow("a")
	now = now.Add(3 * time.Minute)
	l.Allow("b")
	l.evictIdle()
	if l.size() != 1 {
		t.Errorf("buckets = %d, want 1", l.size())
	}
}

func TestMiddleware(t *testing.T) {
	l := New(1, time.Minute)
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(path, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("/restaurants", "10.0.0.1:5000"); rec.Code != http.StatusOK {
		t.Fatalf("first request = %d", rec.Code)
	}
	rec := do("/restaurants", "10.0.0.1:5001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] != "rate limit exceeded" {
		t.Errorf("body = %s", rec.Body)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	if rec := do("/health/ready", "10.0.0.1:5002"); rec.Code != http.StatusOK {
		t.Errorf("health check limited: %d", rec.Code)
	}
	if rec := do("/restaurants", "10.0.0.2:5000"); rec.Code != http.StatusOK {
		t.Errorf("other client limited: %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if got := ClientIP(req); got != "192.0.2.1" {
		t.Errorf("ClientIP = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.7" {
		t.Errorf("ClientIP with XFF = %q", got)
	}
}
