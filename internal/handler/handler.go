// Package handler serves the analytics HTTP API: parameter parsing, response
// caching, query events and JSON encoding.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/events"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/respcache"
	apperr "github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/middleware"
)

// Analytics is implemented by *analytics.Service.
type Analytics interface {
	Restaurants(ctx context.Context, q analytics.RestaurantQuery) (analytics.RestaurantPage, error)
	Daily(ctx context.Context, restaurantID int64, start, end string, f analytics.DailyFilters) (analytics.DailyReport, error)
	TopRevenue(ctx context.Context, start, end string) ([]analytics.RevenueEntry, error)
}

// Invalidator drops cached dataset collections.
type Invalidator interface {
	Invalidate(collections ...string)
}

type Options struct {
	// Cache is nil when Redis is disabled.
	Cache           *respcache.Cache
	Tracker         events.Tracker
	Metrics         *metrics.Metrics
	Dataset         Invalidator
	DefaultPageSize int
}

type Handler struct {
	svc             Analytics
	cache           *respcache.Cache
	tracker         events.Tracker
	metrics         *metrics.Metrics
	dataset         Invalidator
	defaultPageSize int
	logger          *slog.Logger
}

func New(svc Analytics, opts Options) *Handler {
	if opts.Tracker == nil {
		opts.Tracker = events.Nop
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 10
	}
	return &Handler{
		svc:             svc,
		cache:           opts.Cache,
		tracker:         opts.Tracker,
		metrics:         opts.Metrics,
		dataset:         opts.Dataset,
		defaultPageSize: opts.DefaultPageSize,
		logger:          slog.Default().With("component", "analytics-handler"),
	}
}

// Restaurants serves GET /restaurants.
func (h *Handler) Restaurants(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := r.URL.Query()
	q := restaurantQuery(params, h.defaultPageSize)

	page, err := h.svc.Restaurants(r.Context(), q)
	if err != nil {
		h.fail(w, r, events.OpRestaurants, params, start, err)
		return
	}
	h.observe(r, events.OpRestaurants, params, start, http.StatusOK, len(page.Data), false)
	h.writeJSON(w, http.StatusOK, page)
}

// Daily serves GET /restaurants/{restaurantId}/daily.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := r.URL.Query()

	id, err := restaurantID(r)
	if err != nil {
		h.fail(w, r, events.OpDaily, params, start, err)
		return
	}
	filters, err := dailyFilters(params)
	if err != nil {
		h.fail(w, r, events.OpDaily, params, start, err)
		return
	}

	keyParams := cloneValues(params)
	keyParams.Set("restaurantId", r.PathValue("restaurantId"))
	results := -1
	body, hit, err := h.cached(r.Context(), events.OpDaily, keyParams, func() (any, error) {
		report, err := h.svc.Daily(r.Context(), id, params.Get("start"), params.Get("end"), filters)
		results = len(report.Daily)
		return report, err
	})
	if err != nil {
		h.fail(w, r, events.OpDaily, params, start, err)
		return
	}
	if results < 0 {
		results = resultCount(body, "daily")
	}
	h.observe(r, events.OpDaily, params, start, http.StatusOK, results, hit)
	h.writeBody(w, http.StatusOK, body)
}

// TopRevenue serves GET /top-restaurants. The response is a bare JSON array.
func (h *Handler) TopRevenue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := r.URL.Query()

	results := -1
	body, hit, err := h.cached(r.Context(), events.OpTopRevenue, params, func() (any, error) {
		ranking, err := h.svc.TopRevenue(r.Context(), params.Get("start"), params.Get("end"))
		results = len(ranking)
		return ranking, err
	})
	if err != nil {
		h.fail(w, r, events.OpTopRevenue, params, start, err)
		return
	}
	if results < 0 {
		results = resultCount(body, "")
	}
	h.observe(r, events.OpTopRevenue, params, start, http.StatusOK, results, hit)
	h.writeBody(w, http.StatusOK, body)
}

// CacheInvalidate serves POST /cache/invalidate: dataset collections are
// re-read on next use and cached responses are deleted.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.dataset != nil {
		h.dataset.Invalidate()
	}
	resp := map[string]any{"status": "invalidated"}
	if h.cache != nil {
		deleted, err := h.cache.Invalidate(r.Context())
		if err != nil {
			h.logger.Error("response cache invalidation failed", "error", err)
			h.writeError(w, http.StatusServiceUnavailable, "response cache invalidation failed")
			return
		}
		resp["responses_deleted"] = deleted
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// CacheStats serves GET /cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	h.writeJSON(w, http.StatusOK, map[string]int64{
		"hits":   hits,
		"misses": misses,
		"total":  hits + misses,
	})
}

// cached runs compute through the response cache when one is configured.
func (h *Handler) cached(ctx context.Context, op events.Operation, params url.Values, compute func() (any, error)) ([]byte, bool, error) {
	if h.cache != nil {
		return h.cache.GetOrCompute(ctx, string(op), params, compute)
	}
	v, err := compute()
	if err != nil {
		return nil, false, err
	}
	body, err := json.Marshal(v)
	return body, false, err
}

// resultCount counts the elements of the JSON array in body, or of the array
// under field when field is set. It is used when the body came from the
// response cache or a shared computation, so the compute closure never ran
// for this request.
func resultCount(body []byte, field string) int {
	if field != "" {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return 0
		}
		body = obj[field]
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return 0
	}
	return len(items)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op events.Operation, params url.Values, start time.Time, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %w", apperr.ErrTimeout, err)
	}
	status := apperr.HTTPStatusCode(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("query failed", "operation", op, "error", err)
	} else {
		log.Info("query rejected", "operation", op, "error", err)
	}
	h.observe(r, op, params, start, status, 0, false)
	h.writeError(w, status, apperr.Message(err))
}

func (h *Handler) observe(r *http.Request, op events.Operation, params url.Values, start time.Time, status, results int, hit bool) {
	elapsed := time.Since(start)
	if h.metrics != nil {
		outcome := "ok"
		switch {
		case status >= http.StatusInternalServerError:
			outcome = "error"
		case status >= http.StatusBadRequest:
			outcome = "invalid"
		}
		h.metrics.QueriesTotal.WithLabelValues(string(op), outcome).Inc()
		if status < http.StatusBadRequest {
			h.metrics.QueryDuration.WithLabelValues(string(op), cacheStatus(h.cache != nil, hit)).Observe(elapsed.Seconds())
			if h.cache != nil {
				if hit {
					h.metrics.CacheHitsTotal.Inc()
				} else {
					h.metrics.CacheMissesTotal.Inc()
				}
			}
		}
	}
	h.tracker.Track(events.QueryEvent{
		Operation: op,
		Params:    flatten(params),
		Results:   results,
		Status:    status,
		LatencyMs: elapsed.Milliseconds(),
		CacheHit:  hit,
		RequestID: middleware.GetRequestID(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

func cacheStatus(enabled, hit bool) string {
	switch {
	case !enabled:
		return "disabled"
	case hit:
		return "hit"
	default:
		return "miss"
	}
}

func flatten(v url.Values) map[string]string {
	if len(v) == 0 {
		return nil
	}
	out := make(map[string]string, len(v))
	for k := range v {
		out[k] = v.Get(k)
	}
	return out
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+1)
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
