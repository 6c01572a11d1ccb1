// Package router builds the HTTP route table and middleware chain.
package router

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/handler"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/middleware"
	"github.com/rs/cors"
)

type Config struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// SlowRequest promotes span logs to warn level; zero disables.
	SlowRequest time.Duration
	// Limiter and Metrics are optional.
	Limiter *ratelimit.Limiter
	Metrics *metrics.Metrics
}

// New returns the server handler.
//
// Route table (each API route is also served under /api):
//
//	GET    /restaurants                        → restaurant directory
//	GET    /restaurants/{restaurantId}/daily   → daily metrics
//	GET    /top-restaurants                    → revenue ranking
//	GET    /cache/stats                        → response cache counters
//	POST   /cache/invalidate                   → drop cached data and responses
//	GET    /health/live, /health/ready         → probes
//
// Middleware chain (outermost first):
//
//	RequestID → Tracing → CORS → Metrics → RateLimit → Timeout → mux
func New(h *handler.Handler, checker *health.Checker, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	for _, prefix := range []string{"", "/api"} {
		mux.HandleFunc("GET "+prefix+"/restaurants", h.Restaurants)
		mux.HandleFunc("GET "+prefix+"/restaurants/{restaurantId}/daily", h.Daily)
		mux.HandleFunc("GET "+prefix+"/top-restaurants", h.TopRevenue)
		mux.HandleFunc("GET "+prefix+"/cache/stats", h.CacheStats)
		mux.HandleFunc("POST "+prefix+"/cache/invalidate", h.CacheInvalidate)
	}

	var chain http.Handler = mux
	chain = pkgmw.Timeout(cfg.RequestTimeout)(chain)
	if cfg.Limiter != nil {
		chain = ratelimit.Middleware(cfg.Limiter)(chain)
	}
	if cfg.Metrics != nil {
		chain = pkgmw.Metrics(cfg.Metrics)(chain)
	}
	chain = cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", pkgmw.RequestIDHeader},
		ExposedHeaders: []string{pkgmw.RequestIDHeader},
		MaxAge:         600,
	}).Handler(chain)
	chain = pkgmw.Tracing(cfg.SlowRequest)(chain)
	chain = pkgmw.RequestID(chain)

	return chain
}
