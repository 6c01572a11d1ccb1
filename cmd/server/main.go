// Command server runs the restaurant order analytics HTTP API.
//
// It loads restaurants and orders from JSON files or PostgreSQL behind a
// read-through cache, serves the directory, daily-metrics and revenue-ranking
// endpoints, and optionally caches responses in Redis and publishes query
// events to Kafka.
//
// Usage:
//
//	go run ./cmd/server [-config configs/development.yaml]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/datasource"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/events"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/handler"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/respcache"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/router"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus"
)

const warmTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("analytics server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting analytics server",
		"port", cfg.Server.Port,
		"data_driver", cfg.Data.Driver,
		"end_boundary", cfg.Analytics.EndBoundary,
	)

	m := metrics.New(prometheus.DefaultRegisterer)

	checker := health.NewChecker()

	// Data source.
	backend, closeBackend, err := openBackend(ctx, cfg, checker)
	if err != nil {
		return err
	}
	defer closeBackend()

	// Set once Redis is up; reloads before that have nothing to flush.
	var respCache atomic.Pointer[respcache.Cache]
	flushResponses := func(reason string) {
		rc := respCache.Load()
		if rc == nil {
			return
		}
		if _, err := rc.Invalidate(context.Background()); err != nil {
			slog.Warn("response cache flush failed", "reason", reason, "error", err)
		}
	}
	source := datasource.NewSource(backend, datasource.Options{
		TTL: cfg.Data.RefreshInterval,
		OnRefresh: func(collection string, records int, err error) {
			status := "ok"
			if err != nil {
				status = "error"
			}
			m.DatasetRefreshesTotal.WithLabelValues(collection, status).Inc()
			m.DatasetRecords.WithLabelValues(collection).Set(float64(records))
		},
		OnChange: func(collection string) {
			flushResponses(collection + " reloaded")
		},
	})
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, metrics.Page{
			Path:  "/dataset",
			Title: "cached collection status",
			Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(source.Status())
			}),
		})
		defer shutdownMetrics(context.Background())
	}
	if err := resilience.WithTimeout(ctx, warmTimeout, "warm-data-source", source.Warm); err != nil {
		slog.Warn("initial data load incomplete, serving what is available", "error", err)
	}
	checker.Register("dataset", health.PingCheck(health.StatusDegraded, source.Check))

	boundary, err := analytics.ParseBoundary(cfg.Analytics.EndBoundary)
	if err != nil {
		return err
	}
	svc := analytics.NewService(source, analytics.Options{
		Boundary:     boundary,
		TopN:         cfg.Analytics.TopN,
		MaxRangeDays: cfg.Analytics.MaxRangeDays,
	})

	// Optional Redis response cache.
	if cfg.Redis.Enabled {
		rc, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, response caching disabled", "error", err)
		} else {
			defer rc.Close()
			breaker := resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
				OnStateChange: func(name string, _, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			respCache.Store(respcache.New(rc, cfg.Redis.CacheTTL, breaker))
			checker.Register("redis", health.PingCheck(health.StatusDegraded, rc.Ping))
			slog.Info("response cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	// Optional Kafka query events.
	var tracker events.Tracker = events.Nop
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
		defer producer.Close()
		collector := events.NewCollector(producer, events.Options{
			BufferSize: cfg.Kafka.BufferSize,
			OnDrop:     m.EventsDroppedTotal.Inc,
		})
		collector.Start(ctx)
		defer collector.Close()
		tracker = collector
	}

	if fb, ok := backend.(*datasource.FileBackend); ok && cfg.Data.Watch {
		rp, op := fb.Paths()
		watcher, err := datasource.NewWatcher(source, rp, op, func([]string) {
			flushResponses("data files changed")
		})
		if err != nil {
			slog.Warn("data file watching disabled", "error", err)
		} else {
			go watcher.Run(ctx)
		}
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.RequestsPerMinute, time.Minute)
		go limiter.Run(ctx, 5*time.Minute)
	}

	h := handler.New(svc, handler.Options{
		Cache:           respCache.Load(),
		Tracker:         tracker,
		Metrics:         m,
		Dataset:         source,
		DefaultPageSize: cfg.Analytics.DefaultPageSize,
	})
	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router.New(h, checker, router.Config{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
			SlowRequest:    cfg.Server.SlowRequestThreshold,
			Limiter:        limiter,
			Metrics:        m,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("analytics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// openBackend selects the data backend for cfg.Data.Driver.
func openBackend(ctx context.Context, cfg *config.Config, checker *health.Checker) (datasource.Backend, func(), error) {
	switch cfg.Data.Driver {
	case config.DriverPostgres:
		pg, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		checker.Register("postgres", health.PingCheck(health.StatusDown, pg.Ping))
		return datasource.NewPostgresBackend(pg), func() { pg.Close() }, nil
	default:
		return datasource.NewFileBackend(cfg.Data.RestaurantsPath, cfg.Data.OrdersPath), func() {}, nil
	}
}
