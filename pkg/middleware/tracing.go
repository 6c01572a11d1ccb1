package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/tracing"
)

// Tracing opens a root span per request, keyed by the request ID, and logs
// the finished tree at debug level, or at warn level when the request took
// longer than slow. A zero slow threshold never warns.
func Tracing(slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.Start(r.Context(), r.Method+" "+r.URL.Path, GetRequestID(r.Context()))
			next.ServeHTTP(w, r.WithContext(ctx))
			span.End()

			level := slog.LevelDebug
			if slow > 0 && span.Duration > slow {
				level = slog.LevelWarn
			}
			span.Log(ctx, logger.FromContext(ctx), level)
		})
	}
}
