package metrics

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Page is an extra endpoint mounted on the metrics server and linked from
// its index.
type Page struct {
	Path    string
	Title   string
	Handler http.Handler
}

// NewServeMux serves /metrics, the given pages and an index linking them.
func NewServeMux(pages ...Page) *http.ServeMux {
	pages = append([]Page{{Path: "/metrics", Title: "Prometheus metrics", Handler: Handler()}}, pages...)

	var index strings.Builder
	index.WriteString(`<html><body><h1>Restaurant Analytics</h1><ul>`)
	mux := http.NewServeMux()
	for _, p := range pages {
		mux.Handle("GET "+p.Path, p.Handler)
		fmt.Fprintf(&index, `<li><a href="%s">%s</a> %s</li>`,
			html.EscapeString(p.Path), html.EscapeString(p.Path), html.EscapeString(p.Title))
	}
	index.WriteString(`</ul></body></html>`)
	body := index.String()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	})
	return mux
}

// StartServer serves NewServeMux(pages...) on port in the background and
// returns its shutdown function.
func StartServer(port int, pages ...Page) (shutdown func(context.Context) error) {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewServeMux(pages...),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr, "pages", len(pages)+1)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
