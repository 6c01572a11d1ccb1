package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher invalidates a cached collection when its backing file changes, so
// edits show up before the TTL runs out. Directories are watched rather than
// files, which also catches editors that replace the file on save.
type Watcher struct {
	source   *Source
	files    map[string]string // cleaned path -> collection
	debounce time.Duration
	onChange func(collections []string)
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

// NewWatcher watches the restaurant and order files of a file backend.
// onChange, if set, runs after each debounced invalidation.
func NewWatcher(source *Source, restaurantsPath, ordersPath string, onChange func(collections []string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &Watcher{
		source:   source,
		files:    make(map[string]string, 2),
		debounce: defaultDebounce,
		onChange: onChange,
		watcher:  fw,
		logger:   slog.Default().With("component", "data-watcher"),
		pending:  make(map[string]struct{}),
	}

	dirs := make(map[string]struct{})
	for path, collection := range map[string]string{restaurantsPath: CollectionRestaurants, ordersPath: CollectionOrders} {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = filepath.Clean(path)
		}
		w.files[abs] = collection
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run processes file events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	w.logger.Info("watching data files", "files", len(w.files))
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	path, err := filepath.Abs(event.Name)
	if err != nil {
		path = filepath.Clean(event.Name)
	}
	collection, ok := w.files[path]
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[collection] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	collections := make([]string, 0, len(w.pending))
	for _, name := range []string{CollectionRestaurants, CollectionOrders} {
		if _, ok := w.pending[name]; ok {
			collections = append(collections, name)
		}
	}
	clear(w.pending)
	w.mu.Unlock()

	if len(collections) == 0 {
		return
	}
	w.logger.Info("data files changed", "collections", collections)
	w.source.Invalidate(collections...)
	if w.onChange != nil {
		w.onChange(collections)
	}
}
