package datasource

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// failureRetryAfter bounds how long a failed load is remembered before the
// next request tries the backend again.
const failureRetryAfter = 30 * time.Second

// RefreshFunc observes every load attempt: records is the size of the value
// now being served, err the load error if any.
type RefreshFunc func(collection string, records int, err error)

// ChangeFunc is called after a successful load whose records differ from the
// value served before it.
type ChangeFunc func(collection string)

// cachedCollection is a read-through cache entry for one collection. The
// stored slice is replaced on refresh and never mutated, so readers may keep
// it after the next refresh.
type cachedCollection[T comparable] struct {
	name      string
	ttl       time.Duration
	load      func(ctx context.Context) ([]T, error)
	onRefresh RefreshFunc
	onChange  ChangeFunc
	now       func() time.Time
	logger    *slog.Logger

	group     singleflight.Group
	mu        sync.RWMutex
	value     []T
	loaded    bool
	loadedAt  time.Time
	expiresAt time.Time
	lastErr   error
}

func newCachedCollection[T comparable](name string, ttl time.Duration, load func(context.Context) ([]T, error), onRefresh RefreshFunc) *cachedCollection[T] {
	return &cachedCollection[T]{
		name:      name,
		ttl:       ttl,
		load:      load,
		onRefresh: onRefresh,
		now:       time.Now,
		logger:    slog.Default().With("component", "dataset-cache", "collection", name),
	}
}

// Get returns the cached value while it is fresh and otherwise reloads it.
// Concurrent misses share one load. A failed load serves the previous value,
// or an empty collection if there never was one.
func (c *cachedCollection[T]) Get(ctx context.Context) ([]T, error) {
	c.mu.RLock()
	if c.now().Before(c.expiresAt) {
		v := c.value
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	ch := c.group.DoChan(c.name, func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx)), nil
	})
	select {
	case res := <-ch:
		return res.Val.([]T), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *cachedCollection[T]) refresh(ctx context.Context) []T {
	start := c.now()
	fresh, err := c.load(ctx)

	c.mu.Lock()
	if err != nil {
		c.lastErr = err
		c.expiresAt = c.now().Add(min(c.ttl, failureRetryAfter))
		if !c.loaded {
			c.value = []T{}
		}
		c.logger.Error("collection load failed, serving previous value",
			"error", err,
			"records", len(c.value),
			"has_previous", c.loaded,
		)
		c.observe(len(c.value), err)
		v := c.value
		c.mu.Unlock()
		return v
	}
	if fresh == nil {
		fresh = []T{}
	}
	changed := !slices.Equal(c.value, fresh)
	c.value = fresh
	c.loaded = true
	c.lastErr = nil
	c.loadedAt = c.now()
	c.expiresAt = c.loadedAt.Add(c.ttl)
	c.logger.Debug("collection loaded", "records", len(fresh), "changed", changed, "took", c.now().Sub(start))
	c.observe(len(fresh), nil)
	c.mu.Unlock()

	if changed && c.onChange != nil {
		c.onChange(c.name)
	}
	return fresh
}

func (c *cachedCollection[T]) observe(records int, err error) {
	if c.onRefresh != nil {
		c.onRefresh(c.name, records, err)
	}
}

// Invalidate expires the entry. The current value stays available as the
// fallback if the next load fails.
func (c *cachedCollection[T]) Invalidate() {
	c.mu.Lock()
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// CollectionStatus is a point-in-time view of one cached collection.
type CollectionStatus struct {
	Name      string    `json:"name"`
	Records   int       `json:"records"`
	Loaded    bool      `json:"loaded"`
	LoadedAt  time.Time `json:"loaded_at,omitzero"`
	LastError string    `json:"last_error,omitempty"`
}

func (c *cachedCollection[T]) Status() CollectionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := CollectionStatus{
		Name:     c.name,
		Records:  len(c.value),
		Loaded:   c.loaded,
		LoadedAt: c.loadedAt,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}
