package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/analytics"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// TTL is how long a loaded collection is served before it is re-read.
	TTL       time.Duration
	OnRefresh RefreshFunc
	// OnChange runs after a reload that replaced a collection's content.
	OnChange ChangeFunc
}

// Source implements analytics.Source over a Backend with one cached entry
// per collection.
type Source struct {
	backend     Backend
	restaurants *cachedCollection[analytics.Restaurant]
	orders      *cachedCollection[analytics.Order]
	logger      *slog.Logger
}

var _ analytics.Source = (*Source)(nil)

func NewSource(backend Backend, opts Options) *Source {
	if opts.TTL <= 0 {
		opts.TTL = 300 * time.Second
	}
	s := &Source{
		backend:     backend,
		restaurants: newCachedCollection(CollectionRestaurants, opts.TTL, backend.LoadRestaurants, opts.OnRefresh),
		orders:      newCachedCollection(CollectionOrders, opts.TTL, backend.LoadOrders, opts.OnRefresh),
		logger:      slog.Default().With("component", "datasource", "backend", backend.Name()),
	}
	s.restaurants.onChange = opts.OnChange
	s.orders.onChange = opts.OnChange
	return s
}

func (s *Source) Restaurants(ctx context.Context) ([]analytics.Restaurant, error) {
	return s.restaurants.Get(ctx)
}

func (s *Source) Orders(ctx context.Context) ([]analytics.Order, error) {
	return s.orders.Get(ctx)
}

// Warm loads both collections concurrently.
func (s *Source) Warm(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.Restaurants(gctx)
		return err
	})
	g.Go(func() error {
		_, err := s.Orders(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("warming data source: %w", err)
	}
	st := s.Status()
	s.logger.Info("data source warmed",
		"restaurants", st[0].Records,
		"orders", st[1].Records,
	)
	return nil
}

// Invalidate expires the named collections, or both when none are named.
func (s *Source) Invalidate(collections ...string) {
	if len(collections) == 0 {
		collections = []string{CollectionRestaurants, CollectionOrders}
	}
	for _, name := range collections {
		switch name {
		case CollectionRestaurants:
			s.restaurants.Invalidate()
		case CollectionOrders:
			s.orders.Invalidate()
		}
	}
	s.logger.Info("collections invalidated", "collections", collections)
}

// Status reports restaurants then orders.
func (s *Source) Status() []CollectionStatus {
	return []CollectionStatus{s.restaurants.Status(), s.orders.Status()}
}

// Check is a health probe: it fails while a collection has never loaded.
func (s *Source) Check(context.Context) error {
	var errs []error
	for _, st := range s.Status() {
		if !st.Loaded {
			errs = append(errs, fmt.Errorf("%s not loaded: %s", st.Name, st.LastError))
		}
	}
	return errors.Join(errs...)
}
