package analytics

import (
	"context"
	"fmt"
	"log/slog"

	apperr "github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/tracing"
)

// DefaultTopN is the length of the revenue ranking.
const DefaultTopN = 3

// Source supplies immutable snapshots of the two collections. Callers must
// not modify the returned slices.
type Source interface {
	Restaurants(ctx context.Context) ([]Restaurant, error)
	Orders(ctx context.Context) ([]Order, error)
}

// Options configures a Service.
type Options struct {
	Boundary Boundary
	TopN     int
	// MaxRangeDays caps the span of requested date ranges; 0 selects
	// DefaultMaxRangeDays.
	MaxRangeDays int
}

// Service validates request input, reads a snapshot from the Source and runs
// the report computations on it.
type Service struct {
	source   Source
	boundary Boundary
	topN     int
	maxDays  int
	logger   *slog.Logger
}

func NewService(source Source, opts Options) *Service {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = DefaultMaxRangeDays
	}
	return &Service{
		source:   source,
		boundary: opts.Boundary,
		topN:     opts.TopN,
		maxDays:  opts.MaxRangeDays,
		logger:   slog.Default().With("component", "analytics-service"),
	}
}

// Restaurants answers a directory query.
func (s *Service) Restaurants(ctx context.Context, q RestaurantQuery) (RestaurantPage, error) {
	restaurants, err := s.source.Restaurants(ctx)
	if err != nil {
		return RestaurantPage{}, unavailable("restaurants", err)
	}
	_, span := tracing.StartChild(ctx, "compute.restaurants")
	page := QueryRestaurants(restaurants, q)
	span.SetAttr("scanned", len(restaurants))
	span.End()
	s.logger.Debug("restaurant query",
		"q", q.Q,
		"location", q.Location,
		"cuisine", q.Cuisine,
		"total", page.Total,
		"returned", len(page.Data),
	)
	return page, nil
}

// Daily computes daily metrics for one restaurant. Dates are validated before
// the source is read.
func (s *Service) Daily(ctx context.Context, restaurantID int64, start, end string, f DailyFilters) (DailyReport, error) {
	rng, err := NewBoundedDateRange(start, end, s.boundary, s.maxDays)
	if err != nil {
		return DailyReport{}, err
	}
	orders, err := s.orders(ctx)
	if err != nil {
		return DailyReport{}, err
	}
	_, span := tracing.StartChild(ctx, "compute.daily")
	defer span.End()
	span.SetAttr("scanned", len(orders))
	return DailyMetrics(orders, restaurantID, rng, f), nil
}

// TopRevenue ranks restaurants by revenue over the date range.
func (s *Service) TopRevenue(ctx context.Context, start, end string) ([]RevenueEntry, error) {
	rng, err := NewBoundedDateRange(start, end, s.boundary, s.maxDays)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders(ctx)
	if err != nil {
		return nil, err
	}
	_, span := tracing.StartChild(ctx, "compute.top_revenue")
	defer span.End()
	span.SetAttr("scanned", len(orders))
	return TopRevenue(orders, rng, s.topN), nil
}

func (s *Service) orders(ctx context.Context) ([]Order, error) {
	_, span := tracing.StartChild(ctx, "source.orders")
	defer span.End()
	orders, err := s.source.Orders(ctx)
	if err != nil {
		return nil, unavailable("orders", err)
	}
	return orders, nil
}

func unavailable(collection string, err error) error {
	return fmt.Errorf("%w: reading %s: %w", apperr.ErrSourceUnavailable, collection, err)
}
