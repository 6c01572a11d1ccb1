package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/resilience"
)

const (
	selectRestaurants = `SELECT id, COALESCE(name, ''), COALESCE(location, ''), COALESCE(cuisine, '')
		FROM restaurants ORDER BY id`
	selectOrders = `SELECT restaurant_id, order_time, order_amount
		FROM orders ORDER BY id`
)

// RowQuerier is satisfied by *postgres.Client.
type RowQuerier interface {
	QueryRows(ctx context.Context, query string, scan func(*sql.Rows) error, args ...any) error
}

// PostgresBackend reads the restaurants and orders tables. Each load is
// retried with backoff before the cache falls back to its last good value.
type PostgresBackend struct {
	db    RowQuerier
	retry resilience.RetryConfig
}

func NewPostgresBackend(db RowQuerier) *PostgresBackend {
	return &PostgresBackend{
		db: db,
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
	}
}

func (b *PostgresBackend) Name() string { return "postgres" }

func (b *PostgresBackend) LoadRestaurants(ctx context.Context) ([]analytics.Restaurant, error) {
	var out []analytics.Restaurant
	err := resilience.Retry(ctx, "load-restaurants", b.retry, func() error {
		out = make([]analytics.Restaurant, 0)
		return b.db.QueryRows(ctx, selectRestaurants, func(rows *sql.Rows) error {
			var r analytics.Restaurant
			if err := rows.Scan(&r.ID, &r.Name, &r.Location, &r.Cuisine); err != nil {
				return resilience.Permanent(fmt.Errorf("scanning restaurant: %w", err))
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading restaurants from postgres: %w", err)
	}
	return out, nil
}

func (b *PostgresBackend) LoadOrders(ctx context.Context) ([]analytics.Order, error) {
	var out []analytics.Order
	err := resilience.Retry(ctx, "load-orders", b.retry, func() error {
		out = make([]analytics.Order, 0)
		return b.db.QueryRows(ctx, selectOrders, func(rows *sql.Rows) error {
			var (
				o  analytics.Order
				at time.Time
			)
			if err := rows.Scan(&o.RestaurantID, &at, &o.OrderAmount); err != nil {
				return resilience.Permanent(fmt.Errorf("scanning order: %w", err))
			}
			o.OrderTime = analytics.NewTimestamp(at)
			out = append(out, o)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading orders from postgres: %w", err)
	}
	return out, nil
}
