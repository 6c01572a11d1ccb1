// Package datasource supplies the restaurant and order collections to the
// analytics service. A Backend reads the raw records (JSON files or
// PostgreSQL); Source puts a read-through TTL cache in front of it.
package datasource

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/analytics"
)

// Collection names, also used as cache keys and metric labels.
const (
	CollectionRestaurants = "restaurants"
	CollectionOrders      = "orders"
)

// Backend loads full collections. Implementations return an empty slice,
// not an error, when the data simply does not exist.
type Backend interface {
	Name() string
	LoadRestaurants(ctx context.Context) ([]analytics.Restaurant, error)
	LoadOrders(ctx context.Context) ([]analytics.Order, error)
}
