package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/analytics"
)

// FileBackend reads two JSON files, each holding a top-level array. A missing
// or unparseable file is an empty collection; an individual record that fails
// to decode is skipped.
type FileBackend struct {
	restaurantsPath string
	ordersPath      string
	logger          *slog.Logger
}

func NewFileBackend(restaurantsPath, ordersPath string) *FileBackend {
	return &FileBackend{
		restaurantsPath: restaurantsPath,
		ordersPath:      ordersPath,
		logger:          slog.Default().With("component", "file-backend"),
	}
}

func (b *FileBackend) Name() string { return "file" }

// Paths returns the restaurant and order file paths.
func (b *FileBackend) Paths() (restaurants, orders string) {
	return b.restaurantsPath, b.ordersPath
}

func (b *FileBackend) LoadRestaurants(ctx context.Context) ([]analytics.Restaurant, error) {
	return loadRecords[analytics.Restaurant](ctx, b.logger, CollectionRestaurants, b.restaurantsPath)
}

func (b *FileBackend) LoadOrders(ctx context.Context) ([]analytics.Order, error) {
	return loadRecords[analytics.Order](ctx, b.logger, CollectionOrders, b.ordersPath)
}

func loadRecords[T any](ctx context.Context, logger *slog.Logger, collection, path string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("data file not found, using empty collection", "collection", collection, "path", path)
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("data file is not a JSON array, using empty collection",
			"collection", collection,
			"path", path,
			"error", err,
		)
		return []T{}, nil
	}

	records := make([]T, 0, len(raw))
	skipped := 0
	for i, msg := range raw {
		var rec T
		if err := json.Unmarshal(msg, &rec); err != nil {
			skipped++
			logger.Debug("skipping undecodable record", "collection", collection, "index", i, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		logger.Warn("skipped undecodable records", "collection", collection, "path", path, "skipped", skipped)
	}
	return records, nil
}
