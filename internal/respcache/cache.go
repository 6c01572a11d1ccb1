// Package respcache caches encoded analytics responses in Redis, keyed by a
// hash of the operation and its normalized query parameters.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "ra:resp:"

// Store is satisfied by *pkgredis.Client.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Cache stores JSON bodies with a fixed TTL. Redis failures degrade to
// computing every response; a circuit breaker stops calling Redis while it is
// down.
type Cache struct {
	store   Store
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, ttl time.Duration, breaker *resilience.CircuitBreaker) *Cache {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{})
	}
	return &Cache{
		store:   store,
		ttl:     ttl,
		breaker: breaker,
		logger:  slog.Default().With("component", "response-cache"),
	}
}

// GetOrCompute returns the cached body for (op, params) or encodes the result
// of compute and stores it. Concurrent misses for the same key compute once.
// Errors from compute are returned and never cached.
func (c *Cache) GetOrCompute(ctx context.Context, op string, params url.Values, compute func() (any, error)) ([]byte, bool, error) {
	key := BuildKey(op, params)
	if body, ok := c.get(ctx, key); ok {
		return body, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		if body, ok := c.get(ctx, key); ok {
			return body, nil
		}
		result, err := compute()
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encoding %s response: %w", op, err)
		}
		c.set(ctx, key, body)
		return body, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]byte), false, nil
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	var body []byte
	err := c.breaker.Execute(func() error {
		var err error
		body, err = c.store.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	if body == nil {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return body, true
}

func (c *Cache) set(ctx context.Context, key string, body []byte) {
	err := c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, body, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// Invalidate deletes every cached response.
func (c *Cache) Invalidate(ctx context.Context) (int64, error) {
	var deleted int64
	err := c.breaker.Execute(func() error {
		var err error
		deleted, err = c.store.FlushByPattern(ctx, keyPrefix+"*")
		return err
	})
	if err != nil {
		return deleted, fmt.Errorf("invalidating response cache: %w", err)
	}
	c.logger.Info("response cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BuildKey hashes op with params in canonical form: keys sorted, values
// trimmed, empty values dropped.
func BuildKey(op string, params url.Values) string {
	canonical := make(url.Values, len(params))
	for k, vs := range params {
		for _, v := range vs {
			if v = strings.TrimSpace(v); v != "" {
				canonical.Add(k, v)
			}
		}
	}
	hash := sha256.Sum256([]byte(op + "?" + canonical.Encode()))
	return fmt.Sprintf("%s%s:%x", keyPrefix, op, hash[:16])
}
