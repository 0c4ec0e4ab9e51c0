// Package cache provides the Redis-backed query result cache for the
// searcher service. Concurrent identical queries collapse into a single
// computation via singleflight, so a cold cache under load computes each
// distinct query once.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/executor"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/logger"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/metrics"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/redis"
)

const keyPrefix = "search:"

// Entry is the cached payload for one fully-resolved search request.
type Entry struct {
	Results      []executor.Result `json:"results"`
	TotalResults int               `json:"total_results"`
}

// Stats reports cache effectiveness since process start.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// QueryCache caches search responses in Redis. A nil *QueryCache is valid
// and computes everything directly, so the searcher runs unchanged when
// Redis is unavailable.
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds a query cache over an established Redis client. m may be nil.
func New(client *redis.Client, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		client:  client,
		ttl:     ttl,
		metrics: m,
		logger:  logger.WithComponent("query-cache"),
	}
}

// Key derives a deterministic cache key from everything that affects the
// response. Query terms are sorted so term order in the raw query does not
// fragment the cache; the filter key is already canonical.
func Key(metric executor.Metric, queryTerms []string, filterKey string, offset, limit int) string {
	sorted := make([]string, len(queryTerms))
	copy(sorted, queryTerms)
	sort.Strings(sorted)
	raw := fmt.Sprintf("%s|%s|%s|%d|%d", metric, strings.Join(sorted, " "), filterKey, offset, limit)
	sum := sha256.Sum256([]byte(raw))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// GetOrCompute returns the cached entry for key, or runs compute and caches
// its result. The returned status is "hit", "miss", or "bypass" for the
// metrics label. Cache write failures are logged and otherwise ignored.
func (c *QueryCache) GetOrCompute(ctx context.Context, key string, compute func() (*Entry, error)) (*Entry, string, error) {
	if c == nil || c.client == nil {
		entry, err := compute()
		return entry, "bypass", err
	}

	type flightResult struct {
		entry  *Entry
		status string
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if entry := c.lookup(ctx, key); entry != nil {
			c.hits.Add(1)
			if c.metrics != nil {
				c.metrics.CacheHitsTotal.Inc()
			}
			return flightResult{entry: entry, status: "hit"}, nil
		}
		c.misses.Add(1)
		if c.metrics != nil {
			c.metrics.CacheMissesTotal.Inc()
		}
		entry, err := compute()
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, entry)
		return flightResult{entry: entry, status: "miss"}, nil
	})
	if err != nil {
		return nil, "miss", err
	}
	fr := v.(flightResult)
	return fr.entry, fr.status, nil
}

func (c *QueryCache) lookup(ctx context.Context, key string) *Entry {
	raw, err := c.client.Get(ctx, key)
	if err != nil {
		if !redis.IsNilError(err) {
			c.logger.Warn("cache lookup failed", "error", err)
		}
		return nil
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("cache entry corrupt, discarding", "key", key, "error", err)
		return nil
	}
	return &entry
}

func (c *QueryCache) store(ctx context.Context, key string, entry *Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("cache entry marshal failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "error", err)
	}
}

// Invalidate removes every cached search response, returning the number of
// keys deleted. Used after the index on disk is replaced.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	return c.client.FlushByPattern(ctx, keyPrefix+"*")
}

// Stats returns hit and miss counts since process start.
func (c *QueryCache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
