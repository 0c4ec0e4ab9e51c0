// Package handler exposes the search service over HTTP: query execution
// with filters and pagination, executor statistics, and cache
// administration.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/analytics"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/tokenizer"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/cache"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/executor"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/filter"
	apperrors "github.com/Marosko123/food-recipes-ir-pipeline/pkg/errors"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/logger"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/metrics"
)

// Searcher is the slice of the executor the handler needs.
type Searcher interface {
	Search(ctx context.Context, query string, metric executor.Metric, f *filter.Filters, offset, limit int) ([]executor.Result, error)
	TotalResults(ctx context.Context, query string, metric executor.Metric, f *filter.Filters) (int, error)
	Stats() executor.Stats
}

// SearchResponse is the /api/v1/search response body.
type SearchResponse struct {
	Query        string            `json:"query"`
	Metric       string            `json:"metric"`
	TotalResults int               `json:"total_results"`
	Offset       int               `json:"offset"`
	Limit        int               `json:"limit"`
	Count        int               `json:"count"`
	Results      []executor.Result `json:"results"`
	TookMs       int64             `json:"took_ms"`
}

type Handler struct {
	searcher      Searcher
	cache         *cache.QueryCache
	collector     *analytics.Collector
	defaultLimit  int
	maxResults    int
	defaultMetric executor.Metric
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// New builds the handler. queryCache, collector, and m may all be nil;
// caching, analytics, and metrics are then skipped.
func New(searcher Searcher, queryCache *cache.QueryCache, collector *analytics.Collector, defaultLimit, maxResults int, defaultMetric executor.Metric, m *metrics.Metrics) *Handler {
	return &Handler{
		searcher:      searcher,
		cache:         queryCache,
		collector:     collector,
		defaultLimit:  defaultLimit,
		maxResults:    maxResults,
		defaultMetric: defaultMetric,
		metrics:       m,
		logger:        logger.WithComponent("search-handler"),
	}
}

// Search handles GET /api/v1/search?q=...&metric=...&filter=...&offset=...&limit=...
// Either q or filter must be present; q alone ranks, filter alone takes the
// filter-only path, both together rank within the filtered set.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	params := r.URL.Query()
	query := params.Get("q")

	filters, err := filter.Parse(params.Get("filter"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	metric := h.defaultMetric
	if raw := params.Get("metric"); raw != "" {
		metric, err = executor.ParseMetric(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	offset := 0
	if raw := params.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			h.writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
	}

	limit := h.defaultLimit
	if raw := params.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if limit > h.maxResults {
			limit = h.maxResults
		}
	}

	terms := tokenizer.Tokenize(query)
	key := cache.Key(metric, terms, filters.CacheKey(), offset, limit)
	entry, cacheStatus, err := h.cache.GetOrCompute(ctx, key, func() (*cache.Entry, error) {
		results, err := h.searcher.Search(ctx, query, metric, filters, offset, limit)
		if err != nil {
			return nil, err
		}
		total, err := h.searcher.TotalResults(ctx, query, metric, filters)
		if err != nil {
			return nil, err
		}
		return &cache.Entry{Results: results, TotalResults: total}, nil
	})
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			log.Error("search failed", "query", query, "error", err)
		}
		h.writeError(w, status, err.Error())
		return
	}

	latency := time.Since(start)
	resp := SearchResponse{
		Query:        query,
		Metric:       string(metric),
		TotalResults: entry.TotalResults,
		Offset:       offset,
		Limit:        limit,
		Count:        len(entry.Results),
		Results:      entry.Results,
		TookMs:       latency.Milliseconds(),
	}

	filterOnly := len(terms) == 0 && !filters.IsZero()
	h.recordMetrics(metric, filterOnly, cacheStatus, latency, len(entry.Results))
	h.trackEvent(ctx, query, metric, terms, filterOnly, cacheStatus, entry, latency)

	log.Info("search completed",
		"query", query,
		"metric", string(metric),
		"total_results", entry.TotalResults,
		"returned", len(entry.Results),
		"cache_status", cacheStatus,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// Total handles GET /api/v1/search/total?q=...&metric=...&filter=... and
// returns the match count without materializing a result page.
func (h *Handler) Total(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := r.URL.Query()
	query := params.Get("q")

	filters, err := filter.Parse(params.Get("filter"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	metric := h.defaultMetric
	if raw := params.Get("metric"); raw != "" {
		metric, err = executor.ParseMetric(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	total, err := h.searcher.TotalResults(ctx, query, metric, filters)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(ctx).Error("total count failed", "query", query, "error", err)
		}
		h.writeError(w, status, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":         query,
		"metric":        string(metric),
		"total_results": total,
	})
}

// Stats handles GET /api/v1/stats with the executor's running counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.searcher.Stats())
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	stats := h.cache.Stats()
	total := stats.Hits + stats.Misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "deleted": deleted})
}

func (h *Handler) recordMetrics(metric executor.Metric, filterOnly bool, cacheStatus string, latency time.Duration, returned int) {
	if h.metrics == nil {
		return
	}
	label := string(metric)
	if filterOnly {
		label = "filter_only"
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(label).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(returned))
}

func (h *Handler) trackEvent(ctx context.Context, query string, metric executor.Metric, terms []string, filterOnly bool, cacheStatus string, entry *cache.Entry, latency time.Duration) {
	if h.collector == nil {
		return
	}
	eventType := analytics.EventSearch
	if filterOnly {
		eventType = analytics.EventFilterOnly
	}
	h.collector.Track(analytics.SearchEvent{
		Type:        eventType,
		Query:       query,
		Metric:      string(metric),
		Terms:       terms,
		TotalHits:   entry.TotalResults,
		Returned:    len(entry.Results),
		CacheStatus: cacheStatus,
		LatencyMs:   latency.Milliseconds(),
		Timestamp:   time.Now().UTC(),
		RequestID:   logger.RequestID(ctx),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
