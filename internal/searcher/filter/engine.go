package filter

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/recipe"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/logger"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/metrics"
)

// Scan limits for the filter-only path. The generic scan is capped so a
// filter matching most of the corpus cannot degenerate into a full corpus
// read per query; the time-only scan streams the whole corpus because it
// inspects three numeric fields per record.
const (
	DefaultMaxScanDocs      = 2000
	DefaultMaxFilterResults = 1000

	scanBatchSize     = 500
	timeScanBatchSize = 100
)

// Engine evaluates filters against full records, loading them from the
// corpus store on demand. Loaded records and filter-only result sets are
// both cached for the lifetime of the engine; the index is immutable while
// a searcher process runs, so neither cache needs invalidation.
type Engine struct {
	store  recipe.Store
	docIDs []string

	maxScanDocs      int
	maxFilterResults int

	resultMu    sync.RWMutex
	resultCache map[string][]string

	recordMu sync.RWMutex
	records  map[string]*recipe.Record

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEngine builds a filter engine over the index's document id list.
// Non-positive caps fall back to the defaults; m may be nil.
func NewEngine(store recipe.Store, docIDs []string, maxScanDocs, maxFilterResults int, m *metrics.Metrics) *Engine {
	if maxScanDocs <= 0 {
		maxScanDocs = DefaultMaxScanDocs
	}
	if maxFilterResults <= 0 {
		maxFilterResults = DefaultMaxFilterResults
	}
	return &Engine{
		store:            store,
		docIDs:           docIDs,
		maxScanDocs:      maxScanDocs,
		maxFilterResults: maxFilterResults,
		resultCache:      make(map[string][]string),
		records:          make(map[string]*recipe.Record),
		metrics:          m,
		logger:           logger.WithComponent("filter-engine"),
	}
}

// Passes reports whether the document identified by docID satisfies f. A
// document whose record cannot be loaded fails every non-empty filter.
func (e *Engine) Passes(ctx context.Context, docID string, f *Filters) bool {
	if f.IsZero() {
		return true
	}
	rec := e.record(ctx, docID)
	if rec == nil {
		return false
	}
	return f.Match(rec)
}

// FilterOnly returns the ids of documents matching f, in ascending id order,
// for queries that carry filters but no query terms. Results are memoized by
// the filter set's canonical key.
//
// Time-only filter sets stream the entire corpus. Any other filter set scans
// at most maxScanDocs documents and returns at most maxFilterResults ids, so
// broad filters return a representative capped slice rather than everything.
func (e *Engine) FilterOnly(ctx context.Context, f *Filters) []string {
	if f.IsZero() {
		return nil
	}
	key := f.CacheKey()

	e.resultMu.RLock()
	cached, ok := e.resultCache[key]
	e.resultMu.RUnlock()
	if ok {
		if e.metrics != nil {
			e.metrics.FilterCacheHitsTotal.Inc()
		}
		return cached
	}

	var matched []string
	if f.TimeOnly() {
		matched = e.timeOnlyScan(ctx, f)
	} else {
		matched = e.cappedScan(ctx, f)
	}

	// A cancelled or timed-out context leaves the scan incomplete; memoizing
	// the truncated set would serve it to every later query with this filter
	// signature. Return it uncached so a healthy retry rescans.
	if ctx.Err() != nil {
		e.logger.Warn("filter scan interrupted, result not cached",
			"filter", key, "matched", len(matched), "reason", ctx.Err())
		return matched
	}

	e.resultMu.Lock()
	e.resultCache[key] = matched
	e.resultMu.Unlock()
	return matched
}

// timeOnlyScan walks every document in small batches, checking only the
// time bounds.
func (e *Engine) timeOnlyScan(ctx context.Context, f *Filters) []string {
	var matched []string
	for start := 0; start < len(e.docIDs); start += timeScanBatchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+timeScanBatchSize, len(e.docIDs))
		batch := e.docIDs[start:end]
		recs := e.loadBatch(ctx, batch)
		for _, id := range batch {
			if rec, ok := recs[id]; ok && f.matchTimes(rec) {
				matched = append(matched, id)
			}
		}
	}
	return matched
}

// cappedScan walks the first maxScanDocs documents in batches, stopping
// early once maxFilterResults matches accumulate.
func (e *Engine) cappedScan(ctx context.Context, f *Filters) []string {
	limit := min(e.maxScanDocs, len(e.docIDs))
	var matched []string
	for start := 0; start < limit; start += scanBatchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+scanBatchSize, limit)
		batch := e.docIDs[start:end]
		recs := e.loadBatch(ctx, batch)
		for _, id := range batch {
			rec, ok := recs[id]
			if !ok || !f.Match(rec) {
				continue
			}
			matched = append(matched, id)
			if len(matched) >= e.maxFilterResults {
				return matched
			}
		}
	}
	return matched
}

// record loads a single record through the record cache.
func (e *Engine) record(ctx context.Context, docID string) *recipe.Record {
	e.recordMu.RLock()
	rec, ok := e.records[docID]
	e.recordMu.RUnlock()
	if ok {
		return rec
	}
	recs := e.loadBatch(ctx, []string{docID})
	return recs[docID]
}

// loadBatch returns records for ids, consulting the record cache first and
// fetching only the missing ones from the store. Records absent from the
// store are simply missing from the returned map.
func (e *Engine) loadBatch(ctx context.Context, ids []string) map[string]*recipe.Record {
	out := make(map[string]*recipe.Record, len(ids))
	var missing []string

	e.recordMu.RLock()
	for _, id := range ids {
		if rec, ok := e.records[id]; ok {
			out[id] = rec
		} else {
			missing = append(missing, id)
		}
	}
	e.recordMu.RUnlock()

	if len(missing) == 0 {
		return out
	}

	loaded, err := e.store.LoadBatch(ctx, missing)
	if err != nil {
		e.logger.Warn("record batch load failed", "count", len(missing), "error", err)
		return out
	}
	if e.metrics != nil {
		e.metrics.RecordsLoadedTotal.Add(float64(len(loaded)))
	}

	e.recordMu.Lock()
	for id, rec := range loaded {
		e.records[id] = rec
		out[id] = rec
	}
	e.recordMu.Unlock()
	return out
}
