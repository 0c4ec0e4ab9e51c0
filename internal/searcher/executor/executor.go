// Package executor ties query tokenization, ranking, filtering, snippets,
// and pagination into the single search operation the HTTP handler and the
// CLI both call.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync/atomic"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/index"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/tokenizer"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/filter"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/ranker"
	apperrors "github.com/Marosko123/food-recipes-ir-pipeline/pkg/errors"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/logger"
)

// Metric selects the ranking function.
type Metric string

const (
	MetricTFIDF Metric = "tfidf"
	MetricBM25  Metric = "bm25"
)

// ParseMetric validates a metric name from the request surface.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricTFIDF:
		return MetricTFIDF, nil
	case MetricBM25:
		return MetricBM25, nil
	default:
		return "", apperrors.Newf(apperrors.ErrInvalidMetric, 400, "unknown metric %q, want tfidf or bm25", s)
	}
}

// Result is one search hit. URL and Title come from the document metadata
// stored alongside the index.
type Result struct {
	DocID   string  `json:"doc_id"`
	Score   float64 `json:"score"`
	Title   string  `json:"title,omitempty"`
	URL     string  `json:"url,omitempty"`
	Snippet string  `json:"snippet"`
}

// Stats summarises ranked-query traffic since the executor started.
// Filter-only queries are not counted.
type Stats struct {
	QueriesProcessed   int64   `json:"queries_processed"`
	TotalResults       int64   `json:"total_results"`
	AvgResultsPerQuery float64 `json:"avg_results_per_query"`
}

// Executor runs searches against one immutable loaded index.
type Executor struct {
	idx     *index.Index
	filters *filter.Engine
	logger  *slog.Logger

	queries      atomic.Int64
	totalResults atomic.Int64
}

// New builds an executor over idx with the given filter engine.
func New(idx *index.Index, filters *filter.Engine) *Executor {
	return &Executor{
		idx:     idx,
		filters: filters,
		logger:  logger.WithComponent("executor"),
	}
}

// Index exposes the loaded index for health checks and the stats surface.
func (e *Executor) Index() *index.Index {
	return e.idx
}

// Search executes one query. A query with terms is ranked by metric, with
// filters applied during scoring; a query with filters but no usable terms
// takes the filter-only path, returning matches with a fixed score of 1.0 in
// document id order. An empty query with no filters returns no results.
//
// Pagination happens last, over the full ordered result list, so fetching
// adjacent pages never skips or repeats a document.
func (e *Executor) Search(ctx context.Context, query string, metric Metric, f *filter.Filters, offset, limit int) ([]Result, error) {
	terms := tokenizer.Tokenize(query)
	if len(terms) == 0 {
		if f.IsZero() {
			return []Result{}, nil
		}
		return e.filterOnly(ctx, f, offset, limit), nil
	}

	scored, err := e.rank(ctx, terms, metric, f)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(scored))
	for _, s := range scored {
		results = append(results, e.result(s.DocID, s.Score, terms))
	}

	e.queries.Add(1)
	e.totalResults.Add(int64(len(results)))

	return paginate(results, offset, limit), nil
}

func (e *Executor) rank(ctx context.Context, terms []string, metric Metric, f *filter.Filters) ([]ranker.ScoredDoc, error) {
	var accept ranker.AcceptFunc
	if !f.IsZero() {
		accept = func(docID string) bool {
			return e.filters.Passes(ctx, docID, f)
		}
	}
	switch metric {
	case MetricTFIDF:
		return ranker.TFIDF(e.idx, terms, accept), nil
	case MetricBM25:
		return ranker.BM25(e.idx, terms, accept), nil
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidMetric, 400, "unknown metric %q", string(metric))
	}
}

func (e *Executor) filterOnly(ctx context.Context, f *filter.Filters, offset, limit int) []Result {
	ids := e.filters.FilterOnly(ctx, f)
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		results = append(results, e.result(id, 1.0, nil))
	}
	return paginate(results, offset, limit)
}

// TotalResults counts all matches for a query before pagination. For ranked
// queries this is the number of documents that would be scored and pass the
// filters; for filter-only queries it is the size of the capped match set,
// so it always agrees with what paging through every page would return.
func (e *Executor) TotalResults(ctx context.Context, query string, metric Metric, f *filter.Filters) (int, error) {
	terms := tokenizer.Tokenize(query)
	if len(terms) == 0 {
		if f.IsZero() {
			return 0, nil
		}
		return len(e.filters.FilterOnly(ctx, f)), nil
	}
	scored, err := e.rank(ctx, terms, metric, f)
	if err != nil {
		return 0, err
	}
	return len(scored), nil
}

// Stats returns the running counters. The average is derived, not stored,
// so readers always see a consistent triple up to counter ordering.
func (e *Executor) Stats() Stats {
	queries := e.queries.Load()
	results := e.totalResults.Load()
	s := Stats{QueriesProcessed: queries, TotalResults: results}
	if queries > 0 {
		s.AvgResultsPerQuery = float64(results) / float64(queries)
	}
	return s
}

// result builds one Result, highlighting query terms in the title snippet.
func (e *Executor) result(docID string, score float64, terms []string) Result {
	r := Result{DocID: docID, Score: score}
	meta, ok := e.idx.Doc(docID)
	if !ok || meta.Title == "" {
		r.Snippet = fmt.Sprintf("Document %s", docID)
		return r
	}
	r.Title = meta.Title
	r.URL = meta.URL
	r.Snippet = highlight(meta.Title, terms)
	return r
}

// highlight wraps whole-word, case-insensitive occurrences of each term in
// ** markers. The replacement is the lowercased term, matching how terms
// were indexed.
func highlight(title string, terms []string) string {
	snippet := title
	for _, term := range terms {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		if err != nil {
			continue
		}
		snippet = re.ReplaceAllString(snippet, "**"+term+"**")
	}
	return snippet
}

// paginate slices results by offset and limit, clamping out-of-range values
// to an empty page. limit <= 0 means no limit.
func paginate(results []Result, offset, limit int) []Result {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []Result{}
	}
	page := results[offset:]
	if limit > 0 && limit < len(page) {
		page = page[:limit]
	}
	return page
}
