// Command search runs a single query against an index on disk and prints
// the ranked results, without starting the HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/store"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/recipe"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/executor"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/filter"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/config"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/logger"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	indexDir := flag.String("index", "", "index directory (overrides config)")
	corpusPath := flag.String("corpus", "", "normalized corpus JSONL file (overrides config)")
	query := flag.String("q", "", "query string")
	metricName := flag.String("metric", "", "ranking metric: tfidf or bm25")
	filterJSON := flag.String("filter", "", "filter JSON object")
	k := flag.Int("k", 10, "number of results")
	offset := flag.Int("offset", 0, "result offset for pagination")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *indexDir != "" {
		cfg.Indexer.IndexDir = *indexDir
	}
	if *corpusPath != "" {
		cfg.Corpus.Path = *corpusPath
	}
	if *metricName == "" {
		*metricName = cfg.Search.DefaultMetric
	}

	logger.Setup("warn", "text")

	metric, err := executor.ParseMetric(*metricName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	filters, err := filter.Parse(*filterJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *query == "" && filters.IsZero() {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -q, -filter, or both")
		os.Exit(1)
	}

	idx, err := store.Load(cfg.Indexer.IndexDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load index from %s: %v\n", cfg.Indexer.IndexDir, err)
		os.Exit(1)
	}

	corpus := recipe.NewJSONLStore(cfg.Corpus.Path)
	engine := filter.NewEngine(corpus, idx.DocIDs(), cfg.Search.FilterScanCap, cfg.Search.FilterResultCap, nil)
	exec := executor.New(idx, engine)

	var total int
	var results []executor.Result
	err = resilience.WithTimeout(context.Background(), cfg.Search.QueryTimeout, "search", func(ctx context.Context) error {
		var err error
		if total, err = exec.TotalResults(ctx, *query, metric, filters); err != nil {
			return err
		}
		results, err = exec.Search(ctx, *query, metric, filters, *offset, *k)
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%d results (showing %d from offset %d, metric %s)\n\n", total, len(results), *offset, metric)
	for i, r := range results {
		fmt.Printf("%2d. [%.4f] %s\n", *offset+i+1, r.Score, r.Snippet)
		if r.URL != "" {
			fmt.Printf("            %s\n", r.URL)
		}
	}
}
