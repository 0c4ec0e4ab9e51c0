package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/analytics"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/consumer"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/store"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/recipe"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/config"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/kafka"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/logger"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/metrics"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/postgres"
)

// maxLineBytes bounds a single corpus line; recipe records with long
// instruction lists run to tens of kilobytes, never megabytes.
const maxLineBytes = 4 * 1024 * 1024

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	inputPath := flag.String("input", "", "normalized corpus JSONL file (overrides config)")
	outDir := flag.String("out", "", "index output directory (overrides config)")
	stream := flag.Bool("stream", false, "consume records from Kafka instead of reading a file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *inputPath != "" {
		cfg.Corpus.Path = *inputPath
	}
	if *outDir != "" {
		cfg.Indexer.IndexDir = *outDir
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if *stream {
		runStream(cfg)
		return
	}
	runBatch(cfg)
}

// runBatch reads the whole corpus file, builds the index in one pass, and
// writes it out.
func runBatch(cfg *config.Config) {
	slog.Info("building index", "input", cfg.Corpus.Path, "out", cfg.Indexer.IndexDir)
	start := time.Now()

	f, err := os.Open(cfg.Corpus.Path)
	if err != nil {
		slog.Error("failed to open corpus", "path", cfg.Corpus.Path, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	b := indexer.NewBuilder()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		b.AddLine(scanner.Bytes())
	}
	if err := scanner.Err(); err != nil {
		slog.Error("failed while reading corpus", "error", err)
		os.Exit(1)
	}

	finalize(b, cfg.Indexer.IndexDir, start, nil)
}

// runStream consumes records from the recipe topic until interrupted, then
// finalizes and persists whatever accumulated.
func runStream(cfg *config.Config) {
	slog.Info("streaming records from kafka",
		"topic", cfg.Kafka.Topics.RecipeRecords,
		"brokers", cfg.Kafka.Brokers,
	)
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	defer producer.Close()
	collector := analytics.NewCollector(producer, 10000)
	collector.Start(ctx)
	defer collector.Close()

	var corpus consumer.Corpus
	switch cfg.Corpus.Backend {
	case "postgres":
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		corpus = recipe.NewPostgresStore(pg)
		slog.Info("corpus backend: postgres", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	default:
		corpus = recipe.NewJSONLStore(cfg.Corpus.Path)
		slog.Info("corpus backend: jsonl", "path", cfg.Corpus.Path)
	}

	b := indexer.NewBuilder()
	handle := consumer.HandleRecord(b, corpus, func(rec *recipe.Record) {
		m.DocsIndexedTotal.Inc()
		collector.Track(analytics.IndexEvent{
			Type:       analytics.EventIndexDoc,
			DocumentID: rec.ID,
			Timestamp:  time.Now().UTC(),
		})
	})
	rc := consumer.New(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.RecipeRecords, handle))

	if err := rc.Start(ctx); err != nil {
		slog.Error("record consumer error", "error", err)
	}

	if shutdownMetrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownMetrics(shutdownCtx)
	}

	if b.DocCount() == 0 {
		slog.Warn("no records consumed, nothing to persist")
		return
	}
	finalize(b, cfg.Indexer.IndexDir, start, m)
}

func finalize(b *indexer.Builder, dir string, start time.Time, m *metrics.Metrics) {
	idx, stats := b.Finalize()
	if m != nil {
		m.DocsSkippedTotal.WithLabelValues("empty").Add(float64(stats.EmptyDocs))
		m.DocsSkippedTotal.WithLabelValues("error").Add(float64(stats.ErrorDocs))
	}
	if err := store.Write(dir, idx); err != nil {
		slog.Error("failed to write index", "dir", dir, "error", err)
		os.Exit(1)
	}
	slog.Info("index written",
		"dir", dir,
		"docs", stats.TotalDocs,
		"terms", stats.TotalTerms,
		"postings", stats.TotalPostings,
		"empty_docs", stats.EmptyDocs,
		"error_docs", stats.ErrorDocs,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}
