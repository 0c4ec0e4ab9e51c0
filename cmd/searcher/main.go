package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/analytics"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/store"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/recipe"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/cache"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/executor"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/filter"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/handler"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/config"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/health"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/kafka"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/logger"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/metrics"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/middleware"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/postgres"
	pkgredis "github.com/Marosko123/food-recipes-ir-pipeline/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "index_dir", cfg.Indexer.IndexDir)

	idx, err := store.Load(cfg.Indexer.IndexDir)
	if err != nil {
		slog.Error("failed to load index", "dir", cfg.Indexer.IndexDir, "error", err)
		os.Exit(1)
	}
	slog.Info("index loaded",
		"docs", idx.TotalDocs(),
		"terms", idx.TermCount(),
		"avg_doc_length", idx.AvgDocLength(),
	)

	m := metrics.New()
	m.IndexDocCount.Set(float64(idx.TotalDocs()))
	m.IndexTermCount.Set(float64(idx.TermCount()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recordStore recipe.Store
	var pgClient *postgres.Client
	var jsonlStore *recipe.JSONLStore
	switch cfg.Corpus.Backend {
	case "postgres":
		pgClient, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()
		recordStore = recipe.NewPostgresStore(pgClient)
		slog.Info("corpus backend: postgres", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	default:
		jsonlStore = recipe.NewJSONLStore(cfg.Corpus.Path)
		recordStore = jsonlStore
		slog.Info("corpus backend: jsonl", "path", cfg.Corpus.Path)
	}

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	var collector *analytics.Collector
	var analyticsH *analytics.Handler
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 10000)
		collector.Start(ctx)
		defer collector.Close()

		var aggregator *analytics.Aggregator
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents,
			func(ctx context.Context, key, value []byte) error {
				return analytics.HandleEvent(aggregator)(ctx, key, value)
			})
		aggregator = analytics.NewAggregator(consumer)
		analyticsH = analytics.NewHandler(aggregator)
		go func() {
			if err := aggregator.Start(ctx); err != nil {
				slog.Error("analytics aggregator error", "error", err)
			}
		}()
		slog.Info("analytics pipeline started", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	} else {
		slog.Warn("no kafka brokers configured, analytics disabled")
	}

	filterEngine := filter.NewEngine(recordStore, idx.DocIDs(), cfg.Search.FilterScanCap, cfg.Search.FilterResultCap, m)
	exec := executor.New(idx, filterEngine)
	h := handler.New(exec, queryCache, collector, cfg.Search.DefaultLimit, cfg.Search.MaxResults, executor.Metric(cfg.Search.DefaultMetric), m)

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if idx.TotalDocs() > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", idx.TotalDocs())}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "no documents"}
	})
	checker.Register("corpus", func(ctx context.Context) health.ComponentHealth {
		if pgClient != nil {
			if err := pgClient.DB.PingContext(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		}
		if _, err := os.Stat(jsonlStore.Path()); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/search/total", h.Total)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	if analyticsH != nil {
		mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Search.QueryTimeout)(chain)
	chain = middleware.RequestID(chain)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
