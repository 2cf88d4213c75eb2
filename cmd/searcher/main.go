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
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/imagequery"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/feed"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/resilience"
)

const (
	analyticsBuffer        = 10000
	analyticsBatchSize     = 100
	analyticsFlushInterval = 2 * time.Second
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
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"feed", cfg.Feed.Kind,
		"capacity", cfg.Indexer.Capacity,
	)

	m := metrics.New()
	if cfg.Metrics.Enabled && cfg.Metrics.Port != cfg.Server.Port {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownMetrics(ctx)
		}()
	}

	engine, err := indexer.NewEngine(cfg.Indexer)
	if err != nil {
		slog.Error("failed to create index engine", "error", err)
		os.Exit(1)
	}
	src, err := feed.Open(cfg.Feed, cfg.Kafka)
	if err != nil {
		slog.Error("failed to open document feed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker()
	checker.Register("index_engine", health.IndexCheck(engine.Ready, func() int { return engine.Stats().Documents }))

	var opts []executor.Option
	opts = append(opts, executor.WithMetrics(m))
	if cfg.Extractor.Command != "" {
		extractor, err := imagequery.New(cfg.Extractor, func(name string, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		})
		if err != nil {
			slog.Error("failed to create feature extractor", "error", err)
			os.Exit(1)
		}
		opts = append(opts, executor.WithExtractor(extractor))
		checker.Register("feature_extractor", health.BreakerCheck(extractor.BreakerState))
		slog.Info("image queries enabled", "command", cfg.Extractor.Command)
	} else {
		slog.Info("no feature extractor configured, image queries disabled")
	}
	exec := executor.New(engine, cfg.Search, opts...)

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, analyticsBuffer, analyticsBatchSize, analyticsFlushInterval)
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	}

	judgments, err := openJudgments(ctx, cfg, checker)
	if err != nil {
		slog.Warn("relevance judgments unavailable, evaluation disabled", "error", err)
	}

	// The cache namespace depends on the built index, so the cache and the
	// handler are wired once the build is done. Until then the index check
	// keeps the service not ready and searches fail with ErrIndexNotReady.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	api := &swappable{}
	api.set(newAPI(cfg, exec, engine, nil, collector, judgments, m))
	mux.Handle("/api/", api)

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.Trace,
			middleware.Metrics(m),
			middleware.Timeout(cfg.Server.WriteTimeout),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	exitCode := 0
	go func() {
		stats, err := engine.Build(ctx, src)
		engine.Observe(m, stats)
		if err != nil {
			slog.Error("index build failed", "error", err)
			exitCode = 1
			stop()
			return
		}
		var queryCache *cache.QueryCache
		if cfg.Redis.Enabled {
			redisClient, err := pkgredis.NewClient(cfg.Redis)
			if err != nil {
				slog.Warn("redis unavailable, search caching disabled", "error", err)
			} else {
				queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, engine.Fingerprint(), m)
				checker.Register("redis", health.PingCheck(redisClient, true))
				go func() {
					<-ctx.Done()
					_ = redisClient.Close()
				}()
				slog.Info("search cache enabled",
					"addr", cfg.Redis.Addr,
					"ttl", cfg.Redis.CacheTTL,
					"namespace", engine.Fingerprint(),
				)
			}
		}
		api.set(newAPI(cfg, exec, engine, queryCache, collector, judgments, m))
		slog.Info("index ready", "documents", stats.Documents, "duration", stats.Duration)
	}()

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
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// openJudgments connects the configured judgment store. The returned store
// is nil when judgments cannot be loaded.
func openJudgments(ctx context.Context, cfg *config.Config, checker *health.Checker) (evaluation.Store, error) {
	switch cfg.Evaluation.Source {
	case config.JudgmentsPostgres:
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		go func() {
			<-ctx.Done()
			_ = client.Close()
		}()
		checker.Register("postgres", health.PingCheck(client, true))
		return evaluation.NewPostgresStore(client), nil
	default:
		store, err := evaluation.LoadFile(cfg.Evaluation.File)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func newAPI(
	cfg *config.Config,
	exec *executor.Executor,
	engine *indexer.Engine,
	queryCache *cache.QueryCache,
	collector *analytics.Collector,
	judgments evaluation.Store,
	m *metrics.Metrics,
) http.Handler {
	opts := handler.Options{
		Executor:     exec,
		Stats:        engine,
		Cache:        queryCache,
		Collector:    collector,
		MaxQueries:   cfg.Evaluation.Queries,
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
	}
	if judgments != nil {
		opts.Evaluator = evaluation.NewHarness(exec, judgments, cfg.Evaluation, m)
		opts.Queries = judgments
	}
	mux := http.NewServeMux()
	handler.New(opts).Register(mux)
	return mux
}
