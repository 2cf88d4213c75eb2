// Command ingestion loads the XML product feed onto the Kafka feed topic so
// that searchers configured with feed.kind=kafka can build from the topic.
// With -judgments it also imports a judgment file into PostgreSQL.
//
// Usage:
//
//	go run ./cmd/ingestion [-config configs/development.yaml] [-feed products.xml] [-judgments judgments.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/feed"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	feedPath := flag.String("feed", "", "XML feed to publish (defaults to feed.path)")
	judgmentsPath := flag.String("judgments", "", "judgment file to import into postgres")
	skipFeed := flag.Bool("skip-feed", false, "only import judgments")
	batchSize := flag.Int("batch", 500, "records per kafka batch")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if !*skipFeed {
		path := cfg.Feed.Path
		if *feedPath != "" {
			path = *feedPath
		}
		g.Go(func() error {
			return publishFeed(ctx, cfg, path, *batchSize)
		})
	}
	if *judgmentsPath != "" {
		g.Go(func() error {
			return importJudgments(ctx, cfg, *judgmentsPath)
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("ingestion failed", "error", err)
		os.Exit(1)
	}
	slog.Info("ingestion complete")
}

func publishFeed(ctx context.Context, cfg *config.Config, path string, batchSize int) error {
	producer := kafka.NewFeedProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentFeed)
	defer producer.Close()
	slog.Info("kafka producer initialized", "topic", cfg.Kafka.Topics.DocumentFeed)

	v := validator.New(index.Addressing{
		PartitionOffset: cfg.Indexer.PartitionOffset,
		Marker:          cfg.Indexer.PartitionMarker[0],
	}, cfg.Indexer.Capacity)
	stats, err := publisher.New(producer, v, batchSize).Publish(ctx, feed.NewXMLFile(path))
	if err != nil {
		return fmt.Errorf("publishing %s: %w", path, err)
	}
	slog.Info("feed published",
		"source", stats.Source,
		"records", stats.Published,
		"batches", stats.Batches,
		"duration", stats.Duration,
	)
	return nil
}

func importJudgments(ctx context.Context, cfg *config.Config, path string) error {
	file, err := evaluation.LoadFile(path)
	if err != nil {
		return err
	}
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	store := evaluation.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := store.Import(ctx, file); err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	slog.Info("judgments imported", "file", path, "queries", len(file.Judged()))
	return nil
}
