// Command indexer builds the index from the configured feed and reports what
// it holds. With -vocab it also prints every term with its postings in
// table-slot order.
//
// Usage:
//
//	go run ./cmd/indexer [-config configs/development.yaml] [-vocab] [-json]
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/feed"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	vocab := flag.Bool("vocab", false, "print the vocabulary with postings")
	asJSON := flag.Bool("json", false, "print stats as JSON")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer", "feed", cfg.Feed.Kind, "capacity", cfg.Indexer.Capacity)

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

	build, err := engine.Build(ctx, src)
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	if *vocab {
		writeVocabulary(out, engine)
	}
	if err := writeStats(out, build, engine.Stats(), *asJSON); err != nil {
		slog.Error("failed to write stats", "error", err)
	}
}

func writeVocabulary(w io.Writer, engine *indexer.Engine) {
	for _, term := range engine.Vocabulary() {
		fmt.Fprintf(w, "%s (df=%d, idf=%.6f)\n", term.Term, term.DocFreq, term.IDF)
		for _, p := range term.Postings {
			fmt.Fprintf(w, "\t%s\t%s\ttf=%d\n", p.DocName, p.Term, p.Frequency)
		}
	}
}

func writeStats(w io.Writer, build indexer.BuildStats, stats indexer.Stats, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Build indexer.BuildStats `json:"build"`
			Index indexer.Stats      `json:"index"`
		}{build, stats})
	}
	_, err := fmt.Fprintf(w,
		"source: %s\ndocuments: %d/%d (truncated: %t)\nterms: %d\npostings: %d\navg doc length: %.2f\nbuild time: %s\n",
		build.Source, stats.Documents, stats.Capacity, build.Truncated,
		stats.Terms, stats.Postings, stats.AvgDocLen, build.Duration,
	)
	return err
}
