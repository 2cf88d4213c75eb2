// Command search builds the index and answers queries typed on the console
// until "!q". A line starting with "!img " queries by image and "!eval" runs
// the relevance evaluation.
//
// Usage:
//
//	go run ./cmd/search [-config configs/development.yaml] [-eval] [-image photo.jpg]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/imagequery"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/feed"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
)

const (
	quitCommand  = "!q"
	imageCommand = "!img "
	evalCommand  = "!eval"
)

type console struct {
	exec       *executor.Executor
	harness    *evaluation.Harness
	queries    evaluation.Store
	maxQueries int
	maxResults int
	out        io.Writer
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	runEval := flag.Bool("eval", false, "run the evaluation batch and exit")
	imagePath := flag.String("image", "", "search by this image and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.SetupWriter(os.Stderr, cfg.Logging.Level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newConsole(ctx, cfg, os.Stdout)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}

	switch {
	case *runEval:
		if err := c.evaluate(ctx); err != nil {
			os.Exit(1)
		}
	case *imagePath != "":
		c.searchImage(ctx, *imagePath)
	default:
		c.loop(ctx, os.Stdin)
	}
}

func newConsole(ctx context.Context, cfg *config.Config, out io.Writer) (*console, error) {
	engine, err := indexer.NewEngine(cfg.Indexer)
	if err != nil {
		return nil, err
	}
	src, err := feed.Open(cfg.Feed, cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if _, err := engine.Build(ctx, src); err != nil {
		return nil, err
	}

	var opts []executor.Option
	if cfg.Extractor.Command != "" {
		x, err := imagequery.New(cfg.Extractor, nil)
		if err != nil {
			return nil, err
		}
		opts = append(opts, executor.WithExtractor(x))
	}
	c := &console{
		exec:       executor.New(engine, cfg.Search, opts...),
		maxQueries: cfg.Evaluation.Queries,
		maxResults: cfg.Search.DefaultLimit,
		out:        out,
	}
	if cfg.Evaluation.Source == config.JudgmentsFile {
		store, err := evaluation.LoadFile(cfg.Evaluation.File)
		if err != nil {
			slog.Warn("judgments unavailable, evaluation disabled", "error", err)
		} else {
			c.queries = store
			c.harness = evaluation.NewHarness(c.exec, store, cfg.Evaluation, nil)
		}
	}
	return c, nil
}

// loop reads one query per line until quitCommand or end of input.
func (c *console) loop(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		renderPrompt(c.out)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == quitCommand:
			return
		case line == evalCommand:
			_ = c.evaluate(ctx)
		case strings.HasPrefix(line, imageCommand):
			c.searchImage(ctx, strings.TrimSpace(strings.TrimPrefix(line, imageCommand)))
		default:
			c.search(ctx, line)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *console) search(ctx context.Context, query string) {
	result, err := c.exec.Execute(ctx, query, c.maxResults)
	if err != nil {
		renderError(c.out, err)
		return
	}
	renderResult(c.out, result, c.maxResults)
}

func (c *console) searchImage(ctx context.Context, path string) {
	result, err := c.exec.ExecuteImage(ctx, path, c.maxResults)
	if err != nil {
		renderError(c.out, err)
		return
	}
	renderResult(c.out, result, c.maxResults)
}

func (c *console) evaluate(ctx context.Context) error {
	if c.harness == nil {
		err := errors.New("evaluation is not configured")
		renderError(c.out, err)
		return err
	}
	batch, err := c.queries.Queries(ctx)
	if err != nil {
		renderError(c.out, err)
		return err
	}
	if c.maxQueries > 0 && len(batch) > c.maxQueries {
		batch = batch[:c.maxQueries]
	}
	report, err := c.harness.Evaluate(ctx, batch)
	if err != nil {
		renderError(c.out, err)
		return err
	}
	renderReport(c.out, report)
	return nil
}
