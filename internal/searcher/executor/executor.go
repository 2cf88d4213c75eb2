package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/tracing"
)

type SearchResult struct {
	Query     string             `json:"query"`
	ImagePath string             `json:"image_path,omitempty"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
	TermStats map[string]int     `json:"term_stats"`
	Took      time.Duration      `json:"took"`
}

// FeatureExtractor turns an image into the feature word that is searched
// for in its place.
type FeatureExtractor interface {
	Extract(ctx context.Context, imagePath string) (string, error)
}

type Option func(*Executor)

func WithExtractor(x FeatureExtractor) Option {
	return func(e *Executor) { e.extractor = x }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// Executor answers queries against a finalized engine. It keeps no per-query
// state, so any number of queries may run at once.
type Executor struct {
	engine         *indexer.Engine
	extractor      FeatureExtractor
	metrics        *metrics.Metrics
	maxResults     int
	maxQueryLength int
	logger         *slog.Logger
}

func New(engine *indexer.Engine, cfg config.SearchConfig, opts ...Option) *Executor {
	e := &Executor{
		engine:         engine,
		maxResults:     cfg.MaxResults,
		maxQueryLength: cfg.MaxQueryLength,
		logger:         slog.Default().With("component", "query-executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute ranks the documents matching query and returns at most limit of
// them, best first. A query with no indexed term yields an empty result.
func (e *Executor) Execute(ctx context.Context, query string, limit int) (*SearchResult, error) {
	start := time.Now()
	result, err := e.execute(ctx, query, limit)
	e.observe("text", start, result, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExecuteImage runs the feature extractor on imagePath and searches for the
// word it prints. An extractor failure fails this query only.
func (e *Executor) ExecuteImage(ctx context.Context, imagePath string, limit int) (*SearchResult, error) {
	start := time.Now()
	if e.extractor == nil {
		return nil, fmt.Errorf("%w: no feature extractor configured", apperrors.ErrExtractionFailed)
	}
	if !e.engine.Ready() {
		return nil, apperrors.ErrIndexNotReady
	}
	_, span := tracing.StartChildSpan(ctx, "extract")
	word, err := e.extractor.Extract(ctx, imagePath)
	span.SetAttr("word", word)
	span.End()
	if err != nil {
		if e.metrics != nil {
			e.metrics.ExtractorFailuresTotal.Inc()
		}
		e.observe("image", start, nil, err)
		if !errors.Is(err, apperrors.ErrExtractionFailed) {
			err = fmt.Errorf("%w: %w", apperrors.ErrExtractionFailed, err)
		}
		return nil, fmt.Errorf("extracting features of %q: %w", imagePath, err)
	}
	result, err := e.execute(ctx, word, limit)
	if result != nil {
		result.ImagePath = imagePath
		result.Took = time.Since(start)
	}
	e.observe("image", start, result, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Executor) execute(ctx context.Context, query string, limit int) (*SearchResult, error) {
	start := time.Now()
	if !e.engine.Ready() {
		return nil, apperrors.ErrIndexNotReady
	}
	if e.maxQueryLength > 0 && len(query) > e.maxQueryLength {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", apperrors.ErrQueryTooLong, len(query), e.maxQueryLength)
	}
	if limit < 0 {
		limit = 0
	}
	if e.maxResults > 0 && limit > e.maxResults {
		limit = e.maxResults
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span := tracing.StartChildSpan(ctx, "rank")
	plan := parser.Parse(query, e.engine.Analyzer())
	ranking := ranker.Rank(plan, e.engine, limit)
	span.SetAttr("terms", len(plan.TermNames()))
	span.SetAttr("candidates", ranking.TotalHits)
	span.End()
	result := &SearchResult{
		Query:     query,
		TotalHits: ranking.TotalHits,
		Results:   ranking.Docs,
		TermStats: ranking.TermStats,
		Took:      time.Since(start),
	}
	if result.Results == nil {
		result.Results = []ranker.ScoredDoc{}
	}
	e.logger.Debug("query executed",
		"query", query,
		"terms", plan.TermNames(),
		"candidates", result.TotalHits,
		"results", len(result.Results),
		"took", result.Took,
	)
	return result, nil
}

func (e *Executor) observe(kind string, start time.Time, result *SearchResult, err error) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		e.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
	case len(result.Results) == 0:
		e.metrics.SearchQueriesTotal.WithLabelValues("zero_result").Inc()
		e.metrics.SearchResultsCount.Observe(0)
	default:
		e.metrics.SearchQueriesTotal.WithLabelValues("hit").Inc()
		e.metrics.SearchResultsCount.Observe(float64(len(result.Results)))
	}
}
