package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
)

// PrecisionCutoff is the rank Precision@k is reported at.
const PrecisionCutoff = 10

// Searcher runs the queries of a batch. *executor.Executor implements it.
type Searcher interface {
	Execute(ctx context.Context, query string, limit int) (*executor.SearchResult, error)
	ExecuteImage(ctx context.Context, imagePath string, limit int) (*executor.SearchResult, error)
}

type QueryReport struct {
	Number           int     `json:"number"`
	Query            string  `json:"query"`
	Image            string  `json:"image,omitempty"`
	Results          int     `json:"results"`
	Relevant         int     `json:"relevant"`
	PrecisionAt10    float64 `json:"precision_at_10"`
	AveragePrecision float64 `json:"average_precision"`
	Skipped          bool    `json:"skipped"`
}

// Report is the outcome of one batch. The means are taken over the
// evaluated queries; skipped queries do not count.
type Report struct {
	Queries           []QueryReport `json:"queries"`
	Evaluated         int           `json:"evaluated"`
	Skipped           int           `json:"skipped"`
	MeanPrecisionAt10 float64       `json:"mean_precision_at_10"`
	MAP               float64       `json:"map"`
	Duration          time.Duration `json:"duration"`
}

type Harness struct {
	searcher    Searcher
	judgments   Judgments
	topK        int
	concurrency int
	validate    *validator.Validate
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewHarness(searcher Searcher, judgments Judgments, cfg config.EvaluationConfig, m *metrics.Metrics) *Harness {
	topK := cfg.TopK
	if topK <= 0 {
		topK = PrecisionCutoff
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Harness{
		searcher:    searcher,
		judgments:   judgments,
		topK:        topK,
		concurrency: concurrency,
		validate:    validator.New(),
		metrics:     m,
		logger:      slog.Default().With("component", "evaluation"),
	}
}

// Evaluate runs every query of batch, scores its ranking against the
// judgments and averages P@10 and AP over the queries that returned
// results. A query with no results is skipped, not scored as zero. A failing
// search or judgment lookup aborts the whole run.
func (h *Harness) Evaluate(ctx context.Context, batch []Query) (*Report, error) {
	start := time.Now()
	seen := make(map[int]struct{}, len(batch))
	for _, q := range batch {
		if err := h.validate.Struct(q); err != nil {
			return nil, fmt.Errorf("%w: query %d: %v", apperrors.ErrInvalidInput, q.Number, err)
		}
		if _, dup := seen[q.Number]; dup {
			return nil, fmt.Errorf("%w: query %d listed twice", apperrors.ErrInvalidInput, q.Number)
		}
		seen[q.Number] = struct{}{}
	}

	reports := make([]QueryReport, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, q := range batch {
		g.Go(func() error {
			r, err := h.evaluateQuery(gctx, q)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if h.metrics != nil {
			h.metrics.EvaluationQueriesTotal.WithLabelValues("error").Inc()
		}
		h.logger.Error("evaluation aborted", "queries", len(batch), "error", err)
		return nil, err
	}

	report := &Report{Queries: reports}
	var sumP10, sumAP float64
	for _, r := range reports {
		if r.Skipped {
			report.Skipped++
			continue
		}
		report.Evaluated++
		sumP10 += r.PrecisionAt10
		sumAP += r.AveragePrecision
	}
	if report.Evaluated > 0 {
		report.MeanPrecisionAt10 = sumP10 / float64(report.Evaluated)
		report.MAP = sumAP / float64(report.Evaluated)
	}
	report.Duration = time.Since(start)

	if h.metrics != nil {
		h.metrics.EvaluationQueriesTotal.WithLabelValues("evaluated").Add(float64(report.Evaluated))
		h.metrics.EvaluationQueriesTotal.WithLabelValues("skipped").Add(float64(report.Skipped))
		h.metrics.EvaluationMAP.Set(report.MAP)
		h.metrics.EvaluationPrecisionAt10.Set(report.MeanPrecisionAt10)
	}
	h.logger.Info("evaluation complete",
		"queries", len(batch),
		"evaluated", report.Evaluated,
		"skipped", report.Skipped,
		"p_at_10", report.MeanPrecisionAt10,
		"map", report.MAP,
		"duration", report.Duration,
	)
	return report, nil
}

func (h *Harness) evaluateQuery(ctx context.Context, q Query) (QueryReport, error) {
	r := QueryReport{Number: q.Number, Query: q.Text, Image: q.Image}
	var (
		result *executor.SearchResult
		err    error
	)
	if q.Image != "" {
		result, err = h.searcher.ExecuteImage(ctx, q.Image, h.topK)
	} else {
		result, err = h.searcher.Execute(ctx, q.Text, h.topK)
	}
	if err != nil {
		return r, fmt.Errorf("query %d: %w", q.Number, err)
	}
	if q.Image != "" {
		r.Query = result.Query
	}
	r.Results = len(result.Results)
	if r.Results == 0 {
		r.Skipped = true
		h.logger.Debug("query returned no results, skipped", "number", q.Number)
		return r, nil
	}

	relevant, err := h.judgments.Relevant(ctx, q.Number)
	if err != nil {
		return r, fmt.Errorf("judgments of query %d: %w", q.Number, err)
	}
	ranked := make([]string, len(result.Results))
	for i, d := range result.Results {
		ranked[i] = d.Name
	}
	r.Relevant = len(relevant)
	r.PrecisionAt10 = PrecisionAtRank(PrecisionCutoff, relevant, ranked)
	r.AveragePrecision = AveragePrecision(relevant, ranked, h.topK)
	return r, nil
}
