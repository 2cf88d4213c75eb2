// Package handler exposes the search engine over HTTP: text and image
// search, evaluation runs, index statistics and the result cache.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/middleware"
)

type SearchExecutor interface {
	Execute(ctx context.Context, query string, limit int) (*executor.SearchResult, error)
	ExecuteImage(ctx context.Context, imagePath string, limit int) (*executor.SearchResult, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, batch []evaluation.Query) (*evaluation.Report, error)
}

// QuerySource supplies the default evaluation batch.
type QuerySource interface {
	Queries(ctx context.Context) ([]evaluation.Query, error)
}

type StatsProvider interface {
	Stats() indexer.Stats
}

// Options wires the handler. Cache, Collector, Evaluator and Queries may be
// nil; the matching endpoints then report the feature as disabled.
type Options struct {
	Executor     SearchExecutor
	Stats        StatsProvider
	Cache        *cache.QueryCache
	Collector    *analytics.Collector
	Evaluator    Evaluator
	Queries      QuerySource
	MaxQueries   int
	DefaultLimit int
	MaxResults   int
}

type Handler struct {
	executor     SearchExecutor
	stats        StatsProvider
	cache        *cache.QueryCache
	collector    *analytics.Collector
	evaluator    Evaluator
	queries      QuerySource
	maxQueries   int
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(opts Options) *Handler {
	return &Handler{
		executor:     opts.Executor,
		stats:        opts.Stats,
		cache:        opts.Cache,
		collector:    opts.Collector,
		evaluator:    opts.Evaluator,
		queries:      opts.Queries,
		maxQueries:   opts.MaxQueries,
		defaultLimit: opts.DefaultLimit,
		maxResults:   opts.MaxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Register mounts every endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/search/image", h.SearchImage)
	mux.HandleFunc("POST /api/v1/evaluate", h.Evaluate)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	if !params.Has("q") {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}
	query := params.Get("q")
	h.search(w, r, cache.KindText, query, limit, func() (*executor.SearchResult, error) {
		return h.executor.Execute(r.Context(), query, limit)
	})
}

func (h *Handler) SearchImage(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'path' is required")
		return
	}
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}
	h.search(w, r, cache.KindImage, path, limit, func() (*executor.SearchResult, error) {
		return h.executor.ExecuteImage(r.Context(), path, limit)
	})
}

func (h *Handler) search(
	w http.ResponseWriter,
	r *http.Request,
	kind cache.Kind,
	query string,
	limit int,
	compute func() (*executor.SearchResult, error),
) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var (
		result   *executor.SearchResult
		cacheHit bool
		err      error
	)
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, kind, query, limit, compute)
	} else {
		result, err = compute()
	}
	if err != nil {
		log.Error("search execution failed", "kind", kind, "query", query, "error", err)
		h.writeAppError(w, err)
		return
	}

	latency := time.Since(start)
	log.Info("search completed",
		"kind", kind,
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.collector != nil {
		eventType := analytics.EventSearch
		if kind == cache.KindImage {
			eventType = analytics.EventImageSearch
		}
		if len(result.Results) == 0 {
			eventType = analytics.EventZeroResult
		}
		terms := make([]string, 0, len(result.TermStats))
		for t := range result.TermStats {
			terms = append(terms, t)
		}
		h.collector.Track(analytics.SearchEvent{
			Type:      eventType,
			Query:     result.Query,
			ImagePath: result.ImagePath,
			Terms:     terms,
			TotalHits: result.TotalHits,
			Returned:  len(result.Results),
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}
	h.writeJSON(w, http.StatusOK, result)
}

type evaluateRequest struct {
	Queries []evaluation.Query `json:"queries"`
}

// Evaluate runs the posted batch, or the configured one when the body is
// empty or lists no queries.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if h.evaluator == nil {
		h.writeError(w, http.StatusServiceUnavailable, "evaluation is disabled")
		return
	}
	ctx := r.Context()
	var req evaluateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	batch := req.Queries
	if len(batch) == 0 {
		if h.queries == nil {
			h.writeError(w, http.StatusBadRequest, "no queries given and no default batch configured")
			return
		}
		var err error
		batch, err = h.queries.Queries(ctx)
		if err != nil {
			h.writeAppError(w, err)
			return
		}
		if h.maxQueries > 0 && len(batch) > h.maxQueries {
			batch = batch[:h.maxQueries]
		}
	}

	report, err := h.evaluator.Evaluate(ctx, batch)
	if err != nil {
		logger.FromContext(ctx).Error("evaluation failed", "queries", len(batch), "error", err)
		h.writeAppError(w, err)
		return
	}
	if h.collector != nil {
		h.collector.Track(analytics.EvaluationEvent{
			Queries:           len(batch),
			Evaluated:         report.Evaluated,
			Skipped:           report.Skipped,
			MeanPrecisionAt10: report.MeanPrecisionAt10,
			MAP:               report.MAP,
			DurationMs:        report.Duration.Milliseconds(),
			Timestamp:         time.Now().UTC(),
			RequestID:         middleware.GetRequestID(ctx),
		})
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.stats.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return 0, false
		}
		limit = parsed
	}
	if h.maxResults > 0 && limit > h.maxResults {
		limit = h.maxResults
	}
	return limit, true
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	h.writeError(w, status, message)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
