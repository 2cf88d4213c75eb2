package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/feed"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

type fakeExtractor struct {
	word string
	err  error
}

func (f fakeExtractor) Extract(ctx context.Context, path string) (string, error) {
	return f.word, f.err
}

func newTestServer(t *testing.T, x executor.FeatureExtractor) (*http.ServeMux, *indexer.Engine) {
	t.Helper()
	e, err := indexer.NewEngine(config.IndexerConfig{
		Capacity:        10,
		TermSlots:       1009,
		PartitionOffset: 5,
		PartitionMarker: "P",
	})
	require.NoError(t, err)
	_, err = e.Build(context.Background(), feed.Slice{
		{ID: "1", Name: "1.jpg", Text: "red shoe"},
		{ID: "2", Name: "2.jpg", Text: "blue shoe shoe"},
		{ID: "3", Name: "3.jpg", Text: "green dress"},
	})
	require.NoError(t, err)

	var opts []executor.Option
	if x != nil {
		opts = append(opts, executor.WithExtractor(x))
	}
	exec := executor.New(e, config.SearchConfig{MaxResults: 2, MaxQueryLength: 32}, opts...)
	judgments := evaluation.NewRelevantJudgments(map[int][]string{1: {"1.jpg"}})
	h := New(Options{
		Executor:     exec,
		Stats:        e,
		Evaluator:    evaluation.NewHarness(exec, judgments, config.EvaluationConfig{TopK: 10}, nil),
		DefaultLimit: 10,
		MaxResults:   2,
	})
	mux := http.NewServeMux()
	h.Register(mux)
	return mux, e
}

func do(t *testing.T, mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSearch(t *testing.T) {
	mux, _ := newTestServer(t, nil)
	rec := do(t, mux, http.MethodGet, "/api/v1/search?q=shoe", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res executor.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "shoe", res.Query)
	assert.Equal(t, 2, res.TotalHits)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "2", res.Results[0].DocID)
	assert.Equal(t, "1", res.Results[1].DocID)
	assert.GreaterOrEqual(t, res.Results[0].Score, res.Results[1].Score)
}

func TestSearchLimitClamped(t *testing.T) {
	mux, _ := newTestServer(t, nil)
	rec := do(t, mux, http.MethodGet, "/api/v1/search?q=shoe+dress&limit=50", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res executor.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Results, 2)
	assert.Equal(t, 3, res.TotalHits)
}

func TestSearchBadRequests(t *testing.T) {
	mux, _ := newTestServer(t, nil)
	for _, target := range []string{
		"/api/v1/search",
		"/api/v1/search?q=red&limit=0",
		"/api/v1/search?q=red&limit=abc",
		"/api/v1/search?q=" + strings.Repeat("a", 40),
		"/api/v1/search/image",
	} {
		rec := do(t, mux, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestSearchEmptyAndUnknown(t *testing.T) {
	mux, _ := newTestServer(t, nil)
	for _, target := range []string{"/api/v1/search?q=", "/api/v1/search?q=zzznotaword"} {
		rec := do(t, mux, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		var res executor.SearchResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Empty(t, res.Results)
	}
}

func TestSearchImage(t *testing.T) {
	mux, _ := newTestServer(t, fakeExtractor{word: "dress"})
	rec := do(t, mux, http.MethodGet, "/api/v1/search/image?path=q.jpg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res executor.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "q.jpg", res.ImagePath)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "3.jpg", res.Results[0].Name)
}

func TestSearchImageExtractorFailure(t *testing.T) {
	mux, _ := newTestServer(t, fakeExtractor{err: errors.New("exit status 2")})
	rec := do(t, mux, http.MethodGet, "/api/v1/search/image?path=q.jpg", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	mux, _ = newTestServer(t, fakeExtractor{err: apperrors.ErrExtractionFailed})
	rec = do(t, mux, http.MethodGet, "/api/v1/search/image?path=q.jpg", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSearchNotReady(t *testing.T) {
	e, err := indexer.NewEngine(config.IndexerConfig{Capacity: 10, TermSlots: 11, PartitionMarker: "P"})
	require.NoError(t, err)
	h := New(Options{
		Executor:     executor.New(e, config.SearchConfig{}),
		Stats:        e,
		DefaultLimit: 10,
	})
	mux := http.NewServeMux()
	h.Register(mux)
	rec := do(t, mux, http.MethodGet, "/api/v1/search?q=red", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEvaluate(t *testing.T) {
	mux, _ := newTestServer(t, nil)
	rec := do(t, mux, http.MethodPost, "/api/v1/evaluate",
		`{"queries":[{"number":1,"text":"red shoe"},{"number":2,"text":"zebra"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report evaluation.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Evaluated)
	assert.Equal(t, 1, report.Skipped)
	assert.InDelta(t, 1.0, report.MAP, 1e-12)
	assert.InDelta(t, 0.1, report.MeanPrecisionAt10, 1e-12)
}

func TestEvaluateWithoutDefaultBatch(t *testing.T) {
	mux, _ := newTestServer(t, nil)
	rec := do(t, mux, http.MethodPost, "/api/v1/evaluate", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPost, "/api/v1/evaluate", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexStats(t *testing.T) {
	mux, _ := newTestServer(t, nil)
	rec := do(t, mux, http.MethodGet, "/api/v1/index/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats indexer.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Documents)
	assert.Equal(t, 10, stats.Capacity)
	assert.True(t, stats.Ready)
}

func TestCacheDisabled(t *testing.T) {
	mux, _ := newTestServer(t, nil)
	rec := do(t, mux, http.MethodGet, "/api/v1/cache/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"disabled"}`, rec.Body.String())

	rec = do(t, mux, http.MethodPost, "/api/v1/cache/invalidate", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
