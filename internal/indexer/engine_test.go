package indexer

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/feed"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
)

func testConfig(capacity int) config.IndexerConfig {
	return config.IndexerConfig{
		Capacity:        capacity,
		TermSlots:       1009,
		PartitionOffset: capacity / 2,
		PartitionMarker: "P",
	}
}

func newTestEngine(t *testing.T, capacity int) *Engine {
	t.Helper()
	e, err := NewEngine(testConfig(capacity))
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	_, err := NewEngine(config.IndexerConfig{Capacity: 0, TermSlots: 10, PartitionMarker: "P"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = NewEngine(config.IndexerConfig{Capacity: 10, TermSlots: 10, PartitionMarker: ""})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestIngestDocumentBuildsPostings(t *testing.T) {
	e := newTestEngine(t, 10)
	require.NoError(t, e.IngestDocument("1", "doc1", "red shoe"))
	require.NoError(t, e.IngestDocument("2", "doc2", "Blue shoe shoe."))

	shoe, ok := e.Lookup("shoe")
	require.True(t, ok)
	assert.Equal(t, 2, shoe.DocFreq)
	assert.Equal(t, 3, shoe.Occurrences)
	byDoc := map[string]int{}
	for _, p := range shoe.Postings {
		byDoc[p.DocID] = p.Frequency
	}
	assert.Equal(t, map[string]int{"1": 1, "2": 2}, byDoc)

	_, ok = e.Lookup("blue")
	assert.True(t, ok)
	_, ok = e.Lookup("Blue")
	assert.False(t, ok)

	entry, ok := e.Entry("2")
	require.True(t, ok)
	assert.Equal(t, "doc2", entry.Name)
	assert.Equal(t, 1, entry.Slot)
}

func TestFinalizeStatistics(t *testing.T) {
	e := newTestEngine(t, 10)
	require.NoError(t, e.IngestDocument("1", "doc1", "red shoe"))
	require.NoError(t, e.IngestDocument("2", "doc2", "blue shoe shoe"))
	require.False(t, e.Ready())
	require.NoError(t, e.FinalizeStatistics())
	require.True(t, e.Ready())

	idfShoe := math.Log(10.0 / 2)
	idfOnce := math.Log(10.0 / 1)

	shoe, _ := e.Lookup("shoe")
	assert.InDelta(t, idfShoe, shoe.IDF, 1e-12)

	doc1, _ := e.Entry("1")
	want1 := idfOnce*idfOnce + idfShoe*idfShoe
	assert.InDelta(t, want1, doc1.Magnitude, 1e-9)

	doc2, _ := e.Entry("2")
	w := idfShoe * (1 + math.Log(2))
	want2 := idfOnce*idfOnce + w*w
	assert.InDelta(t, want2, doc2.Magnitude, 1e-9)
}

func TestFinalizeFreezes(t *testing.T) {
	e := newTestEngine(t, 10)
	require.NoError(t, e.IngestDocument("1", "doc1", "red"))
	require.NoError(t, e.FinalizeStatistics())

	before, _ := e.Entry("1")
	assert.ErrorIs(t, e.FinalizeStatistics(), apperrors.ErrIndexFrozen)
	assert.ErrorIs(t, e.IngestDocument("2", "doc2", "blue"), apperrors.ErrIndexFrozen)
	after, _ := e.Entry("1")
	assert.Equal(t, before.Magnitude, after.Magnitude)
}

func TestMagnitudeGrowsWithTerms(t *testing.T) {
	short := newTestEngine(t, 10)
	long := newTestEngine(t, 10)
	require.NoError(t, short.IngestDocument("1", "d", "red"))
	require.NoError(t, long.IngestDocument("1", "d", "red shoe"))
	require.NoError(t, short.FinalizeStatistics())
	require.NoError(t, long.FinalizeStatistics())

	s, _ := short.Entry("1")
	l, _ := long.Entry("1")
	assert.GreaterOrEqual(t, s.Magnitude, 0.0)
	assert.Greater(t, l.Magnitude, s.Magnitude)
}

func TestIngestCapacity(t *testing.T) {
	e := newTestEngine(t, 2)
	require.NoError(t, e.IngestDocument("1", "a", "x"))
	require.NoError(t, e.IngestDocument("2", "b", "y"))
	err := e.IngestDocument("1P", "c", "z")
	assert.ErrorIs(t, err, apperrors.ErrCapacityReached)
	assert.Equal(t, 2, e.Stats().Documents)
}

func TestIngestMalformedID(t *testing.T) {
	e := newTestEngine(t, 10)
	err := e.IngestDocument("abc", "a", "x")
	assert.ErrorIs(t, err, apperrors.ErrMalformedDocumentID)
	_, ok := e.Lookup("x")
	assert.False(t, ok)
}

func TestBuild(t *testing.T) {
	e := newTestEngine(t, 10)
	src := feed.Slice{
		{ID: "1", Name: "1.jpg", Text: "red shoe"},
		{ID: "2", Name: "2.jpg", Text: "blue shoe shoe"},
		{ID: "1P", Name: "1P.jpg", Text: "green dress"},
	}
	stats, err := e.Build(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Documents)
	assert.False(t, stats.Truncated)
	assert.Equal(t, "memory", stats.Source)
	assert.True(t, e.Ready())

	entry, ok := e.Entry("1P")
	require.True(t, ok)
	assert.Equal(t, 5, entry.Slot)
}

func TestBuildStopsAtCapacity(t *testing.T) {
	e := newTestEngine(t, 2)
	src := feed.Slice{
		{ID: "1", Name: "a", Text: "x"},
		{ID: "2", Name: "b", Text: "y"},
		{ID: "1P", Name: "c", Text: "z"},
	}
	stats, err := e.Build(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.True(t, stats.Truncated)
	assert.True(t, e.Ready())
	_, ok := e.Lookup("z")
	assert.False(t, ok)
}

func TestBuildStopsAtCapacityBeforeOutOfRangeID(t *testing.T) {
	e := newTestEngine(t, 2)
	src := feed.Slice{
		{ID: "1", Name: "a", Text: "x"},
		{ID: "2", Name: "b", Text: "y"},
		{ID: "3", Name: "c", Text: "z"},
	}
	stats, err := e.Build(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.True(t, stats.Truncated)
	assert.True(t, e.Ready())
	_, ok := e.Lookup("z")
	assert.False(t, ok)
	_, ok = e.Lookup("y")
	assert.True(t, ok)
}

func TestBuildAcceptsAnyDisplayName(t *testing.T) {
	e := newTestEngine(t, 10)
	long := strings.Repeat("n", 75)
	stats, err := e.Build(context.Background(), feed.Slice{
		{ID: "1", Name: "", Text: "red shoe"},
		{ID: "2", Name: long, Text: "blue shoe"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.True(t, e.Ready())

	entry, ok := e.Entry("2")
	require.True(t, ok)
	assert.Equal(t, long, entry.Name)
}

type failingSource struct {
	docs []ingestion.Document
	err  error
}

func (f failingSource) Name() string { return "failing" }

func (f failingSource) Each(ctx context.Context, fn func(ingestion.Document) error) error {
	for _, d := range f.docs {
		if err := fn(d); err != nil {
			return err
		}
	}
	return f.err
}

func TestBuildFeedFailureKeepsState(t *testing.T) {
	e := newTestEngine(t, 10)
	src := failingSource{
		docs: []ingestion.Document{{ID: "1", Name: "a", Text: "red"}},
		err:  apperrors.ErrFeedUnavailable,
	}
	_, err := e.Build(context.Background(), src)
	assert.ErrorIs(t, err, apperrors.ErrFeedUnavailable)
	assert.False(t, e.Ready())
	_, ok := e.Lookup("red")
	assert.True(t, ok)
}

func TestBuildRejectsMalformedID(t *testing.T) {
	e := newTestEngine(t, 10)
	_, err := e.Build(context.Background(), feed.Slice{{ID: "x", Name: "a", Text: "red"}})
	assert.True(t, errors.Is(err, apperrors.ErrMalformedDocumentID))
	assert.False(t, e.Ready())
}

func TestVocabularyAndStats(t *testing.T) {
	e := newTestEngine(t, 10)
	_, err := e.Build(context.Background(), feed.Slice{
		{ID: "1", Name: "a", Text: "red shoe"},
		{ID: "2", Name: "b", Text: "shoe"},
	})
	require.NoError(t, err)

	vocab := e.Vocabulary()
	require.Len(t, vocab, 2)
	for i := 1; i < len(vocab); i++ {
		assert.LessOrEqual(t, vocab[i-1].Slot, vocab[i].Slot)
	}

	s := e.Stats()
	assert.Equal(t, 2, s.Documents)
	assert.Equal(t, 2, s.Terms)
	assert.Equal(t, 3, s.Postings)
	assert.Equal(t, int64(3), s.TotalTokens)
	assert.InDelta(t, 1.5, s.AvgDocLen, 1e-12)
	assert.True(t, s.Ready)
}

func TestFingerprint(t *testing.T) {
	docs := feed.Slice{
		{ID: "1", Name: "a", Text: "red shoe"},
		{ID: "2", Name: "b", Text: "shoe"},
	}
	a := newTestEngine(t, 10)
	_, err := a.Build(context.Background(), docs)
	require.NoError(t, err)
	b := newTestEngine(t, 10)
	_, err = b.Build(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 12)

	c := newTestEngine(t, 10)
	_, err = c.Build(context.Background(), docs[:1])
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestObserve(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	e := newTestEngine(t, 10)
	stats, err := e.Build(context.Background(), feed.Slice{
		{ID: "1", Name: "a", Text: "red shoe"},
		{ID: "2", Name: "b", Text: "shoe"},
	})
	require.NoError(t, err)
	e.Observe(m, stats)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocsIndexedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.VocabularySize))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexReady))

	e.Observe(nil, stats)
}
