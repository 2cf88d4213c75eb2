package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *memStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = string(value.([]byte))
	s.ttls[key] = ttl
	return nil
}

func (s *memStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func sampleResult(q string) *executor.SearchResult {
	return &executor.SearchResult{
		Query:     q,
		TotalHits: 1,
		Results:   []ranker.ScoredDoc{{DocID: "1", Name: "1.jpg", Score: 0.5}},
		TermStats: map[string]int{"red": 1},
	}
}

func TestGetOrCompute(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	store := newMemStore()
	c := New(store, time.Minute, "b1", m)
	ctx := context.Background()

	calls := 0
	compute := func() (*executor.SearchResult, error) {
		calls++
		return sampleResult("red"), nil
	}

	res, hit, err := c.GetOrCompute(ctx, KindText, "red", 10, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "1", res.Results[0].DocID)

	res, hit, err = c.GetOrCompute(ctx, KindText, "Red.", 10, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 0.5, res.Results[0].Score)
	assert.Equal(t, 1, calls)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	for _, ttl := range store.ttls {
		assert.Equal(t, time.Minute, ttl)
	}
}

func TestKeysSeparateLimitKindAndNamespace(t *testing.T) {
	c1 := New(newMemStore(), time.Minute, "b1", nil)
	c2 := New(newMemStore(), time.Minute, "b2", nil)
	assert.NotEqual(t, c1.buildKey(KindText, "red", 10), c1.buildKey(KindText, "red", 5))
	assert.NotEqual(t, c1.buildKey(KindText, "red", 10), c1.buildKey(KindImage, "red", 10))
	assert.NotEqual(t, c1.buildKey(KindText, "red", 10), c2.buildKey(KindText, "red", 10))
	assert.Equal(t, c1.buildKey(KindText, "red  shoe", 10), c1.buildKey(KindText, "RED shoe", 10))
	assert.NotEqual(t, c1.buildKey(KindText, "red shoe", 10), c1.buildKey(KindText, "shoe red", 10))
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	c := New(newMemStore(), time.Minute, "b1", nil)
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), KindText, "red", 10, func() (*executor.SearchResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	_, ok := c.Get(context.Background(), KindText, "red", 10)
	assert.False(t, ok)
}

func TestGetOrComputeCollapsesConcurrentMisses(t *testing.T) {
	c := New(newMemStore(), time.Minute, "b1", nil)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (*executor.SearchResult, error) {
		calls.Add(1)
		<-release
		return sampleResult("red"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.GetOrCompute(context.Background(), KindText, "red", 10, compute)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, "b1", nil)
	ctx := context.Background()
	c.Set(ctx, KindText, "red", 10, sampleResult("red"))
	c.Set(ctx, KindImage, "q.jpg", 10, sampleResult("dress"))
	require.Len(t, store.data, 2)

	require.NoError(t, c.Invalidate(ctx))
	assert.Empty(t, store.data)
	_, ok := c.Get(ctx, KindText, "red", 10)
	assert.False(t, ok)
}
