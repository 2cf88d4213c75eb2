// Command loadtest replays evaluation queries against a running searcher
// and reports throughput, latency percentiles and how many queries came
// back empty.
//
// Usage:
//
//	go run ./cmd/loadtest [-url http://localhost:8080] [-judgments dataset/judgments.yaml] [-concurrency 10] [-duration 30s]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
)

var fallbackQueries = []string{
	"vestido longo",
	"sapato couro",
	"blusa malha",
	"calça jeans",
	"saia midi",
	"bolsa preta",
	"sandália salto",
	"camisa social",
	"tênis corrida",
	"vestido floral",
}

type Stats struct {
	total      atomic.Int64
	success    atomic.Int64
	failed     atomic.Int64
	zeroResult atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies: make([]time.Duration, 0, 100000),
		codes:     make(map[int]int64),
	}
}

// Record counts one request. hits is the total_hits of a successful search.
func (s *Stats) Record(d time.Duration, code int, hits int, err error) {
	s.total.Add(1)
	if err != nil {
		s.failed.Add(1)
		return
	}
	if code >= 200 && code < 300 {
		s.success.Add(1)
		if hits == 0 {
			s.zeroResult.Add(1)
		}
	} else {
		s.failed.Add(1)
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.codes[code]++
	s.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	judgments := flag.String("judgments", "", "judgment file to take queries from")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	limit := flag.Int("limit", 10, "results per query")
	flag.Parse()

	queries, err := loadQueries(*judgments)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load queries: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Vector Space Search Load Test ===")
	fmt.Printf("Target:      %s\n", *baseURL)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Printf("Queries:     %d unique\n\n", len(queries))

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	stats := run(ctx, *baseURL, queries, *concurrency, *limit)
	if !printReport(os.Stdout, stats, *duration) {
		os.Exit(1)
	}
}

func loadQueries(path string) ([]string, error) {
	if path == "" {
		return fallbackQueries, nil
	}
	store, err := evaluation.LoadFile(path)
	if err != nil {
		return nil, err
	}
	batch, err := store.Queries(context.Background())
	if err != nil {
		return nil, err
	}
	var out []string
	for _, q := range batch {
		if q.Text != "" {
			out = append(out, q.Text)
		}
	}
	if len(out) == 0 {
		return fallbackQueries, nil
	}
	return out, nil
}

func run(ctx context.Context, baseURL string, queries []string, concurrency, limit int) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	var g errgroup.Group
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				q := queries[i%len(queries)]
				target := fmt.Sprintf("%s/api/v1/search?q=%s&limit=%d", baseURL, url.QueryEscape(q), limit)
				start := time.Now()
				code, hits, err := search(ctx, client, target)
				if ctx.Err() != nil {
					return nil
				}
				stats.Record(time.Since(start), code, hits, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return stats
}

func search(ctx context.Context, client *http.Client, target string) (int, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, 0, nil
	}
	var body struct {
		TotalHits int `json:"total_hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return resp.StatusCode, 0, err
	}
	return resp.StatusCode, body.TotalHits, nil
}

// printReport writes the summary and reports whether any request completed.
func printReport(w io.Writer, stats *Stats, duration time.Duration) bool {
	total := stats.total.Load()
	failed := stats.failed.Load()

	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", total)
	fmt.Fprintf(w, "Successful:      %d\n", stats.success.Load())
	fmt.Fprintf(w, "Zero results:    %d\n", stats.zeroResult.Load())
	fmt.Fprintf(w, "Errors:          %d\n", failed)
	if total > 0 {
		fmt.Fprintf(w, "Error Rate:      %.2f%%\n", float64(failed)/float64(total)*100)
		fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	}

	stats.mu.Lock()
	latencies := append([]time.Duration(nil), stats.latencies...)
	codes := make([]int, 0, len(stats.codes))
	for code := range stats.codes {
		codes = append(codes, code)
	}
	counts := make(map[int]int64, len(stats.codes))
	for code, n := range stats.codes {
		counts[code] = n
	}
	stats.mu.Unlock()

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))
		var sq float64
		for _, l := range latencies {
			d := float64(l - avg)
			sq += d * d
		}
		fmt.Fprintln(w, "\n=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", latencies[0])
		fmt.Fprintf(w, "Avg:    %s\n", avg)
		for _, p := range []float64{50, 90, 95, 99} {
			fmt.Fprintf(w, "P%-2.0f:    %s\n", p, percentile(latencies, p))
		}
		fmt.Fprintf(w, "Max:    %s\n", latencies[len(latencies)-1])
		fmt.Fprintf(w, "StdDev: %s\n", time.Duration(math.Sqrt(sq/float64(len(latencies)))))
	}

	sort.Ints(codes)
	fmt.Fprintln(w, "\n=== Status Codes ===")
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, counts[code])
	}
	if total == 0 {
		fmt.Fprintln(w, "\nWARNING: No requests completed. Is the searcher running?")
		return false
	}
	return true
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
