package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/feed"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
)

var benchWords = []string{
	"vestido", "longo", "floral", "sapato", "couro", "salto", "blusa", "malha",
	"decote", "calça", "jeans", "saia", "midi", "bolsa", "alça", "preto",
}

func benchExecutor(b *testing.B, n int) *Executor {
	b.Helper()
	e, err := indexer.NewEngine(config.IndexerConfig{
		Capacity:        n,
		TermSlots:       1009,
		PartitionOffset: n / 2,
		PartitionMarker: "P",
	})
	if err != nil {
		b.Fatal(err)
	}
	docs := make(feed.Slice, n)
	for i := range docs {
		text := ""
		for j := 0; j < 12; j++ {
			text += benchWords[(i*5+j*3)%len(benchWords)] + " "
		}
		docs[i] = ingestion.Document{ID: fmt.Sprint(i + 1), Name: fmt.Sprintf("%d.jpg", i+1), Text: text}
	}
	if _, err := e.Build(context.Background(), docs); err != nil {
		b.Fatal(err)
	}
	return New(e, searchCfg)
}

func BenchmarkExecute(b *testing.B) {
	queries := map[string]string{
		"one_term":   "vestido",
		"two_terms":  "vestido longo",
		"repeated":   "saia saia midi",
		"five_terms": "sapato couro salto preto bolsa",
	}
	for _, n := range []int{1000, 10000} {
		ex := benchExecutor(b, n)
		for name, q := range queries {
			b.Run(fmt.Sprintf("docs_%d/%s", n, name), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := ex.Execute(context.Background(), q, 10); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkExecuteParallel(b *testing.B) {
	ex := benchExecutor(b, 5000)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := ex.Execute(context.Background(), "vestido floral", 10); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
