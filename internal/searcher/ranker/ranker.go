// Package ranker scores a parsed query against the index with the cosine
// measure of the vector-space model and selects the top results.
package ranker

import (
	"math"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/weight"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/parser"
)

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Slot  int     `json:"-"`
}

// Index is the read side of a finalized engine.
type Index interface {
	Lookup(term string) (index.TermEntry, bool)
	EntryAt(slot int) (index.Entry, bool)
}

// Ranking is the outcome of scoring one query.
type Ranking struct {
	Docs      []ScoredDoc
	TotalHits int
	TermStats map[string]int
}

// Rank scores every document that shares a term with the query. For each
// distinct query term found in the index, each posting contributes
// idf*TF(tf) * idf*TF(qtf) to its document's accumulator, where qtf counts
// the term in the normalised query text. A document's score is its
// accumulator divided by the square root of its magnitude; the query norm
// is left out since it is the same for every candidate. Unknown terms
// contribute nothing. The accumulator is local to the call.
func Rank(plan *parser.QueryPlan, idx Index, limit int) Ranking {
	ranking := Ranking{TermStats: make(map[string]int)}
	if plan.Empty() {
		return ranking
	}
	acc := make(map[int]float64)
	for _, qt := range plan.Terms {
		entry, ok := idx.Lookup(qt.Term)
		if !ok {
			continue
		}
		ranking.TermStats[qt.Term] = entry.DocFreq
		queryWeight := entry.IDF * weight.TF(QueryTermFrequency(plan.Normalized, qt.Raw))
		for _, p := range entry.Postings {
			acc[p.Slot] += entry.IDF * weight.TF(p.Frequency) * queryWeight
		}
	}
	ranking.TotalHits = len(acc)

	top := NewTopK(limit)
	for slot, sum := range acc {
		e, ok := idx.EntryAt(slot)
		if !ok {
			continue
		}
		top.Push(ScoredDoc{
			DocID: e.DocumentID,
			Name:  e.Name,
			Score: Cosine(sum, e.Magnitude),
			Slot:  slot,
		})
	}
	ranking.Docs = top.Sorted()
	return ranking
}

// Cosine divides the accumulated dot product by the document norm, the
// square root of magnitude. A zero-magnitude document scores 0.
func Cosine(sum, magnitude float64) float64 {
	if magnitude <= 0 {
		return 0
	}
	return sum / math.Sqrt(magnitude)
}

// QueryTermFrequency counts non-overlapping occurrences of token in query.
// Matching is by substring, so "shoe" is also counted inside "shoemaker".
func QueryTermFrequency(query, token string) int {
	if token == "" {
		return 0
	}
	return strings.Count(query, token)
}
