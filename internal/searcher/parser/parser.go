package parser

import (
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/tokenizer"
)

// QueryPlan is a parsed free-text query. Normalized is the whole query after
// normalisation; query term frequencies are counted against it.
type QueryPlan struct {
	RawQuery   string
	Normalized string
	Terms      []tokenizer.QueryToken
}

// Parse normalises the query as one string and splits it into its distinct
// terms.
func Parse(query string, analyzer *tokenizer.Analyzer) *QueryPlan {
	normalized, terms := analyzer.Query(query)
	return &QueryPlan{
		RawQuery:   query,
		Normalized: normalized,
		Terms:      terms,
	}
}

// Empty reports whether the query has no terms to score.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}

// TermNames returns the index terms of the plan.
func (p *QueryPlan) TermNames() []string {
	names := make([]string, len(p.Terms))
	for i, t := range p.Terms {
		names[i] = t.Term
	}
	return names
}
