// Package evaluation measures ranking quality against relevance judgments
// with Precision@10 and Mean Average Precision.
package evaluation

// RelevantSet holds the display names judged relevant for one query.
type RelevantSet map[string]struct{}

func NewRelevantSet(names ...string) RelevantSet {
	s := make(RelevantSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s RelevantSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// PrecisionAtRank is the fraction of the first k ranked names that are
// relevant. Ranks past the end of ranked count as misses, so the result is
// always divided by k. It is 0 for k <= 0.
func PrecisionAtRank(k int, relevant RelevantSet, ranked []string) float64 {
	if k <= 0 {
		return 0
	}
	n := k
	if n > len(ranked) {
		n = len(ranked)
	}
	hits := 0
	for _, name := range ranked[:n] {
		if relevant.Contains(name) {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// AveragePrecision adds PrecisionAtRank(i) for every relevant result at rank
// i within the first topK, and divides by the number of relevant documents,
// found or not. It is 0 when nothing is relevant.
func AveragePrecision(relevant RelevantSet, ranked []string, topK int) float64 {
	if len(relevant) == 0 {
		return 0
	}
	n := topK
	if n > len(ranked) {
		n = len(ranked)
	}
	var sum float64
	for i := 1; i <= n; i++ {
		if relevant.Contains(ranked[i-1]) {
			sum += PrecisionAtRank(i, relevant, ranked)
		}
	}
	return sum / float64(len(relevant))
}
