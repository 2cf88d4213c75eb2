package ranker

import "container/heap"

// TopK keeps the best limit documents seen so far. Documents are ordered by
// descending score and, on equal scores, by ascending table slot, which is
// the order a stable sort of the slot-ordered table would give.
type TopK struct {
	limit int
	h     scoredDocHeap
}

func NewTopK(limit int) *TopK {
	if limit < 0 {
		limit = 0
	}
	return &TopK{limit: limit, h: make(scoredDocHeap, 0, limit+1)}
}

func (t *TopK) Push(doc ScoredDoc) {
	if t.limit == 0 {
		return
	}
	heap.Push(&t.h, doc)
	if t.h.Len() > t.limit {
		heap.Pop(&t.h)
	}
}

func (t *TopK) Len() int { return t.h.Len() }

// Sorted drains the heap, best document first.
func (t *TopK) Sorted() []ScoredDoc {
	result := make([]ScoredDoc, t.h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&t.h).(ScoredDoc)
	}
	return result
}

// scoredDocHeap is a min-heap on rank: the root is the worst document kept.
type scoredDocHeap []ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Slot > h[j].Slot
}

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
