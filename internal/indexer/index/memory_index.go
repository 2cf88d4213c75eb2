package index

import (
	"sort"
	"strings"
	"sync"
)

// MemoryIndex is the inverted index: every distinct term owns an ordered
// posting list with at most one posting per document. Terms are addressed by
// name; HashTerm only fixes the slot order used when the vocabulary is
// walked.
type MemoryIndex struct {
	mu       sync.RWMutex
	terms    map[string]*term
	slots    int
	postings int
	size     int64
}

func NewMemoryIndex(slots int) *MemoryIndex {
	return &MemoryIndex{
		terms: make(map[string]*term),
		slots: slots,
	}
}

// Insert records one occurrence of name in document docID. A repeated
// occurrence in the same document increments that posting's frequency;
// the first occurrence in a new document appends a posting and raises the
// document frequency. It reports whether a new posting was created.
func (m *MemoryIndex) Insert(name, docID, docName string, docSlot int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, exists := m.terms[name]
	if !exists {
		name = strings.Clone(name)
		t = &term{
			name:  name,
			slot:  HashTerm(name, m.slots),
			byDoc: make(map[string]*Posting, 1),
		}
		m.terms[name] = t
		m.size += int64(len(name) + 64)
	}
	t.occurrences++

	if p, ok := t.byDoc[docID]; ok {
		p.Frequency++
		return false
	}
	p := &Posting{
		DocID:     strings.Clone(docID),
		DocName:   strings.Clone(docName),
		Term:      t.name,
		Slot:      docSlot,
		Frequency: 1,
	}
	t.postings = append(t.postings, p)
	t.byDoc[p.DocID] = p
	m.postings++
	m.size += int64(len(docID) + len(docName) + 48)
	return true
}

// Lookup returns a copy of the named term, if it has been indexed.
func (m *MemoryIndex) Lookup(name string) (TermEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, exists := m.terms[name]
	if !exists {
		return TermEntry{}, false
	}
	return t.entry(), true
}

// Finalize sets every term's IDF from its document frequency and then hands
// each of its postings to visit, walking terms in slot order.
func (m *MemoryIndex) Finalize(idf func(docFreq int) float64, visit func(p Posting, idf float64)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.ordered() {
		t.idf = idf(len(t.postings))
		for _, p := range t.postings {
			visit(*p, t.idf)
		}
	}
}

// Snapshot returns every term with its postings in slot order, ties broken
// by name.
func (m *MemoryIndex) Snapshot() []TermEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ordered := m.ordered()
	entries := make([]TermEntry, 0, len(ordered))
	for _, t := range ordered {
		entries = append(entries, t.entry())
	}
	return entries
}

func (m *MemoryIndex) ordered() []*term {
	ordered := make([]*term, 0, len(m.terms))
	for _, t := range m.terms {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].slot != ordered[j].slot {
			return ordered[i].slot < ordered[j].slot
		}
		return ordered[i].name < ordered[j].name
	})
	return ordered
}

func (m *MemoryIndex) TermCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.terms)
}

func (m *MemoryIndex) PostingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.postings
}

// Size is a rough estimate of the index's memory footprint in bytes.
func (m *MemoryIndex) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}
