// Package indexer builds the vector-space index: it tokenizes feed documents
// into the inverted index, registers every document in the Entry table and,
// once all documents are in, computes IDF and document magnitudes in one
// statistics pass. After that pass the engine is frozen and only serves
// reads.
package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/weight"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

type Engine struct {
	memIndex    *index.MemoryIndex
	entries     *index.EntryTable
	analyzer    *tokenizer.Analyzer
	cfg         config.IndexerConfig
	logger      *slog.Logger
	mu          sync.RWMutex
	frozen      bool
	ingested    int
	totalTokens int64
}

func NewEngine(cfg config.IndexerConfig) (*Engine, error) {
	if cfg.Capacity <= 0 || cfg.TermSlots <= 0 {
		return nil, fmt.Errorf("%w: capacity=%d termSlots=%d", apperrors.ErrInvalidInput, cfg.Capacity, cfg.TermSlots)
	}
	if len(cfg.PartitionMarker) != 1 {
		return nil, fmt.Errorf("%w: partition marker %q", apperrors.ErrInvalidInput, cfg.PartitionMarker)
	}
	addressing := index.Addressing{
		PartitionOffset: cfg.PartitionOffset,
		Marker:          cfg.PartitionMarker[0],
	}
	return &Engine{
		memIndex: index.NewMemoryIndex(cfg.TermSlots),
		entries:  index.NewEntryTable(cfg.Capacity, addressing),
		analyzer: tokenizer.New(cfg.Stem),
		cfg:      cfg,
		logger:   slog.Default().With("component", "indexer"),
	}, nil
}

// IngestDocument registers a document in the Entry table and adds one
// posting occurrence per token of text. It fails with ErrCapacityReached
// once capacity documents have been ingested and with ErrIndexFrozen after
// FinalizeStatistics.
func (e *Engine) IngestDocument(docID string, name string, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.frozen {
		return apperrors.ErrIndexFrozen
	}
	if e.ingested >= e.entries.Capacity() {
		return fmt.Errorf("%w: %d documents", apperrors.ErrCapacityReached, e.ingested)
	}
	entry, replaced, err := e.entries.Put(docID, name)
	if err != nil {
		return fmt.Errorf("registering document %q: %w", docID, err)
	}
	if replaced {
		e.logger.Warn("document slot overwritten", "doc_id", docID, "slot", entry.Slot)
	}

	tokens := e.analyzer.Tokenize(text)
	newPostings := 0
	for _, token := range tokens {
		if e.memIndex.Insert(token.Term, entry.DocumentID, entry.Name, entry.Slot) {
			newPostings++
		}
	}
	e.ingested++
	e.totalTokens += int64(len(tokens))
	e.logger.Debug("document indexed in memory",
		"doc_id", docID,
		"slot", entry.Slot,
		"token_count", len(tokens),
		"new_postings", newPostings,
		"mem_size", e.memIndex.Size(),
	)
	return nil
}

// FinalizeStatistics computes every term's IDF as ln(capacity/df) and adds
// (idf * (1+ln tf))^2 for each posting to its document's magnitude. It runs
// once; the engine is frozen afterwards.
func (e *Engine) FinalizeStatistics() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.frozen {
		return apperrors.ErrIndexFrozen
	}
	n := e.entries.Capacity()
	e.memIndex.Finalize(
		func(docFreq int) float64 { return weight.IDF(n, docFreq) },
		func(p index.Posting, idf float64) {
			w := idf * weight.TF(p.Frequency)
			e.entries.AddMagnitude(p.Slot, w*w)
		},
	)
	e.frozen = true
	e.logger.Info("index statistics finalized",
		"documents", e.ingested,
		"terms", e.memIndex.TermCount(),
		"postings", e.memIndex.PostingCount(),
	)
	return nil
}

// full reports whether the Entry table holds capacity documents.
func (e *Engine) full() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ingested >= e.entries.Capacity()
}

// Ready reports whether the statistics pass has run.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.frozen
}

func (e *Engine) Analyzer() *tokenizer.Analyzer {
	return e.analyzer
}

// Lookup returns the term and its postings.
func (e *Engine) Lookup(term string) (index.TermEntry, bool) {
	return e.memIndex.Lookup(term)
}

// EntryAt returns the Entry stored at slot.
func (e *Engine) EntryAt(slot int) (index.Entry, bool) {
	return e.entries.At(slot)
}

// Entry returns the Entry for a document id.
func (e *Engine) Entry(docID string) (index.Entry, bool) {
	return e.entries.Get(docID)
}

// Vocabulary returns every term with its postings in table-slot order.
func (e *Engine) Vocabulary() []index.TermEntry {
	return e.memIndex.Snapshot()
}

// Stats summarises the index.
type Stats struct {
	Documents   int     `json:"documents"`
	Capacity    int     `json:"capacity"`
	Terms       int     `json:"terms"`
	Postings    int     `json:"postings"`
	TotalTokens int64   `json:"total_tokens"`
	AvgDocLen   float64 `json:"avg_doc_length"`
	SizeBytes   int64   `json:"size_bytes"`
	Ready       bool    `json:"ready"`
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := Stats{
		Documents:   e.entries.Len(),
		Capacity:    e.entries.Capacity(),
		Terms:       e.memIndex.TermCount(),
		Postings:    e.memIndex.PostingCount(),
		TotalTokens: e.totalTokens,
		SizeBytes:   e.memIndex.Size(),
		Ready:       e.frozen,
	}
	if e.ingested > 0 {
		s.AvgDocLen = float64(e.totalTokens) / float64(e.ingested)
	}
	return s
}

// Fingerprint identifies the built index by the documents it holds and the
// configuration it was built with. Two builds of the same feed under the same
// configuration share a fingerprint.
func (e *Engine) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%d|%s|%t\n",
		e.cfg.Capacity, e.cfg.TermSlots, e.cfg.PartitionOffset, e.cfg.PartitionMarker, e.cfg.Stem)
	e.mu.RLock()
	e.entries.Each(func(en index.Entry) {
		fmt.Fprintf(h, "%s|%s|%d\n", en.DocumentID, en.Name, en.Slot)
	})
	fmt.Fprintf(h, "%d|%d", e.memIndex.PostingCount(), e.totalTokens)
	e.mu.RUnlock()
	return hex.EncodeToString(h.Sum(nil))[:12]
}
