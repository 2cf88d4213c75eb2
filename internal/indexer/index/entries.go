package index

import (
	"fmt"
	"strings"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Entry summarises one ingested document. Magnitude is the squared L2 norm
// of the document's TF-IDF vector; the square root is taken at query time.
type Entry struct {
	Slot       int     `json:"slot"`
	DocumentID string  `json:"document_id"`
	Name       string  `json:"name"`
	Magnitude  float64 `json:"magnitude"`
}

// EntryTable is the fixed-capacity document table addressed by document id.
type EntryTable struct {
	mu         sync.RWMutex
	rows       []*Entry
	count      int
	addressing Addressing
}

func NewEntryTable(capacity int, addressing Addressing) *EntryTable {
	return &EntryTable{
		rows:       make([]*Entry, capacity),
		addressing: addressing,
	}
}

// Slot resolves a document id to its table slot and checks it fits the
// table.
func (t *EntryTable) Slot(documentID string) (int, error) {
	slot, err := t.addressing.Slot(documentID)
	if err != nil {
		return 0, err
	}
	if slot < 0 || slot >= len(t.rows) {
		return 0, fmt.Errorf("%w: id %q maps to slot %d, table holds %d",
			apperrors.ErrSlotOutOfRange, documentID, slot, len(t.rows))
	}
	return slot, nil
}

// Put creates the row for a document. An existing row at the same slot is
// overwritten, and replaced reports that it happened.
func (t *EntryTable) Put(documentID, name string) (entry Entry, replaced bool, err error) {
	slot, err := t.Slot(documentID)
	if err != nil {
		return Entry{}, false, err
	}
	row := &Entry{
		Slot:       slot,
		DocumentID: strings.Clone(documentID),
		Name:       strings.Clone(name),
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rows[slot] != nil {
		replaced = true
	} else {
		t.count++
	}
	t.rows[slot] = row
	return *row, replaced, nil
}

// Get returns the row for a document id.
func (t *EntryTable) Get(documentID string) (Entry, bool) {
	slot, err := t.Slot(documentID)
	if err != nil {
		return Entry{}, false
	}
	return t.At(slot)
}

// At returns the row stored at slot.
func (t *EntryTable) At(slot int) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if slot < 0 || slot >= len(t.rows) || t.rows[slot] == nil {
		return Entry{}, false
	}
	return *t.rows[slot], true
}

// AddMagnitude adds v to the squared norm of the row at slot.
func (t *EntryTable) AddMagnitude(slot int, v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if row := t.rows[slot]; row != nil {
		row.Magnitude += v
	}
}

// Each calls fn for every occupied row in slot order.
func (t *EntryTable) Each(fn func(Entry)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, row := range t.rows {
		if row != nil {
			fn(*row)
		}
	}
}

func (t *EntryTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

func (t *EntryTable) Capacity() int {
	return len(t.rows)
}
