package index

// Posting links a term to one document. Slot is the document's Entry table
// slot, resolved once at ingestion.
type Posting struct {
	DocID     string `json:"doc_id"`
	DocName   string `json:"doc_name"`
	Term      string `json:"term"`
	Slot      int    `json:"slot"`
	Frequency int    `json:"tf"`
}

type PostingList []Posting

// TermEntry is a read-only copy of a term and its postings.
type TermEntry struct {
	Term        string      `json:"term"`
	Slot        int         `json:"slot"`
	Occurrences int         `json:"occurrences"`
	DocFreq     int         `json:"df"`
	IDF         float64     `json:"idf"`
	Postings    PostingList `json:"postings"`
}

// term is the owned, mutable form of a vocabulary entry. Postings keep
// insertion order; byDoc indexes them by document id.
type term struct {
	name        string
	slot        int
	occurrences int
	idf         float64
	postings    []*Posting
	byDoc       map[string]*Posting
}

func (t *term) entry() TermEntry {
	postings := make(PostingList, len(t.postings))
	for i, p := range t.postings {
		postings[i] = *p
	}
	return TermEntry{
		Term:        t.name,
		Slot:        t.slot,
		Occurrences: t.occurrences,
		DocFreq:     len(t.postings),
		IDF:         t.idf,
		Postings:    postings,
	}
}
