package evaluation

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Query is one entry of an evaluation batch. Number is 1-based and keys the
// relevance judgments. Image, when set, is searched through the feature
// extractor instead of Text.
type Query struct {
	Number int    `yaml:"number" json:"number" validate:"gt=0"`
	Text   string `yaml:"text" json:"text,omitempty"`
	Image  string `yaml:"image" json:"image,omitempty"`
}

// Judgments supplies the relevant document names of a query. A query
// without judgments has an empty set; an error means the source itself
// failed.
type Judgments interface {
	Relevant(ctx context.Context, queryNumber int) (RelevantSet, error)
}

// Store is a judgment source that also holds the query batch.
type Store interface {
	Judgments
	Queries(ctx context.Context) ([]Query, error)
}

// judgmentFile is the YAML layout of a judgment file:
//
//	queries:
//	  - number: 1
//	    text: vestido longo
//	    relevant: [12.jpg, 40.jpg]
//	  - number: 2
//	    image: queries/2.jpg
//	    relevant: [7.jpg]
type judgmentFile struct {
	Queries []struct {
		Query    `yaml:",inline"`
		Relevant []string `yaml:"relevant"`
	} `yaml:"queries"`
}

// FileStore is a Store read once from a YAML file.
type FileStore struct {
	queries  []Query
	relevant map[int]RelevantSet
}

// LoadFile reads a judgment file. A missing or malformed file fails with
// ErrJudgmentsUnavailable.
func LoadFile(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrJudgmentsUnavailable, path, err)
	}
	return ParseFile(data)
}

// ParseFile builds a FileStore from the YAML contents of a judgment file.
func ParseFile(data []byte) (*FileStore, error) {
	var f judgmentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing judgments: %v", apperrors.ErrJudgmentsUnavailable, err)
	}
	s := &FileStore{relevant: make(map[int]RelevantSet, len(f.Queries))}
	for _, q := range f.Queries {
		if q.Number <= 0 {
			return nil, fmt.Errorf("%w: query number %d is not positive", apperrors.ErrJudgmentsUnavailable, q.Number)
		}
		if _, dup := s.relevant[q.Number]; dup {
			return nil, fmt.Errorf("%w: query %d listed twice", apperrors.ErrJudgmentsUnavailable, q.Number)
		}
		s.queries = append(s.queries, q.Query)
		s.relevant[q.Number] = NewRelevantSet(q.Relevant...)
	}
	sort.Slice(s.queries, func(i, j int) bool { return s.queries[i].Number < s.queries[j].Number })
	return s, nil
}

func (s *FileStore) Queries(ctx context.Context) ([]Query, error) {
	out := make([]Query, len(s.queries))
	copy(out, s.queries)
	return out, nil
}

func (s *FileStore) Relevant(ctx context.Context, queryNumber int) (RelevantSet, error) {
	if set, ok := s.relevant[queryNumber]; ok {
		return set, nil
	}
	return RelevantSet{}, nil
}

// Judged returns every query with its relevant names, for import into
// another store.
func (s *FileStore) Judged() map[int][]string {
	out := make(map[int][]string, len(s.relevant))
	for n, set := range s.relevant {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		out[n] = names
	}
	return out
}

// StaticJudgments is an in-memory Judgments keyed by query number.
type StaticJudgments map[int]RelevantSet

// NewRelevantJudgments builds StaticJudgments from name lists.
func NewRelevantJudgments(byQuery map[int][]string) StaticJudgments {
	j := make(StaticJudgments, len(byQuery))
	for n, names := range byQuery {
		j[n] = NewRelevantSet(names...)
	}
	return j
}

func (j StaticJudgments) Relevant(ctx context.Context, queryNumber int) (RelevantSet, error) {
	if set, ok := j[queryNumber]; ok {
		return set, nil
	}
	return RelevantSet{}, nil
}
