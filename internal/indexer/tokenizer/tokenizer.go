// Package tokenizer turns document descriptions and queries into index terms.
// Text is split on whitespace; a term is normalised by dropping one leading
// and one trailing '.' or ',' and lower-casing it. Documents are normalised
// token by token while a query is normalised once as a whole string before
// it is split, so punctuation inside a query survives into its tokens.
package tokenizer

import (
	"strings"

	"github.com/kljensen/snowball/english"
)

// Token represents a single normalised term and its position in the
// original text.
type Token struct {
	Term     string
	Position int
}

// QueryToken is a distinct query term together with the raw (unstemmed)
// token it came from. Raw is what query term frequency is counted with.
type QueryToken struct {
	Raw  string
	Term string
}

// Analyzer applies the normalisation rules and, optionally, English
// stemming.
type Analyzer struct {
	stem bool
}

// New returns an Analyzer. With stem set, every term is additionally reduced
// with the snowball English stemmer on both the index and the query side.
func New(stem bool) *Analyzer {
	return &Analyzer{stem: stem}
}

// Normalize strips a single leading and a single trailing '.' or ',' from
// text and lower-cases the remainder.
func Normalize(text string) string {
	if text != "" && isEdgePunct(text[0]) {
		text = text[1:]
	}
	if text != "" && isEdgePunct(text[len(text)-1]) {
		text = text[:len(text)-1]
	}
	return strings.ToLower(text)
}

func isEdgePunct(c byte) bool {
	return c == '.' || c == ','
}

// Tokenize splits a document description on whitespace and normalises every
// token on its own. Tokens that normalise to nothing are dropped.
func (a *Analyzer) Tokenize(text string) []Token {
	words := strings.Fields(text)
	tokens := make([]Token, 0, len(words))
	pos := 0
	for _, word := range words {
		term := a.term(Normalize(word))
		if term == "" {
			continue
		}
		tokens = append(tokens, Token{
			Term:     term,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// Term normalises a single word the way Tokenize does.
func (a *Analyzer) Term(word string) string {
	return a.term(Normalize(word))
}

// Query normalises the whole query once, splits it on whitespace and returns
// the normalised query text together with its distinct tokens in first-seen
// order.
func (a *Analyzer) Query(query string) (string, []QueryToken) {
	normalized := Normalize(query)
	words := strings.Fields(normalized)
	seen := make(map[string]struct{}, len(words))
	tokens := make([]QueryToken, 0, len(words))
	for _, word := range words {
		term := a.term(word)
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		tokens = append(tokens, QueryToken{Raw: word, Term: term})
	}
	return normalized, tokens
}

func (a *Analyzer) term(word string) string {
	if !a.stem || word == "" {
		return word
	}
	return english.Stem(word, false)
}
