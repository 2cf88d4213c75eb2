package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Shoe", "shoe"},
		{"shoe.", "shoe"},
		{",Shoe", "shoe"},
		{".shoe,", "shoe"},
		{"..shoe", ".shoe"},
		{"shoe,,", "shoe,"},
		{"RED SHOE.", "red shoe"},
		{"a,b", "a,b"},
		{".", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestTokenizeNormalizesEachToken(t *testing.T) {
	a := New(false)
	tokens := a.Tokenize("Blue  SHOE, shoe.\tLeather")
	terms := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		assert.Equal(t, i, tok.Position)
		terms = append(terms, tok.Term)
	}
	assert.Equal(t, []string{"blue", "shoe", "shoe", "leather"}, terms)
}

func TestTokenizeDropsEmptyTerms(t *testing.T) {
	a := New(false)
	tokens := a.Tokenize(". , red")
	assert.Len(t, tokens, 1)
	assert.Equal(t, "red", tokens[0].Term)
}

func TestQueryNormalizesWholeString(t *testing.T) {
	a := New(false)
	normalized, tokens := a.Query("Red shoe, Blue SHOE.")
	assert.Equal(t, "red shoe, blue shoe", normalized)
	// Inner punctuation is kept because only the string edges are stripped.
	assert.Equal(t, []QueryToken{
		{Raw: "red", Term: "red"},
		{Raw: "shoe,", Term: "shoe,"},
		{Raw: "blue", Term: "blue"},
		{Raw: "shoe", Term: "shoe"},
	}, tokens)
}

func TestQueryDistinctTokens(t *testing.T) {
	a := New(false)
	_, tokens := a.Query("shoe shoe shoe")
	assert.Equal(t, []QueryToken{{Raw: "shoe", Term: "shoe"}}, tokens)
}

func TestQueryEmpty(t *testing.T) {
	a := New(false)
	normalized, tokens := a.Query("   ")
	assert.Equal(t, "   ", normalized)
	assert.Empty(t, tokens)
}

func TestStemming(t *testing.T) {
	a := New(true)
	assert.Equal(t, "shoe", a.Term("Shoes"))
	_, tokens := a.Query("running shoes")
	assert.Equal(t, "run", tokens[0].Term)
	assert.Equal(t, "running", tokens[0].Raw)
}
