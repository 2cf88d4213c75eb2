package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

func TestHashTerm(t *testing.T) {
	// 'a'+'b' = 97+98
	assert.Equal(t, 195%7, HashTerm("ab", 7))
	assert.Equal(t, HashTerm("ab", 1000), HashTerm("ba", 1000))
	assert.Equal(t, 0, HashTerm("", 13))
	for _, name := range []string{"shoe", "blue", "vestido", "ção"} {
		slot := HashTerm(name, 97)
		assert.GreaterOrEqual(t, slot, 0)
		assert.Less(t, slot, 97)
	}
}

func TestAddressingSlot(t *testing.T) {
	a := Addressing{PartitionOffset: 17688, Marker: 'P'}
	tests := []struct {
		id   string
		want int
	}{
		{"1", 0},
		{"42", 41},
		{"1P", 17688},
		{"42P", 17729},
		{" 7", 6},
		{"12abc", 11},
	}
	for _, tt := range tests {
		got, err := a.Slot(tt.id)
		require.NoError(t, err, tt.id)
		assert.Equal(t, tt.want, got, tt.id)
	}
}

func TestAddressingSlotMalformed(t *testing.T) {
	a := Addressing{PartitionOffset: 10, Marker: 'P'}
	for _, id := range []string{"", "P", "abc", "  ", "-"} {
		_, err := a.Slot(id)
		assert.ErrorIs(t, err, apperrors.ErrMalformedDocumentID, "id %q", id)
	}
}
