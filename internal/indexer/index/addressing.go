package index

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// HashTerm maps a term to one of slots buckets by summing its code points.
func HashTerm(name string, slots int) int {
	sum := 0
	for _, r := range name {
		sum += int(r)
	}
	return sum % slots
}

// Addressing turns document ids into Entry table slots. An id is a decimal
// integer, optionally followed by other characters; a trailing Marker moves
// the id into the second partition that starts at PartitionOffset, so two
// collections numbered from 1 can share one table.
type Addressing struct {
	PartitionOffset int
	Marker          byte
}

// Slot returns the table slot for id: its leading integer minus one, plus
// PartitionOffset when the id ends with Marker. Two ids may map to the same
// slot; keeping them apart is up to the feed.
func (a Addressing) Slot(id string) (int, error) {
	n, err := leadingInt(id)
	if err != nil {
		return 0, err
	}
	slot := n - 1
	if id[len(id)-1] == a.Marker {
		slot += a.PartitionOffset
	}
	return slot, nil
}

// leadingInt parses the decimal integer at the start of s, accepting leading
// whitespace and a sign the way C's atoi does.
func leadingInt(s string) (int, error) {
	t := strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(t) && (t[end] == '+' || t[end] == '-') {
		end++
	}
	digits := end
	for end < len(t) && t[end] >= '0' && t[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, fmt.Errorf("%w: %q has no leading integer", apperrors.ErrMalformedDocumentID, s)
	}
	n, err := strconv.Atoi(t[:end])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", apperrors.ErrMalformedDocumentID, s, err)
	}
	return n, nil
}
