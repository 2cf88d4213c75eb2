// Package weight holds the TF-IDF weighting shared by the statistics pass
// and query scoring.
package weight

import "math"

// IDF returns ln(n/df), or 0 when df is 0.
func IDF(n, df int) float64 {
	if df == 0 {
		return 0
	}
	return math.Log(float64(n) / float64(df))
}

// TF returns the augmented term-frequency weight 1+ln(count), or 0 when
// count is 0.
func TF(count int) float64 {
	if count == 0 {
		return 0
	}
	return 1 + math.Log(float64(count))
}
