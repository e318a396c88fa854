package utils

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Linspace returns n evenly spaced samples over [lo, hi], endpoints included
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// Find returns the entry of a closest to val and its index. a must be sorted
// ascending. On an exact tie between two neighbours the lower index wins, which
// matches an argmin over |a - val|.
func Find(a []float64, val float64) (float64, int) {
	idx := FindIndex(a, val)
	if idx < 0 {
		return math.NaN(), -1
	}
	return a[idx], idx
}

// FindIndex is Find without the value
func FindIndex(a []float64, val float64) int {
	n := len(a)
	if n == 0 {
		return -1
	}
	if math.IsNaN(val) {
		return 0
	}
	hi := sort.SearchFloat64s(a, val)
	switch {
	case hi == 0:
		return 0
	case hi == n:
		return n - 1
	}
	lo := hi - 1
	if math.Abs(a[hi]-val) < math.Abs(a[lo]-val) {
		return hi
	}
	return lo
}
