package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinspace(t *testing.T) {
	x := Linspace(-1, 1, 5)
	assert.InDeltaSlice(t, []float64{-1, -.5, 0, .5, 1}, x, 1.e-15)

	x = Linspace(-1, 1, 200)
	assert.Len(t, x, 200)
	assert.Equal(t, -1.0, x[0])
	assert.Equal(t, 1.0, x[199])

	assert.Nil(t, Linspace(0, 1, 0))
	assert.Equal(t, []float64{3}, Linspace(3, 4, 1))
}

func TestFind(t *testing.T) {
	a := []float64{-1, -.5, 0, .5, 1}
	tests := []struct {
		val     float64
		wantVal float64
		wantIdx int
	}{
		{-5, -1, 0},
		{5, 1, 4},
		{.1, 0, 2},
		{.26, .5, 3},
		{-.74, -.5, 1},
		// Tie goes to the lower index like an argmin
		{.25, 0, 2},
		{1, 1, 4},
	}
	for _, tt := range tests {
		v, idx := Find(a, tt.val)
		assert.Equal(t, tt.wantIdx, idx, "val=%v", tt.val)
		assert.Equal(t, tt.wantVal, v, "val=%v", tt.val)
	}

	_, idx := Find(nil, 1)
	assert.Equal(t, -1, idx)
}

func TestFindMatchesArgmin(t *testing.T) {
	a := Linspace(-1, 1, 37)
	for _, val := range Linspace(-1.2, 1.2, 301) {
		best := 0
		for i := range a {
			if abs(a[i]-val) < abs(a[best]-val) {
				best = i
			}
		}
		assert.Equal(t, best, FindIndex(a, val), "val=%v", val)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
