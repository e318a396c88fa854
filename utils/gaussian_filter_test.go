package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestGaussianKernel(t *testing.T) {
	k := GaussianKernel(10)
	assert.Len(t, k, 81)
	assert.InDelta(t, 1.0, floats.Sum(k), 1.e-14)
	for i := range k {
		assert.InDelta(t, k[i], k[len(k)-1-i], 1.e-18)
	}
	assert.Equal(t, []float64{1}, GaussianKernel(0))
	assert.Len(t, GaussianKernel(3), 25)
}

func TestGaussianFilterImpulse(t *testing.T) {
	src := mat.NewDense(61, 61, nil)
	src.Set(30, 30, 1)
	out := GaussianFilter(src, 3, 3)

	// Interior impulse keeps its mass and stays centred
	assert.InDelta(t, 1.0, mat.Sum(out), 1.e-12)
	peak := out.At(30, 30)
	for i := 0; i < 61; i++ {
		for j := 0; j < 61; j++ {
			assert.LessOrEqual(t, out.At(i, j), peak)
		}
	}
	assert.InDelta(t, out.At(27, 30), out.At(33, 30), 1.e-15)
	assert.InDelta(t, out.At(30, 27), out.At(27, 30), 1.e-15)

	// Beyond the truncated kernel nothing leaks
	assert.Equal(t, 0.0, out.At(30, 30+13))
	assert.Equal(t, 0.0, src.At(30, 31), "source must not change")
}

func TestGaussianFilterZeroAndEdges(t *testing.T) {
	zero := GaussianFilter(mat.NewDense(20, 30, nil), 10, 10)
	r, c := zero.Dims()
	require.Equal(t, 20, r)
	require.Equal(t, 30, c)
	assert.Equal(t, 0.0, mat.Sum(zero))

	// Constant padding loses mass at the border
	src := mat.NewDense(10, 10, nil)
	src.Set(0, 0, 1)
	assert.Less(t, mat.Sum(GaussianFilter(src, 2, 2)), 1.0)

	// Single axis blur
	src = mat.NewDense(5, 21, nil)
	src.Set(2, 10, 1)
	out := GaussianFilter(src, 0, 2)
	assert.Equal(t, 0.0, out.At(1, 10))
	assert.InDelta(t, 1.0, mat.Sum(out.RowView(2)), 1.e-14)
}
