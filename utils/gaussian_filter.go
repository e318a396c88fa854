package utils

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// KernelTruncate is the half width of the gaussian kernel in units of sigma
const KernelTruncate = 4.0

// GaussianKernel returns the normalized 1D gaussian weights for sigma,
// spanning [-r, r] with r = int(KernelTruncate*sigma + 0.5)
func GaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	r := int(KernelTruncate*sigma + 0.5)
	w := make([]float64, 2*r+1)
	var sum float64
	for i := -r; i <= r; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		w[i+r] = v
		sum += v
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// GaussianFilter blurs src with a separable gaussian of width sigmaRow along
// the row index and sigmaCol along the column index. Samples outside the
// matrix are treated as zero. A non-positive sigma leaves that axis untouched.
// src is not modified.
func GaussianFilter(src mat.Matrix, sigmaRow, sigmaCol float64) *mat.Dense {
	rows, cols := src.Dims()
	out := mat.DenseCopyOf(src)
	if sigmaCol > 0 {
		k := GaussianKernel(sigmaCol)
		line := make([]float64, cols)
		for i := 0; i < rows; i++ {
			mat.Row(line, i, out)
			out.SetRow(i, convolve(line, k))
		}
	}
	if sigmaRow > 0 {
		k := GaussianKernel(sigmaRow)
		line := make([]float64, rows)
		for j := 0; j < cols; j++ {
			mat.Col(line, j, out)
			out.SetCol(j, convolve(line, k))
		}
	}
	return out
}

// convolve applies the symmetric kernel k to line with zero padding
func convolve(line, k []float64) []float64 {
	var (
		n   = len(line)
		r   = len(k) / 2
		res = make([]float64, n)
	)
	for i, v := range line {
		if v == 0 {
			continue
		}
		lo, hi := i-r, i+r
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		for j := lo; j <= hi; j++ {
			res[j] += v * k[j-i+r]
		}
	}
	return res
}
