// Package eigen diagonalizes the small dense Hermitian matrices produced by
// the tight binding models.
//
// gonum's LAPACK surface is real valued, so an n x n Hermitian H = R + iI is
// lifted to the 2n x 2n real symmetric matrix
//
//	S = | R  -I |
//	    | I   R |
//
// Every eigenvalue of H appears twice in S, and an eigenvector (u, v) of S maps
// to the eigenvector u + iv of H. Inside a degenerate subspace any orthonormal
// basis may come back; callers must not rely on a particular one.
package eigen

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotSquare    = errors.New("eigen: matrix is not square")
	ErrNotHermitian = errors.New("eigen: matrix is not hermitian")
	ErrNoConverge   = errors.New("eigen: factorization failed")
)

// HermitianTol bounds |H[i][j] - conj(H[j][i])| accepted as Hermitian
const HermitianTol = 1.e-12

// Decomposition holds ascending eigenvalues and the matching orthonormal
// eigenvectors as columns
type Decomposition struct {
	Values  []float64
	Vectors *mat.CDense
}

// Len is the matrix dimension
func (d *Decomposition) Len() int { return len(d.Values) }

// Vector copies column n
func (d *Decomposition) Vector(n int) []complex128 {
	v := make([]complex128, len(d.Values))
	for i := range v {
		v[i] = d.Vectors.At(i, n)
	}
	return v
}

// Values returns the ascending eigenvalues of h
func Values(h mat.CMatrix) ([]float64, error) {
	s, err := embed(h)
	if err != nil {
		return nil, err
	}
	var es mat.EigenSym
	if ok := es.Factorize(s, false); !ok {
		return nil, ErrNoConverge
	}
	return pairValues(es.Values(nil)), nil
}

// Decompose returns the ascending eigenvalues of h with eigenvectors
func Decompose(h mat.CMatrix) (*Decomposition, error) {
	s, err := embed(h)
	if err != nil {
		return nil, err
	}
	var es mat.EigenSym
	if ok := es.Factorize(s, true); !ok {
		return nil, ErrNoConverge
	}
	var (
		vals = es.Values(nil)
		vecs mat.Dense
	)
	es.VectorsTo(&vecs)
	return lift(vals, &vecs), nil
}

// embed validates h and builds the real symmetric lift
func embed(h mat.CMatrix) (*mat.SymDense, error) {
	n, c := h.Dims()
	if n != c {
		return nil, fmt.Errorf("%w: %dx%d", ErrNotSquare, n, c)
	}
	s := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			hij := h.At(i, j)
			if j >= i {
				if d := cmplx.Abs(hij - cmplx.Conj(h.At(j, i))); d > HermitianTol {
					return nil, fmt.Errorf("%w: |H[%d][%d]-conj(H[%d][%d])|=%g",
						ErrNotHermitian, i, j, j, i, d)
				}
				s.SetSym(i, j, real(hij))
				s.SetSym(n+i, n+j, real(hij))
			}
			s.SetSym(i, n+j, -imag(hij))
		}
	}
	return s, nil
}

// pairValues collapses the doubled spectrum of the lift
func pairValues(vals []float64) []float64 {
	out := make([]float64, len(vals)/2)
	for k := range out {
		out[k] = 0.5 * (vals[2*k] + vals[2*k+1])
	}
	return out
}

// lift recovers n complex eigenvectors from the 2n real ones. Real vectors are
// grouped into clusters of equal eigenvalue; each cluster of size 2m spans an
// m dimensional complex subspace, from which an orthonormal basis is picked
// with a greedy Gram-Schmidt.
func lift(vals []float64, vecs *mat.Dense) *Decomposition {
	var (
		n2   = len(vals)
		n    = n2 / 2
		tol  = clusterTol(vals)
		out  = &Decomposition{Values: make([]float64, n), Vectors: mat.NewCDense(n, n, nil)}
		col  = 0
		cand = make([][]complex128, 0, n2)
	)
	for start := 0; start < n2 && col < n; {
		end := start + 1
		for end < n2 && vals[end]-vals[end-1] <= tol {
			end++
		}
		m := (end - start + 1) / 2
		if m > n-col {
			m = n - col
		}
		var mean float64
		for k := start; k < end; k++ {
			mean += vals[k]
		}
		mean /= float64(end - start)

		cand = cand[:0]
		for k := start; k < end; k++ {
			psi := make([]complex128, n)
			for i := 0; i < n; i++ {
				psi[i] = complex(vecs.At(i, k), vecs.At(n+i, k))
			}
			cand = append(cand, psi)
		}
		for _, psi := range orthonormalize(cand, m) {
			out.Values[col] = mean
			for i, z := range psi {
				out.Vectors.Set(i, col, z)
			}
			col++
		}
		start = end
	}
	return out
}

func clusterTol(vals []float64) float64 {
	scale := 1.0
	for _, v := range vals {
		if a := math.Abs(v); a > scale {
			scale = a
		}
	}
	return 1.e-10 * scale
}

// orthonormalize picks m orthonormal vectors from the span of cand, at each
// step taking the candidate with the largest residual
func orthonormalize(cand [][]complex128, m int) [][]complex128 {
	var (
		basis = make([][]complex128, 0, m)
		res   = make([][]complex128, len(cand))
	)
	for k := range cand {
		res[k] = append([]complex128(nil), cand[k]...)
	}
	for len(basis) < m {
		best, bestNorm := -1, 0.0
		for k, r := range res {
			if nrm := norm(r); nrm > bestNorm {
				best, bestNorm = k, nrm
			}
		}
		if best < 0 || bestNorm == 0 {
			break
		}
		q := res[best]
		for i := range q {
			q[i] /= complex(bestNorm, 0)
		}
		basis = append(basis, q)
		res = append(res[:best], res[best+1:]...)
		for _, r := range res {
			p := dot(q, r)
			for i := range r {
				r[i] -= p * q[i]
			}
		}
	}
	return basis
}

// dot is the Hermitian inner product <a|b>
func dot(a, b []complex128) complex128 {
	var s complex128
	for i := range a {
		s += cmplx.Conj(a[i]) * b[i]
	}
	return s
}

func norm(a []complex128) float64 {
	var s float64
	for _, z := range a {
		s += real(z)*real(z) + imag(z)*imag(z)
	}
	return math.Sqrt(s)
}
