package orbital

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Class groups orbitals for the signed character
type Class uint8

const (
	OutOfPlane Class = iota // d_yz, d_xz
	InPlane                 // d_xy
)

func (c Class) String() string {
	switch c {
	case OutOfPlane:
		return "out-of-plane"
	case InPlane:
		return "in-plane"
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// Projector selects one orbital of the basis. It stands in for the diagonal
// 0/1 matrix with a single one at the orbital's index.
type Projector int

// Expectation returns <psi|P|psi> for column band of vec
func (p Projector) Expectation(vec mat.CMatrix, band int) float64 {
	c := vec.At(int(p), band)
	return real(c)*real(c) + imag(c)*imag(c)
}

// Orbital is one basis state of the Hamiltonian
type Orbital struct {
	Name  string
	Class Class
}

// Basis is the ordered orbital basis of a Hamiltonian
type Basis []Orbital

// Size is the number of orbitals, equal to the Hamiltonian dimension
func (b Basis) Size() int { return len(b) }

// Projectors returns one selector per orbital in basis order
func (b Basis) Projectors() []Projector {
	p := make([]Projector, len(b))
	for i := range b {
		p[i] = Projector(i)
	}
	return p
}

// Names lists the orbital names in basis order
func (b Basis) Names() []string {
	n := make([]string, len(b))
	for i, o := range b {
		n[i] = o.Name
	}
	return n
}

// Weights returns the projector expectation of every orbital for eigenvector
// column band of vec
func (b Basis) Weights(vec mat.CMatrix, band int) []float64 {
	w := make([]float64, len(b))
	for i, p := range b.Projectors() {
		w[i] = p.Expectation(vec, band)
	}
	return w
}

// Character reduces per-orbital weights to the out-of-plane weight minus the
// in-plane weight, a value in [-1, 1] for a normalized state
func (b Basis) Character(weights []float64) float64 {
	var wz, wxy float64
	for i, o := range b {
		switch o.Class {
		case OutOfPlane:
			wz += weights[i]
		case InPlane:
			wxy += weights[i]
		}
	}
	return wz - wxy
}

// Project is Character(Weights(vec, band))
func (b Basis) Project(vec mat.CMatrix, band int) float64 {
	return b.Character(b.Weights(vec, band))
}

var (
	// SingleBand is the one orbital basis of the single band model
	SingleBand = Basis{{"band", InPlane}}
	// T2g is the d_yz, d_xz, d_xy basis of the single layer model
	T2g = Basis{
		{"yz", OutOfPlane},
		{"xz", OutOfPlane},
		{"xy", InPlane},
	}
	// BilayerT2g is the t2g basis repeated for layers A and B
	BilayerT2g = Basis{
		{"Ayz", OutOfPlane},
		{"Axz", OutOfPlane},
		{"Axy", InPlane},
		{"Byz", OutOfPlane},
		{"Bxz", OutOfPlane},
		{"Bxy", InPlane},
	}
)
