package hamiltonian

import (
	"fmt"
	"strings"

	"github.com/notargets/TBFermi/orbital"
	"gonum.org/v1/gonum/mat"
)

// Model assembles the Bloch Hamiltonian of a tight binding model. Build is a
// pure function of the momentum, safe for concurrent use.
type Model interface {
	Name() string
	// Norb is the Hamiltonian dimension
	Norb() int
	// Basis orders the orbitals along the Hamiltonian rows
	Basis() orbital.Basis
	// BandNames labels the ascending eigenvalues
	BandNames() []string
	// Build returns the Hermitian Hamiltonian at (kx, ky), coordinates in
	// units of pi/a
	Build(kx, ky float64) *mat.CDense
}

// Kind selects a model
type Kind string

const (
	KindSingle       Kind = "single"
	KindThreeOrbital Kind = "three-orbital"
	KindBilayer      Kind = "bilayer"
)

// Kinds lists the known model kinds
func Kinds() []Kind { return []Kind{KindSingle, KindThreeOrbital, KindBilayer} }

// ParseKind accepts the Kind names plus the material aliases sro, csro
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "single-band":
		return KindSingle, nil
	case "three-orbital", "3", "sro":
		return KindThreeOrbital, nil
	case "bilayer", "6", "csro":
		return KindBilayer, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// New builds the model of the given kind
func New(kind Kind, p Params, a float64) (Model, error) {
	switch kind {
	case KindSingle:
		return NewSingle(p, a)
	case KindThreeOrbital:
		return NewThreeOrbital(p, a)
	case KindBilayer:
		return NewBilayer(p, a)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, kind)
}

// IsHermitian reports whether h equals its conjugate transpose within tol
func IsHermitian(h mat.CMatrix, tol float64) bool {
	r, c := h.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := i; j < c; j++ {
			d := h.At(i, j) - conj(h.At(j, i))
			if real(d)*real(d)+imag(d)*imag(d) > tol*tol {
				return false
			}
		}
	}
	return true
}

func conj(z complex128) complex128 { return complex(real(z), -imag(z)) }
