package lattice

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/TBFermi/utils"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidMesh is returned for a non-positive boundary, lattice scale or
	// a resolution below two points
	ErrInvalidMesh = errors.New("lattice: invalid mesh")
	// ErrInvalidPath is returned when the kx and ky samples of a path disagree
	ErrInvalidPath = errors.New("lattice: invalid path")
)

// Mesh is the 2D momentum grid. Coordinates are in units of pi/a and span
// [-Kbnd, Kbnd] along both axes. Row index i selects ky = Y[i], column index j
// selects kx = X[j], the layout of a numpy meshgrid.
type Mesh struct {
	A    float64 // Lattice scale multiplying the coordinates inside trig terms
	Kbnd float64 // Momentum boundary
	x, y []float64
	kx   *mat.Dense // kx[i][j] = x[j]
	ky   *mat.Dense // ky[i][j] = y[i]
}

// NewMesh builds a kpoints x kpoints grid over [-kbnd, kbnd]
func NewMesh(a, kbnd float64, kpoints int) (*Mesh, error) {
	switch {
	case kpoints < 2:
		return nil, fmt.Errorf("%w: kpoints=%d must be >= 2", ErrInvalidMesh, kpoints)
	case !(kbnd > 0) || math.IsInf(kbnd, 0):
		return nil, fmt.Errorf("%w: kbnd=%v must be > 0", ErrInvalidMesh, kbnd)
	case !(a > 0) || math.IsInf(a, 0):
		return nil, fmt.Errorf("%w: a=%v must be > 0", ErrInvalidMesh, a)
	}
	m := &Mesh{
		A:    a,
		Kbnd: kbnd,
		x:    utils.Linspace(-kbnd, kbnd, kpoints),
		y:    utils.Linspace(-kbnd, kbnd, kpoints),
	}
	m.kx = mat.NewDense(kpoints, kpoints, nil)
	m.ky = mat.NewDense(kpoints, kpoints, nil)
	for i := 0; i < kpoints; i++ {
		m.kx.SetRow(i, m.x)
		m.ky.SetCol(i, m.y)
	}
	return m, nil
}

// Dims returns the number of ky rows and kx columns
func (m *Mesh) Dims() (ny, nx int) { return len(m.y), len(m.x) }

// X returns a copy of the kx axis
func (m *Mesh) X() []float64 { return append([]float64(nil), m.x...) }

// Y returns a copy of the ky axis
func (m *Mesh) Y() []float64 { return append([]float64(nil), m.y...) }

// KX returns the kx meshgrid, read only
func (m *Mesh) KX() mat.Matrix { return m.kx }

// KY returns the ky meshgrid, read only
func (m *Mesh) KY() mat.Matrix { return m.ky }

// K returns the momentum of mesh point (i, j)
func (m *Mesh) K(i, j int) (kx, ky float64) { return m.x[j], m.y[i] }

// NearestX returns the column whose kx is closest to kx
func (m *Mesh) NearestX(kx float64) int { return utils.FindIndex(m.x, kx) }

// NearestY returns the row whose ky is closest to ky
func (m *Mesh) NearestY(ky float64) int { return utils.FindIndex(m.y, ky) }

// Bounds returns the extent of the mesh along kx and ky
func (m *Mesh) Bounds() (xmin, xmax, ymin, ymax float64) {
	return m.x[0], m.x[len(m.x)-1], m.y[0], m.y[len(m.y)-1]
}
