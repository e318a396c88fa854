package lattice

import (
	"fmt"

	"github.com/notargets/TBFermi/utils"
)

// Path is a 1D momentum trajectory, e.g. a detector cut already converted
// from angles to momentum
type Path struct {
	Kx, Ky []float64
}

// NewPath checks that the kx and ky samples pair up
func NewPath(kx, ky []float64) (Path, error) {
	if len(kx) == 0 || len(kx) != len(ky) {
		return Path{}, fmt.Errorf("%w: len(kx)=%d len(ky)=%d", ErrInvalidPath, len(kx), len(ky))
	}
	return Path{Kx: kx, Ky: ky}, nil
}

// StraightCut samples n points on the segment from (kx0, ky0) to (kx1, ky1)
func StraightCut(kx0, ky0, kx1, ky1 float64, n int) (Path, error) {
	if n < 2 {
		return Path{}, fmt.Errorf("%w: n=%d must be >= 2", ErrInvalidPath, n)
	}
	return Path{
		Kx: utils.Linspace(kx0, kx1, n),
		Ky: utils.Linspace(ky0, ky1, n),
	}, nil
}

// Len is the number of samples on the path
func (p Path) Len() int { return len(p.Kx) }
