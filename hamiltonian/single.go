package hamiltonian

import (
	"math"

	"github.com/notargets/TBFermi/orbital"
	"gonum.org/v1/gonum/mat"
)

// Single is a one band model with hopping up to the fifth neighbour shell
type Single struct {
	a                      float64
	t1, t2, t3, t4, t5, mu float64
}

// SingleKeys are the parameters the single band model reads
var SingleKeys = []string{"t1", "t2", "t3", "t4", "t5", "mu"}

func NewSingle(p Params, a float64) (*Single, error) {
	if err := p.Require(SingleKeys...); err != nil {
		return nil, err
	}
	return &Single{
		a:  a,
		t1: p["t1"],
		t2: p["t2"],
		t3: p["t3"],
		t4: p["t4"],
		t5: p["t5"],
		mu: p["mu"],
	}, nil
}

func (s *Single) Name() string         { return "single" }
func (s *Single) Norb() int            { return 1 }
func (s *Single) Basis() orbital.Basis { return orbital.SingleBand }
func (s *Single) BandNames() []string  { return []string{"bndstr"} }

// Dispersion is the closed form band energy
func (s *Single) Dispersion(kx, ky float64) float64 {
	var (
		cx  = math.Cos(kx * s.a)
		cy  = math.Cos(ky * s.a)
		c2x = math.Cos(2 * kx * s.a)
		c2y = math.Cos(2 * ky * s.a)
	)
	return -s.mu -
		2*s.t1*(cx+cy) -
		4*s.t2*(cx*cy) -
		2*s.t3*(c2x+c2y) -
		4*s.t4*(c2x*cy+cx*c2y) -
		4*s.t5*(c2x*c2y)
}

func (s *Single) Build(kx, ky float64) *mat.CDense {
	return mat.NewCDense(1, 1, []complex128{complex(s.Dispersion(kx, ky), 0)})
}
