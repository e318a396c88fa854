package hamiltonian

import (
	"math"

	"github.com/notargets/TBFermi/orbital"
	"gonum.org/v1/gonum/mat"
)

// ThreeOrbital is the single layer t2g model of Sr2RuO4 in the d_yz, d_xz,
// d_xy basis with spin orbit coupling
type ThreeOrbital struct {
	a                              float64
	t1, t2, t3, t4, t5, t6, mu, so float64
}

// T2gKeys are the parameters the three and six orbital models read
var T2gKeys = []string{"t1", "t2", "t3", "t4", "t5", "t6", "mu", "so"}

func NewThreeOrbital(p Params, a float64) (*ThreeOrbital, error) {
	if err := p.Require(T2gKeys...); err != nil {
		return nil, err
	}
	return &ThreeOrbital{
		a:  a,
		t1: p["t1"],
		t2: p["t2"],
		t3: p["t3"],
		t4: p["t4"],
		t5: p["t5"],
		t6: p["t6"],
		mu: p["mu"],
		so: p["so"],
	}, nil
}

func (m *ThreeOrbital) Name() string         { return "three-orbital" }
func (m *ThreeOrbital) Norb() int            { return 3 }
func (m *ThreeOrbital) Basis() orbital.Basis { return orbital.T2g }
func (m *ThreeOrbital) BandNames() []string  { return []string{"yz", "xz", "xy"} }

// Dispersions returns the diagonal hopping terms and the yz-xz hybridization
func (m *ThreeOrbital) Dispersions(kx, ky float64) (fyz, fxz, fxy, off float64) {
	var (
		cx = math.Cos(kx * m.a)
		cy = math.Cos(ky * m.a)
	)
	fyz = -2*m.t2*cx - 2*m.t1*cy
	fxz = -2*m.t1*cx - 2*m.t2*cy
	fxy = -2*m.t3*(cx+cy) -
		4*m.t4*(cx*cy) -
		2*m.t5*(math.Cos(2*kx*m.a)+math.Cos(2*ky*m.a))
	off = -4 * m.t6 * (math.Sin(kx*m.a) * math.Sin(ky*m.a))
	return
}

func (m *ThreeOrbital) Build(kx, ky float64) *mat.CDense {
	var (
		fyz, fxz, fxy, off = m.Dispersions(kx, ky)
		mu, so             = m.mu, m.so
	)
	return mat.NewCDense(3, 3, []complex128{
		complex(fyz-mu, 0), complex(off, so), complex(-so, 0),
		complex(off, -so), complex(fxz-mu, 0), complex(0, so),
		complex(-so, 0), complex(0, -so), complex(fxy-mu, 0),
	})
}
