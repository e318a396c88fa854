package hamiltonian

import (
	"math"

	"github.com/notargets/TBFermi/orbital"
	"gonum.org/v1/gonum/mat"
)

// Bilayer is the six orbital model of Ca(2-x)Sr(x)RuO4: two t2g layers A and B
// coupled along the rotated axes. The Hamiltonian is [[A, B], [B, A]].
type Bilayer struct {
	a                              float64
	t1, t2, t3, t4, t5, t6, mu, so float64
}

func NewBilayer(p Params, a float64) (*Bilayer, error) {
	if err := p.Require(T2gKeys...); err != nil {
		return nil, err
	}
	return &Bilayer{
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

func (m *Bilayer) Name() string         { return "bilayer" }
func (m *Bilayer) Norb() int            { return 6 }
func (m *Bilayer) Basis() orbital.Basis { return orbital.BilayerT2g }
func (m *Bilayer) BandNames() []string {
	return []string{"Ayz", "Axz", "Axy", "Byz", "Bxz", "Bxy"}
}

// hoppings evaluates the trig terms shared by the two blocks
func (m *Bilayer) hoppings(kx, ky float64) (fx, fy, f4, f5, f6 float64) {
	a := m.a
	fx = -2 * math.Cos((kx+ky)/2*a)
	fy = -2 * math.Cos((kx-ky)/2*a)
	f4 = -2 * m.t4 * (math.Cos(kx*a) + math.Cos(ky*a))
	f5 = -2 * m.t5 * (math.Cos((kx+ky)*a) + math.Cos((kx-ky)*a))
	f6 = -2 * m.t6 * (math.Cos(kx*a) - math.Cos(ky*a))
	return
}

// IntraLayer is the 3x3 block A
func (m *Bilayer) IntraLayer(kx, ky float64) *mat.CDense {
	_, _, f4, f5, f6 := m.hoppings(kx, ky)
	return m.intra(f4, f5, f6)
}

// InterLayer is the 3x3 diagonal block B
func (m *Bilayer) InterLayer(kx, ky float64) *mat.CDense {
	fx, fy, _, _, _ := m.hoppings(kx, ky)
	return m.inter(fx, fy)
}

func (m *Bilayer) intra(f4, f5, f6 float64) *mat.CDense {
	mu, so := m.mu, m.so
	return mat.NewCDense(3, 3, []complex128{
		complex(-mu, 0), complex(f6, so), complex(-so, 0),
		complex(f6, -so), complex(-mu, 0), complex(0, so),
		complex(-so, 0), complex(0, -so), complex(-mu+f4+f5, 0),
	})
}

func (m *Bilayer) inter(fx, fy float64) *mat.CDense {
	return mat.NewCDense(3, 3, []complex128{
		complex(m.t2*fx+m.t1*fy, 0), 0, 0,
		0, complex(m.t1*fx+m.t2*fy, 0), 0,
		0, 0, complex(m.t3*(fx+fy), 0),
	})
}

func (m *Bilayer) Build(kx, ky float64) *mat.CDense {
	fx, fy, f4, f5, f6 := m.hoppings(kx, ky)
	var (
		A = m.intra(f4, f5, f6)
		B = m.inter(fx, fy)
		H = mat.NewCDense(6, 6, nil)
	)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			H.Set(i, j, A.At(i, j))
			H.Set(i+3, j+3, A.At(i, j))
			H.Set(i, j+3, B.At(i, j))
			H.Set(i+3, j, B.At(i, j))
		}
	}
	return H
}
