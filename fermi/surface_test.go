package fermi

import (
	"context"
	"math"
	"testing"

	"github.com/notargets/TBFermi/bands"
	"github.com/notargets/TBFermi/hamiltonian"
	"github.com/notargets/TBFermi/lattice"
	"github.com/notargets/TBFermi/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func csro(t *testing.T, kpoints int, p hamiltonian.Params) (*lattice.Mesh, hamiltonian.Model) {
	t.Helper()
	mesh, err := lattice.NewMesh(math.Pi, 1, kpoints)
	require.NoError(t, err)
	model, err := hamiltonian.NewBilayer(p, mesh.A)
	require.NoError(t, err)
	return mesh, model
}

// footprint collects the map pixels hit by contour vertices
func footprint(r *Result) map[[2]int]bool {
	fp := make(map[[2]int]bool)
	for _, paths := range r.Contours {
		for _, p := range paths {
			for k := range p.X {
				fp[[2]int{utils.FindIndex(r.Ky, p.Y[k]), utils.FindIndex(r.Kx, p.X[k])}] = true
			}
		}
	}
	return fp
}

func TestComputeProjected(t *testing.T) {
	mesh, model := csro(t, 60, hamiltonian.CSRO20())
	res, err := Compute(context.Background(), mesh, model, Options{
		Vert: true, Project: true, Resolution: 200,
	})
	require.NoError(t, err)
	require.Len(t, res.Contours, 6)
	require.Len(t, res.Kx, 200)
	assert.Equal(t, -1.0, res.Kx[0])
	assert.Equal(t, 1.0, res.Ky[199])

	var vertices int
	for n := range res.Contours {
		vertices += res.NumVertices(n)
	}
	require.Greater(t, vertices, 0, "CSRO20 has a Fermi surface")

	fp := footprint(res)
	nonzero := 0
	r, c := res.Unsmoothed.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := res.Unsmoothed.At(i, j)
			if v == 0 {
				continue
			}
			nonzero++
			assert.True(t, fp[[2]int{i, j}], "pixel (%d,%d) not on a contour", i, j)
			assert.LessOrEqual(t, math.Abs(v), 1+1.e-12)
		}
	}
	assert.Greater(t, nonzero, 0)
	assert.LessOrEqual(t, nonzero, len(fp))

	// Blur spreads but does not create weight far from the contours
	assert.False(t, mat.Equal(res.FS, res.Unsmoothed))
	assert.LessOrEqual(t, mat.Max(res.FS), 1.0)
	assert.GreaterOrEqual(t, mat.Min(res.FS), -1.0)
}

func TestComputeNoCrossing(t *testing.T) {
	// Chemical potential far below every band: nothing crosses the level
	mesh, model := csro(t, 40, hamiltonian.CSRO20().With(hamiltonian.Params{"mu": -5}))
	res, err := Compute(context.Background(), mesh, model, Options{
		Vert: true, Project: true, Resolution: 100,
	})
	require.NoError(t, err)
	for n := range res.Contours {
		assert.Empty(t, res.Contours[n], "band %d", n)
		lo, _ := res.Range(n)
		assert.Greater(t, lo, 0.0)
	}
	assert.Equal(t, 0.0, mat.Max(res.Unsmoothed))
	assert.Equal(t, 0.0, mat.Min(res.Unsmoothed))
	assert.Equal(t, 0.0, mat.Max(res.FS))

	// And far above
	mesh, model = csro(t, 40, hamiltonian.CSRO20().With(hamiltonian.Params{"mu": 5}))
	res, err = Compute(context.Background(), mesh, model, Options{Vert: true, Project: true, Resolution: 100})
	require.NoError(t, err)
	for n := range res.Contours {
		assert.Empty(t, res.Contours[n])
	}
	assert.Equal(t, 0.0, mat.Norm(res.Unsmoothed, 1))
}

func TestComputeFlags(t *testing.T) {
	mesh, model := csro(t, 30, hamiltonian.CSRO20())

	// Projection without vertices is skipped
	res, err := Compute(context.Background(), mesh, model, Options{Project: true})
	require.NoError(t, err)
	assert.Nil(t, res.Contours)
	assert.Nil(t, res.FS)
	assert.Equal(t, 6, res.NumBands())
	assert.Equal(t, 0, res.NumVertices(0))

	res, err = Compute(context.Background(), mesh, model, Options{Vert: true})
	require.NoError(t, err)
	assert.Len(t, res.Contours, 6)
	assert.Nil(t, res.FS)
}

func TestSingleBandCharacter(t *testing.T) {
	mesh, err := lattice.NewMesh(math.Pi, 1, 50)
	require.NoError(t, err)
	model, err := hamiltonian.NewSingle(hamiltonian.Params{
		"t1": .1, "t2": 0, "t3": 0, "t4": 0, "t5": 0, "mu": 0}, mesh.A)
	require.NoError(t, err)

	res, err := Compute(context.Background(), mesh, model, Options{
		Vert: true, Project: true, Resolution: 120, Sigma: -1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Contours[0])
	for _, p := range res.Contours[0] {
		for k := range p.X {
			// Diamond |kx| + |ky| = 1
			assert.InDelta(t, 1.0, math.Abs(p.X[k])+math.Abs(p.Y[k]), 0.05)
		}
	}
	// The single orbital is in-plane: every painted pixel is exactly -1
	for pix := range footprint(res) {
		assert.InDelta(t, -1.0, res.Unsmoothed.At(pix[0], pix[1]), 1.e-12)
	}
	// No smoothing requested
	assert.True(t, mat.Equal(res.FS, res.Unsmoothed))
}

func TestReuseSweepMatchesFreshDiagonalization(t *testing.T) {
	mesh, model := csro(t, 40, hamiltonian.CSRO30())
	opts := Options{Vert: true, Project: true, Resolution: 150, Sweep: bands.Options{Workers: 2}}

	fresh, err := Compute(context.Background(), mesh, model, opts)
	require.NoError(t, err)
	opts.ReuseSweep = true
	reused, err := Compute(context.Background(), mesh, model, opts)
	require.NoError(t, err)
	assert.True(t, mat.Equal(fresh.Unsmoothed, reused.Unsmoothed))
	assert.True(t, mat.Equal(fresh.FS, reused.FS))
}

func TestComputeIdempotentAndTieBreak(t *testing.T) {
	mesh, model := csro(t, 40, hamiltonian.CSRO20())
	opts := Options{Vert: true, Project: true, Resolution: 60}

	a, err := Compute(context.Background(), mesh, model, opts)
	require.NoError(t, err)
	b, err := Compute(context.Background(), mesh, model, opts)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a.FS, b.FS))
	for n := range a.Bands {
		assert.True(t, mat.Equal(a.Bands[n], b.Bands[n]))
	}

	opts.TieBreak = Average
	avg, err := Compute(context.Background(), mesh, model, opts)
	require.NoError(t, err)
	fp := footprint(avg)
	r, c := avg.Unsmoothed.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := avg.Unsmoothed.At(i, j); v != 0 {
				assert.True(t, fp[[2]int{i, j}])
				assert.LessOrEqual(t, math.Abs(v), 1+1.e-12)
			}
		}
	}
}

func TestParseTieBreak(t *testing.T) {
	tb, err := ParseTieBreak("average")
	require.NoError(t, err)
	assert.Equal(t, Average, tb)
	tb, err = ParseTieBreak("")
	require.NoError(t, err)
	assert.Equal(t, LastWriter, tb)
	assert.Equal(t, "last", tb.String())
	_, err = ParseTieBreak("first")
	assert.Error(t, err)
}
