package cut

import (
	"context"
	"math"
	"testing"

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

func singleBand(t *testing.T) *hamiltonian.Single {
	t.Helper()
	m, err := hamiltonian.NewSingle(hamiltonian.Params{
		"t1": .1, "t2": 0, "t3": 0, "t4": 0, "t5": 0, "mu": 0}, math.Pi)
	require.NoError(t, err)
	return m
}

func TestEvaluateSingleBand(t *testing.T) {
	model := singleBand(t)
	path, err := lattice.StraightCut(0, 0, 1, 1, 81)
	require.NoError(t, err)

	res, err := Evaluate(context.Background(), path, model, Options{SigmaEnergy: -1, SigmaMomentum: -1})
	require.NoError(t, err)
	require.Len(t, res.Energy, DefaultPoints)
	assert.Equal(t, DefaultEMin, res.Energy[0])
	assert.Equal(t, DefaultEMax, res.Energy[DefaultPoints-1])
	assert.Equal(t, []string{"bndstr"}, res.Names)
	r, c := res.Raw.Dims()
	assert.Equal(t, DefaultPoints, r)
	assert.Equal(t, 81, c)

	col := make([]float64, r)
	for i := 0; i < path.Len(); i++ {
		e := model.Dispersion(path.Kx[i], path.Ky[i])
		assert.InDelta(t, e, res.Bands[0][i], 1.e-12)

		// One painted bin per column, at the nearest energy, fully in-plane.
		// Energies above EMax pile up in the top bin.
		mat.Col(col, i, res.Raw)
		want := utils.FindIndex(res.Energy, e)
		for k, v := range col {
			if k == want {
				assert.InDelta(t, -1.0, v, 1.e-12, "point %d", i)
			} else {
				assert.Zero(t, v, "point %d bin %d", i, k)
			}
		}
	}
	assert.True(t, mat.Equal(res.Raw, res.Intensity))
}

func TestEvaluateBilayer(t *testing.T) {
	model, err := hamiltonian.NewBilayer(hamiltonian.CSRO20(), math.Pi)
	require.NoError(t, err)
	path, err := lattice.StraightCut(-1, 0, 1, 0, 64)
	require.NoError(t, err)

	res, err := Evaluate(context.Background(), path, model, Options{Points: 200})
	require.NoError(t, err)
	require.Len(t, res.Bands, 6)
	for i := 0; i < path.Len(); i++ {
		for n := 1; n < 6; n++ {
			assert.LessOrEqual(t, res.Bands[n-1][i], res.Bands[n][i])
		}
	}

	col := make([]float64, 200)
	for i := 0; i < path.Len(); i++ {
		mat.Col(col, i, res.Raw)
		var painted int
		for _, v := range col {
			if v != 0 {
				painted++
			}
			assert.LessOrEqual(t, math.Abs(v), 1+1.e-12)
		}
		assert.LessOrEqual(t, painted, 6)
	}
	assert.False(t, mat.Equal(res.Raw, res.Intensity))

	// Symmetric path: kx -> -kx leaves the spectrum unchanged
	for n := range res.Bands {
		for i := 0; i < path.Len()/2; i++ {
			assert.InDelta(t, res.Bands[n][i], res.Bands[n][path.Len()-1-i], 1.e-9)
		}
	}
}

func TestEvaluateWorkerInvariance(t *testing.T) {
	model, err := hamiltonian.NewBilayer(hamiltonian.CSRO30(), math.Pi)
	require.NoError(t, err)
	path, err := lattice.StraightCut(0, 0, 1, 1, 50)
	require.NoError(t, err)

	one, err := Evaluate(context.Background(), path, model, Options{Workers: 1})
	require.NoError(t, err)
	many, err := Evaluate(context.Background(), path, model, Options{Workers: 7})
	require.NoError(t, err)
	assert.Equal(t, one.Bands, many.Bands)
	assert.True(t, mat.Equal(one.Intensity, many.Intensity))
}

func TestEvaluateErrors(t *testing.T) {
	model := singleBand(t)
	_, err := Evaluate(context.Background(), lattice.Path{Kx: []float64{0, 1}, Ky: []float64{0}}, model, Options{})
	assert.ErrorIs(t, err, lattice.ErrInvalidPath)
	_, err = Evaluate(context.Background(), lattice.Path{}, model, Options{})
	assert.ErrorIs(t, err, lattice.ErrInvalidPath)

	path, err := lattice.StraightCut(0, 0, 1, 0, 5)
	require.NoError(t, err)
	_, err = Evaluate(context.Background(), path, model, Options{EMin: .2, EMax: .1})
	assert.Error(t, err)
}
