package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/notargets/TBFermi/bands"
	"github.com/notargets/TBFermi/hamiltonian"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs", "tb.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	older := time.Unix(1700000000, 0)
	id1, err := s.SaveRun(ctx, Run{Model: "bilayer", Params: hamiltonian.CSRO20(), Kpoints: 200, Created: older})
	require.NoError(t, err)
	id2, err := s.SaveRun(ctx, Run{Model: "three-orbital", Params: hamiltonian.SRO(), Level: .01, Kpoints: 50})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	assert.Len(t, id1, 36)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, id2, runs[0].ID)
	assert.Equal(t, id1, runs[1].ID)
	assert.True(t, runs[1].Created.Equal(older))

	got, err := s.Run(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "bilayer", got.Model)
	assert.Equal(t, 200, got.Kpoints)
	assert.Empty(t, cmp.Diff(hamiltonian.CSRO20(), got.Params))

	_, err = s.Run(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SaveRun(ctx, Run{ID: id1, Model: "bilayer"})
	assert.Error(t, err, "duplicate id")
}

func TestMatrices(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	id, err := s.SaveRun(ctx, Run{Model: "bilayer", Params: hamiltonian.CSRO20(), Kpoints: 3})
	require.NoError(t, err)

	m := mat.NewDense(2, 3, []float64{1, -2, 3.5, 0, 1e-17, -0.25})
	require.NoError(t, s.SaveMatrix(ctx, id, "Ayz", m))
	back, err := s.LoadMatrix(ctx, id, "Ayz")
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, back))

	// Replace
	m.Set(0, 0, 42)
	require.NoError(t, s.SaveMatrix(ctx, id, "Ayz", m))
	back, err = s.LoadMatrix(ctx, id, "Ayz")
	require.NoError(t, err)
	assert.Equal(t, 42.0, back.At(0, 0))

	_, err = s.LoadMatrix(ctx, id, "Bxy")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBandStructureRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	id, err := s.SaveRun(ctx, Run{Model: "three-orbital", Params: hamiltonian.SRO(), Kpoints: 2})
	require.NoError(t, err)

	bs := &bands.BandStructure{
		Model: "three-orbital",
		Names: []string{"yz", "xz", "xy"},
		Bands: []*mat.Dense{
			mat.NewDense(2, 2, []float64{-.3, -.2, -.2, -.1}),
			mat.NewDense(2, 2, []float64{-.1, 0, 0, .1}),
			mat.NewDense(2, 2, []float64{.2, .3, .3, .4}),
		},
	}
	fs := mat.NewDense(4, 4, nil)
	fs.Set(1, 2, -.5)
	require.NoError(t, s.SaveBandStructure(ctx, id, bs, fs, nil))

	names, err := s.MatrixNames(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{FermiSurface, "xy", "xz", "yz"}, names)

	back, err := s.LoadBandStructure(ctx, id, bs.Names)
	require.NoError(t, err)
	assert.Equal(t, bs.Model, back.Model)
	for n := range bs.Bands {
		assert.True(t, mat.Equal(bs.Bands[n], back.Bands[n]))
	}
	got, err := s.LoadMatrix(ctx, id, FermiSurface)
	require.NoError(t, err)
	assert.True(t, mat.Equal(fs, got))

	_, err = s.LoadBandStructure(ctx, "missing", bs.Names)
	assert.ErrorIs(t, err, ErrNotFound)
}
