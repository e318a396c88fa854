// Package tb is the entry point for the tight binding models of Sr2RuO4 and
// Ca(2-x)Sr(x)RuO4: build a momentum mesh once, then evaluate band structures
// and orbitally projected Fermi surfaces on it.
package tb

import (
	"context"
	"math"

	"github.com/notargets/TBFermi/bands"
	"github.com/notargets/TBFermi/cut"
	"github.com/notargets/TBFermi/fermi"
	"github.com/notargets/TBFermi/hamiltonian"
	"github.com/notargets/TBFermi/lattice"
)

// TB carries the momentum mesh and the evaluation settings shared by every
// model invocation
type TB struct {
	Mesh *lattice.Mesh

	Resolution int     // Fermi surface map points per axis
	Sigma      float64 // Fermi surface blur in pixels
	TieBreak   fermi.TieBreak
	ReuseSweep bool
	Sweep      bands.Options
}

// New builds a kpoints x kpoints mesh over [-kbnd, kbnd]^2, lattice constant a
func New(a, kbnd float64, kpoints int) (*TB, error) {
	mesh, err := lattice.NewMesh(a, kbnd, kpoints)
	if err != nil {
		return nil, err
	}
	return &TB{
		Mesh:       mesh,
		Resolution: fermi.DefaultResolution,
		Sigma:      fermi.DefaultSigma,
	}, nil
}

// Default is New(pi, 1, 100)
func Default() *TB {
	t, err := New(math.Pi, 1, 100)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *TB) options(e0 float64, vert, proj bool) fermi.Options {
	return fermi.Options{
		Level:      e0,
		Vert:       vert,
		Project:    proj,
		Resolution: t.Resolution,
		Sigma:      t.Sigma,
		TieBreak:   t.TieBreak,
		ReuseSweep: t.ReuseSweep,
		Sweep:      t.Sweep,
	}
}

// Model evaluates any model on the mesh at energy level e0
func (t *TB) Model(ctx context.Context, model hamiltonian.Model, e0 float64, vert, proj bool) (*fermi.Result, error) {
	return fermi.Compute(ctx, t.Mesh, model, t.options(e0, vert, proj))
}

// SRO evaluates the three orbital Sr2RuO4 model
func (t *TB) SRO(ctx context.Context, p hamiltonian.Params, e0 float64, vert, proj bool) (*fermi.Result, error) {
	model, err := hamiltonian.NewThreeOrbital(p, t.Mesh.A)
	if err != nil {
		return nil, err
	}
	return t.Model(ctx, model, e0, vert, proj)
}

// CSRO evaluates the bilayer six orbital Ca1.8Sr0.2RuO4 model
func (t *TB) CSRO(ctx context.Context, p hamiltonian.Params, e0 float64, vert, proj bool) (*fermi.Result, error) {
	model, err := hamiltonian.NewBilayer(p, t.Mesh.A)
	if err != nil {
		return nil, err
	}
	return t.Model(ctx, model, e0, vert, proj)
}

// Single evaluates the single band model. It has no orbital structure, so only
// the band structure is returned.
func (t *TB) Single(ctx context.Context, p hamiltonian.Params) (*bands.BandStructure, error) {
	model, err := hamiltonian.NewSingle(p, t.Mesh.A)
	if err != nil {
		return nil, err
	}
	res, err := bands.Sweep(ctx, t.Mesh, model, t.Sweep)
	if err != nil {
		return nil, err
	}
	return res.BandStructure, nil
}

// CSROEval evaluates the bilayer model along the path (x, y) with a = pi
func CSROEval(ctx context.Context, x, y []float64, p hamiltonian.Params, opts cut.Options) (*cut.Result, error) {
	path, err := lattice.NewPath(x, y)
	if err != nil {
		return nil, err
	}
	model, err := hamiltonian.NewBilayer(p, math.Pi)
	if err != nil {
		return nil, err
	}
	return cut.Evaluate(ctx, path, model, opts)
}
