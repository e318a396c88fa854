package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notargets/TBFermi/hamiltonian"
	"github.com/notargets/TBFermi/partitions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, math.Pi, cfg.Mesh.A)
	assert.Equal(t, 100, cfg.Mesh.Kpoints)
	assert.Equal(t, 1000, cfg.Fermi.Resolution)
	assert.Equal(t, 10.0, cfg.Fermi.Sigma)
	assert.Equal(t, 500, cfg.Cut.Points)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(hamiltonian.CSRO20(), p))
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(Default(), cfg))
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mesh:
  kpoints: 64
model:
  kind: sro
  preset: SRO
  params:
    mu: 0.13
fermi:
  tie_break: average
sweep:
  workers: 3
  strategy: round-robin
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 64, cfg.Mesh.Kpoints)
	assert.Equal(t, 1.0, cfg.Mesh.Kbnd, "unset keys keep their default")
	assert.Equal(t, 3, cfg.Sweep.Workers)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(hamiltonian.SRO().With(hamiltonian.Params{"mu": 0.13}), p))
	s, err := cfg.Strategy()
	require.NoError(t, err)
	assert.Equal(t, partitions.RoundRobin, s)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Model.Params = hamiltonian.Params{"so": 0.05}
	require.NoError(t, cfg.Save(path))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(cfg, back))
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mesh: [1, 2"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"kpoints":    func(c *Config) { c.Mesh.Kpoints = 1 },
		"kbnd":       func(c *Config) { c.Mesh.Kbnd = 0 },
		"a":          func(c *Config) { c.Mesh.A = math.NaN() },
		"resolution": func(c *Config) { c.Fermi.Resolution = 0 },
		"window":     func(c *Config) { c.Cut.EMin, c.Cut.EMax = .3, -.65 },
		"workers":    func(c *Config) { c.Sweep.Workers = -2 },
		"kind":       func(c *Config) { c.Model.Kind = "pentalayer" },
		"preset":     func(c *Config) { c.Model.Preset = "LSCO" },
		"tie break":  func(c *Config) { c.Fermi.TieBreak = "first" },
		"strategy":   func(c *Config) { c.Sweep.Strategy = "metis" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	cfg := Default()
	cfg.Model.Preset = ""
	cfg.Model.Params = hamiltonian.Params{"t1": .1}
	assert.ErrorIs(t, cfg.Validate(), hamiltonian.ErrMissingParameter)
}
