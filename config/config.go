// Package config holds the run configuration of the tbfs command.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/notargets/TBFermi/fermi"
	"github.com/notargets/TBFermi/hamiltonian"
	"github.com/notargets/TBFermi/partitions"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the YAML layout of a run
type Config struct {
	Mesh   MeshConfig   `yaml:"mesh"`
	Model  ModelConfig  `yaml:"model"`
	Fermi  FermiConfig  `yaml:"fermi"`
	Cut    CutConfig    `yaml:"cut"`
	Sweep  SweepConfig  `yaml:"sweep"`
	Output OutputConfig `yaml:"output"`
}

// MeshConfig sets up the momentum grid
type MeshConfig struct {
	A       float64 `yaml:"a"`       // Lattice constant
	Kbnd    float64 `yaml:"kbnd"`    // Boundary in units of pi/a
	Kpoints int     `yaml:"kpoints"` // Points per axis
}

// ModelConfig selects the Hamiltonian and its parameters. Params override
// the preset.
type ModelConfig struct {
	Kind   string             `yaml:"kind"`
	Preset string             `yaml:"preset"`
	Params hamiltonian.Params `yaml:"params,omitempty"`
	Level  float64            `yaml:"level"`
}

// FermiConfig controls the projected Fermi surface map
type FermiConfig struct {
	Vert       bool    `yaml:"vert"`
	Project    bool    `yaml:"project"`
	Resolution int     `yaml:"resolution"`
	Sigma      float64 `yaml:"sigma"`
	TieBreak   string  `yaml:"tie_break"`
	ReuseSweep bool    `yaml:"reuse_sweep"`
}

// CutConfig controls the energy axis of a path evaluation
type CutConfig struct {
	EMin   float64 `yaml:"emin"`
	EMax   float64 `yaml:"emax"`
	Points int     `yaml:"points"`
	Sigma  float64 `yaml:"sigma"`
}

// SweepConfig controls the parallel mesh sweep
type SweepConfig struct {
	Workers  int    `yaml:"workers"` // 0 selects GOMAXPROCS
	Strategy string `yaml:"strategy"`
}

// OutputConfig sets where results go
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Database    string `yaml:"database,omitempty"`
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
	Trace       bool   `yaml:"trace"`
}

// Default returns the configuration of the reference CSRO20 calculation
func Default() *Config {
	return &Config{
		Mesh: MeshConfig{
			A:       math.Pi,
			Kbnd:    1,
			Kpoints: 100,
		},
		Model: ModelConfig{
			Kind:   string(hamiltonian.KindBilayer),
			Preset: "CSRO20",
		},
		Fermi: FermiConfig{
			Vert:       true,
			Project:    true,
			Resolution: fermi.DefaultResolution,
			Sigma:      fermi.DefaultSigma,
			TieBreak:   fermi.LastWriter.String(),
		},
		Cut: CutConfig{
			EMin:   -0.65,
			EMax:   0.3,
			Points: 500,
			Sigma:  3,
		},
		Sweep: SweepConfig{
			Strategy: partitions.BlockPartition.String(),
		},
		Output: OutputConfig{
			Dir: ".",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks everything that would otherwise fail mid computation
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	switch {
	case !(c.Mesh.A > 0):
		return invalid("mesh.a=%v must be > 0", c.Mesh.A)
	case !(c.Mesh.Kbnd > 0):
		return invalid("mesh.kbnd=%v must be > 0", c.Mesh.Kbnd)
	case c.Mesh.Kpoints < 2:
		return invalid("mesh.kpoints=%d must be >= 2", c.Mesh.Kpoints)
	case c.Fermi.Resolution < 1:
		return invalid("fermi.resolution=%d must be >= 1", c.Fermi.Resolution)
	case c.Cut.Points < 1:
		return invalid("cut.points=%d must be >= 1", c.Cut.Points)
	case !(c.Cut.EMax > c.Cut.EMin):
		return invalid("cut energy window [%g, %g] is empty", c.Cut.EMin, c.Cut.EMax)
	case c.Sweep.Workers < 0:
		return invalid("sweep.workers=%d must be >= 0", c.Sweep.Workers)
	}
	if _, err := c.Params(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := fermi.ParseTieBreak(c.Fermi.TieBreak); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Strategy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Params resolves the preset and overrides and checks that the selected model
// finds every term it needs
func (c *Config) Params() (hamiltonian.Params, error) {
	p, err := hamiltonian.ParamFile{Preset: c.Model.Preset, Params: c.Model.Params}.Resolve()
	if err != nil {
		return nil, err
	}
	kind, err := hamiltonian.ParseKind(c.Model.Kind)
	if err != nil {
		return nil, err
	}
	if _, err := hamiltonian.New(kind, p, c.Mesh.A); err != nil {
		return nil, err
	}
	return p, nil
}

// Strategy parses the partition strategy
func (c *Config) Strategy() (partitions.PartitionStrategy, error) {
	switch c.Sweep.Strategy {
	case "", partitions.BlockPartition.String():
		return partitions.BlockPartition, nil
	case partitions.RoundRobin.String():
		return partitions.RoundRobin, nil
	}
	return 0, fmt.Errorf("unknown partition strategy %q", c.Sweep.Strategy)
}
