package hamiltonian

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingParameter is returned when a model needs a hopping term the
	// parameter set does not define
	ErrMissingParameter = errors.New("hamiltonian: missing parameter")
	// ErrUnknownPreset is returned for a preset name that does not exist
	ErrUnknownPreset = errors.New("hamiltonian: unknown preset")
	// ErrUnknownModel is returned for a model kind that does not exist
	ErrUnknownModel = errors.New("hamiltonian: unknown model")
)

// Params maps hopping term identifiers to their amplitudes (eV)
//
//	t1: nearest neighbour, out-of-plane orbitals, large
//	t2: nearest neighbour, out-of-plane orbitals, small
//	t3: nearest neighbour, d_xy
//	t4: next nearest neighbour, d_xy
//	t5: next next nearest neighbour, d_xy
//	t6: off diagonal matrix element
//	mu: chemical potential
//	so: spin orbit coupling
type Params map[string]float64

// Require returns ErrMissingParameter naming the first absent key
func (p Params) Require(keys ...string) error {
	for _, k := range keys {
		if _, ok := p[k]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingParameter, k)
		}
	}
	return nil
}

// With returns a copy of p with overrides applied
func (p Params) With(overrides Params) Params {
	out := make(Params, len(p)+len(overrides))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Keys returns the parameter names sorted
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p Params) String() string {
	var sb strings.Builder
	for i, k := range p.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s=%g", k, p[k]))
	}
	return sb.String()
}

// SRO is the Sr2RuO4 parameter set, arXiv:1212.3994v1
func SRO() Params {
	return Params{"t1": .145, "t2": .016, "t3": .081, "t4": .039,
		"t5": .005, "t6": 0, "mu": .122, "so": .032}
}

// CSRO20 is the Ca1.8Sr0.2RuO4 parameter set
func CSRO20() Params {
	return Params{"t1": .115, "t2": .002, "t3": .071, "t4": .039,
		"t5": .012, "t6": 0, "mu": .084, "so": .037}
}

// CSRO30 is an exploratory parameter set
func CSRO30() Params {
	return Params{"t1": .1, "t2": .005, "t3": .081, "t4": .04,
		"t5": .01, "t6": 0, "mu": .08, "so": .04}
}

var presets = map[string]func() Params{
	"SRO":    SRO,
	"CSRO20": CSRO20,
	"CSRO30": CSRO30,
}

// PresetNames lists the available presets
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Preset returns a fresh copy of a named parameter set, case insensitive
func Preset(name string) (Params, error) {
	for k, fn := range presets {
		if strings.EqualFold(k, name) {
			return fn(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownPreset, name,
		strings.Join(PresetNames(), ", "))
}

// ParamFile is the YAML layout of a parameter file. Params override the
// preset when both are given.
//
//	preset: CSRO20
//	params:
//	  mu: 0.09
type ParamFile struct {
	Preset string `yaml:"preset,omitempty"`
	Params Params `yaml:"params,omitempty"`
}

// Resolve merges the file's overrides onto its preset
func (f ParamFile) Resolve() (Params, error) {
	base := Params{}
	if f.Preset != "" {
		var err error
		if base, err = Preset(f.Preset); err != nil {
			return nil, err
		}
	}
	return base.With(f.Params), nil
}

// LoadParams reads a YAML ParamFile
func LoadParams(r io.Reader) (Params, error) {
	var f ParamFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode parameter file: %w", err)
	}
	return f.Resolve()
}
