package hamiltonian

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"CSRO20", "CSRO30", "SRO"}, PresetNames())

	p, err := Preset("csro20")
	require.NoError(t, err)
	want := Params{"t1": .115, "t2": .002, "t3": .071, "t4": .039,
		"t5": .012, "t6": 0, "mu": .084, "so": .037}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("CSRO20 mismatch (-want +got):\n%s", diff)
	}
	for _, name := range PresetNames() {
		p, err := Preset(name)
		require.NoError(t, err)
		assert.NoError(t, p.Require(T2gKeys...), name)
	}

	// Presets hand out copies
	p["mu"] = 1
	again, _ := Preset("CSRO20")
	assert.Equal(t, .084, again["mu"])

	_, err = Preset("LSCO")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestWith(t *testing.T) {
	base := SRO()
	over := base.With(Params{"mu": .2, "extra": 1})
	assert.Equal(t, .2, over["mu"])
	assert.Equal(t, 1.0, over["extra"])
	assert.Equal(t, .122, base["mu"])
	assert.Len(t, over, len(base)+1)
}

func TestParamsString(t *testing.T) {
	assert.Equal(t, "mu=0.1, t1=0.2", Params{"t1": .2, "mu": .1}.String())
}

func TestLoadParams(t *testing.T) {
	p, err := LoadParams(strings.NewReader(`
preset: CSRO30
params:
  mu: 0.09
  so: 0
`))
	require.NoError(t, err)
	want := CSRO30().With(Params{"mu": .09, "so": 0})
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	p, err = LoadParams(strings.NewReader("params: {t1: .1, t2: 0, t3: 0, t4: 0, t5: 0, mu: 0}\n"))
	require.NoError(t, err)
	assert.NoError(t, p.Require(SingleKeys...))
	assert.Error(t, p.Require(T2gKeys...))

	p, err = LoadParams(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, p)

	_, err = LoadParams(strings.NewReader("preset: nope\n"))
	assert.ErrorIs(t, err, ErrUnknownPreset)

	_, err = LoadParams(strings.NewReader("params: [1, 2]\n"))
	assert.Error(t, err)
}
