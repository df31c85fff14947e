package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	steel, err := Lookup("steel")
	require.NoError(t, err)
	assert.Equal(t, 7850.0, steel.Density)
	assert.Equal(t, 0.8, steel.CostPerKg)
	assert.Equal(t, "#4682B4", steel.Hex())

	_, err = Lookup("unobtainium")
	assert.ErrorIs(t, err, ErrUnknownMaterial)
}

func TestKeysSorted(t *testing.T) {
	assert.Equal(t, []string{"aluminum", "brick", "concrete", "glass", "steel", "wood"}, Keys())
	for _, m := range All() {
		assert.NotEmpty(t, m.Name)
		assert.Positive(t, m.Density)
	}
}

func TestDefaults(t *testing.T) {
	tests := map[string]string{
		"cube":     "steel",
		"sphere":   "aluminum",
		"cylinder": "concrete",
		"cone":     "wood",
		"torus":    "steel",
	}
	for typ, want := range tests {
		assert.Equal(t, want, DefaultKeyFor(typ), typ)
	}
}
