package primitive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/kiln/pkg/kernel/facet"
)

func TestDefaults(t *testing.T) {
	cube, err := Defaults(Cube)
	require.NoError(t, err)
	assert.Equal(t, Params{Width: 10, Height: 10, Depth: 10}, cube)

	sphere, err := Defaults(Sphere)
	require.NoError(t, err)
	assert.Equal(t, 32, sphere.WidthSegments)
	assert.Equal(t, 16, sphere.HeightSegments)

	_, err = Defaults("torus")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestParseTypeAndTitle(t *testing.T) {
	for _, typ := range Types() {
		got, err := ParseType(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	assert.Equal(t, "Cylinder", Cylinder.Title())
	_, err := ParseType("Cube")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		p    Params
		ok   bool
	}{
		{"cube", Cube, Params{Width: 1, Height: 2, Depth: 3}, true},
		{"flat cube", Cube, Params{Width: 1, Height: 0, Depth: 3}, false},
		{"sphere", Sphere, Params{Radius: 1}, true},
		{"cylinder as cone", Cylinder, Params{RadiusTop: 0, RadiusBottom: 2, Height: 1}, true},
		{"cylinder without radii", Cylinder, Params{Height: 1}, false},
		{"cone", Cone, Params{Radius: 1, Height: 1}, true},
		{"cone without height", Cone, Params{Radius: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate(tt.typ)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidParams)
			}
		})
	}
	assert.ErrorIs(t, Params{}.Validate("torus"), ErrUnknownType)
}

func TestWithDefaultsKeepsSetFields(t *testing.T) {
	p, err := WithDefaults(Cylinder, Params{Height: 3})
	require.NoError(t, err)
	assert.Equal(t, 3.0, p.Height)
	assert.Equal(t, 5.0, p.RadiusTop)
	assert.Equal(t, 32, p.RadialSegments)
}

func TestBuild(t *testing.T) {
	k := facet.New()
	for _, typ := range Types() {
		t.Run(string(typ), func(t *testing.T) {
			p, err := Defaults(typ)
			require.NoError(t, err)
			m, err := Build(k, typ, p)
			require.NoError(t, err)
			assert.Equal(t, typ.Title(), m.Name)
			assert.NoError(t, m.Validate())
			assert.Positive(t, m.TriangleCount())
		})
	}
	_, err := Build(k, Cube, Params{})
	assert.ErrorIs(t, err, ErrInvalidParams)
}
