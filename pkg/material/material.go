// Package material holds the engineering material catalog. Materials are
// immutable records looked up by key; scene objects refer to them by key.
package material

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownMaterial is returned by Lookup for a key not in the catalog.
var ErrUnknownMaterial = errors.New("material: unknown material")

// StrengthKind says which strength figure a material quotes.
type StrengthKind string

const (
	Yield       StrengthKind = "yield"
	Compressive StrengthKind = "compressive"
)

// Material is an engineering material. Units: density kg/m³, modulus and
// strength MPa, conductivity W/(m·K), cost $/kg.
type Material struct {
	Key                 string       `json:"key"`
	Name                string       `json:"name"`
	Color               uint32       `json:"color"`
	Density             float64      `json:"density"`
	YoungsModulus       float64      `json:"youngsModulus"`
	Strength            float64      `json:"strength"`
	StrengthKind        StrengthKind `json:"strengthKind"`
	ThermalConductivity float64      `json:"thermalConductivity"`
	CostPerKg           float64      `json:"costPerKg"`
}

// Hex returns the display color as "#rrggbb".
func (m Material) Hex() string {
	return fmt.Sprintf("#%06X", m.Color&0xffffff)
}

var catalog = map[string]Material{
	"steel": {
		Key: "steel", Name: "Steel", Color: 0x4682B4,
		Density: 7850, YoungsModulus: 200000,
		Strength: 250, StrengthKind: Yield,
		ThermalConductivity: 50, CostPerKg: 0.8,
	},
	"aluminum": {
		Key: "aluminum", Name: "Aluminum", Color: 0xC0C0C0,
		Density: 2700, YoungsModulus: 70000,
		Strength: 276, StrengthKind: Yield,
		ThermalConductivity: 237, CostPerKg: 1.9,
	},
	"concrete": {
		Key: "concrete", Name: "Concrete", Color: 0x808080,
		Density: 2400, YoungsModulus: 30000,
		Strength: 30, StrengthKind: Compressive,
		ThermalConductivity: 1.7, CostPerKg: 0.1,
	},
	"wood": {
		Key: "wood", Name: "Wood (Pine)", Color: 0x8B4513,
		Density: 500, YoungsModulus: 9000,
		Strength: 40, StrengthKind: Compressive,
		ThermalConductivity: 0.12, CostPerKg: 0.5,
	},
	"brick": {
		Key: "brick", Name: "Brick", Color: 0xB22222,
		Density: 1800, YoungsModulus: 15000,
		Strength: 20, StrengthKind: Compressive,
		ThermalConductivity: 0.6, CostPerKg: 0.3,
	},
	"glass": {
		Key: "glass", Name: "Glass", Color: 0x87CEEB,
		Density: 2500, YoungsModulus: 70000,
		Strength: 1000, StrengthKind: Compressive,
		ThermalConductivity: 1.0, CostPerKg: 2.0,
	},
}

// Lookup returns the material stored under key.
func Lookup(key string) (Material, error) {
	m, ok := catalog[key]
	if !ok {
		return Material{}, fmt.Errorf("%w: %q", ErrUnknownMaterial, key)
	}
	return m, nil
}

// MustLookup is Lookup for keys known at compile time.
func MustLookup(key string) Material {
	m, err := Lookup(key)
	if err != nil {
		panic(err)
	}
	return m
}

// Keys returns the catalog keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(catalog))
	for k := range catalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns every material, sorted by key.
func All() []Material {
	out := make([]Material, 0, len(catalog))
	for _, k := range Keys() {
		out = append(out, catalog[k])
	}
	return out
}

// defaults maps a primitive type name to the material a new object of
// that type starts with.
var defaults = map[string]string{
	"cube":     "steel",
	"sphere":   "aluminum",
	"cylinder": "concrete",
	"cone":     "wood",
}

// DefaultKeyFor returns the starting material key for a primitive type.
// Types without a default get steel.
func DefaultKeyFor(primitiveType string) string {
	if k, ok := defaults[primitiveType]; ok {
		return k
	}
	return "steel"
}
