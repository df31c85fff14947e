// Package props computes the engineering properties of a primitive:
// volume in cubic meters, mass in kilograms and cost in dollars.
// Surface area is not computed and always reports 0.
package props

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/kiln/pkg/material"
	"github.com/chazu/kiln/pkg/primitive"
)

// ErrUnknownUnit is returned for a length unit outside Units.
var ErrUnknownUnit = errors.New("props: unknown length unit")

// Output precision in decimal places.
const (
	VolumePrecision = 6
	MassPrecision   = 3
	CostPrecision   = 2
)

// ---------------------------------------------------------------------------
// Units
// ---------------------------------------------------------------------------

// Unit is a length unit.
type Unit string

const (
	Millimeter Unit = "mm"
	Centimeter Unit = "cm"
	Meter      Unit = "m"
	Inch       Unit = "in"
	Foot       Unit = "ft"
)

type unitInfo struct {
	name   string
	factor float64 // meters per unit
}

var unitTable = map[Unit]unitInfo{
	Millimeter: {"Millimeters", 0.001},
	Centimeter: {"Centimeters", 0.01},
	Meter:      {"Meters", 1.0},
	Inch:       {"Inches", 0.0254},
	Foot:       {"Feet", 0.3048},
}

// Units returns the supported units, smallest first.
func Units() []Unit {
	return []Unit{Millimeter, Centimeter, Inch, Foot, Meter}
}

// ParseUnit converts a unit symbol.
func ParseUnit(s string) (Unit, error) {
	u := Unit(s)
	if _, ok := unitTable[u]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
	return u, nil
}

// Factor returns meters per unit.
func (u Unit) Factor() (float64, error) {
	info, ok := unitTable[u]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, string(u))
	}
	return info.factor, nil
}

// Name returns the plural display name, e.g. "Centimeters".
func (u Unit) Name() string {
	return unitTable[u].name
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

// Properties are the derived values of a scene object.
type Properties struct {
	Volume      float64 `json:"volume"`      // m³
	Mass        float64 `json:"mass"`        // kg
	Cost        float64 `json:"cost"`        // $
	SurfaceArea float64 `json:"surfaceArea"` // always 0
}

// Volume returns the closed-form volume of a primitive in m³, with
// dimensions read in unit u. Cylinders use the top radius.
func Volume(t primitive.Type, p primitive.Params, u Unit) (float64, error) {
	f, err := u.Factor()
	if err != nil {
		return 0, err
	}
	var v float64
	switch t {
	case primitive.Cube:
		v = p.Width * p.Height * p.Depth
	case primitive.Sphere:
		v = 4.0 / 3.0 * math.Pi * math.Pow(p.Radius, 3)
	case primitive.Cylinder:
		v = math.Pi * p.RadiusTop * p.RadiusTop * p.Height
	case primitive.Cone:
		v = math.Pi * p.Radius * p.Radius * p.Height / 3
	default:
		return 0, fmt.Errorf("props: %w: %q", primitive.ErrUnknownType, t)
	}
	return v * f * f * f, nil
}

// Compute returns the rounded properties of a primitive made of m.
func Compute(t primitive.Type, p primitive.Params, m material.Material, u Unit) (Properties, error) {
	vol, err := Volume(t, p, u)
	if err != nil {
		return Properties{}, err
	}
	mass := vol * m.Density
	cost := mass * m.CostPerKg
	return Properties{
		Volume: mgl64.Round(vol, VolumePrecision),
		Mass:   mgl64.Round(mass, MassPrecision),
		Cost:   mgl64.Round(cost, CostPrecision),
	}, nil
}

// FormatLength renders v with precision decimals and the unit symbol.
func FormatLength(v float64, u Unit, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return strconv.FormatFloat(mgl64.Round(v, precision), 'f', precision, 64) + " " + string(u)
}
