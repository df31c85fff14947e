package gizmo

import (
	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"
)

// SizeFactor is the gizmo size per unit of camera distance, which keeps
// handles roughly constant on screen.
const SizeFactor = 0.1

const (
	defaultSpringFrequency = 6.0
	defaultSpringDamping   = 1.0
)

// Sizer eases a gizmo's size toward a fixed fraction of the camera distance.
type Sizer struct {
	spring harmonica.Spring
	factor float64
	size   float64
	vel    float64
}

// NewSizer returns a critically damped sizer stepping at fps frames per
// second with the default SizeFactor.
func NewSizer(fps int) *Sizer {
	return NewSpringSizer(fps, defaultSpringFrequency, defaultSpringDamping, SizeFactor)
}

// NewSpringSizer returns a sizer with explicit spring and size settings.
// Non-positive values fall back to the defaults.
func NewSpringSizer(fps int, frequency, damping, factor float64) *Sizer {
	if fps <= 0 {
		fps = 60
	}
	if frequency <= 0 {
		frequency = defaultSpringFrequency
	}
	if damping <= 0 {
		damping = defaultSpringDamping
	}
	if factor <= 0 {
		factor = SizeFactor
	}
	return &Sizer{
		spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
		factor: factor,
	}
}

// Target is the size the sizer settles at for a camera at eye.
func (s *Sizer) Target(eye, gizmo mgl64.Vec3) float64 {
	return eye.Sub(gizmo).Len() * s.factor
}

// Step advances one frame and returns the new size. The first step snaps
// straight to the target.
func (s *Sizer) Step(eye, gizmo mgl64.Vec3) float64 {
	target := s.Target(eye, gizmo)
	if s.size == 0 {
		s.size = target
		return s.size
	}
	s.size, s.vel = s.spring.Update(s.size, s.vel, target)
	if s.size <= 0 {
		s.size = target
		s.vel = 0
	}
	return s.size
}

// Size returns the last computed size.
func (s *Sizer) Size() float64 { return s.size }
