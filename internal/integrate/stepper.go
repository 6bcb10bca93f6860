// Package integrate contains the time-advance schemes built on the force
// evaluator: the fixed-step symplectic Leapfrog and the fourth-order
// Hermite predictor-corrector with block timesteps. Both mutate the
// particle system in place and are the sole owner of it while a step is
// running.
package integrate

import (
	"github.com/san-kum/gravlab/internal/body"
	"github.com/san-kum/gravlab/internal/precision"
)

// Stepper is the common advance contract of the two schemes. Callers
// select an integration scheme without duplicating the force evaluator.
type Stepper interface {
	// Init evaluates initial forces and prepares internal state. Must be
	// called once, before the first Advance.
	Init() error
	// Advance moves the system forward by one step (Leapfrog) or one
	// block (Hermite) and returns the new global time.
	Advance() (float64, error)
	// Time reports the current global time.
	Time() float64
	// Sync writes on-step positions and velocities into dst slices
	// without mutating integration state. Reporting projection only.
	Sync(pos, vel []body.Vec3)
}

// roundVec passes every component through the integration tier.
func roundVec(t precision.Tier, v body.Vec3) body.Vec3 {
	if t != precision.Low {
		return v
	}
	return body.Vec3{X: t.Round(v.X), Y: t.Round(v.Y), Z: t.Round(v.Z)}
}
