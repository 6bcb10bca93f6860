// Package ic generates initial particle configurations. It is the
// problem-setup collaborator of the integration core: everything here
// runs once, before the first step.
package ic

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/gravlab/internal/body"
)

// ByName builds the named problem. n and seed are ignored by setups with
// a fixed particle count.
func ByName(problem string, n int, eps float64, seed int64) (*body.System, error) {
	switch problem {
	case "cold_collapse":
		return ColdCollapse(n, eps, seed), nil
	case "kepler":
		return KeplerPair(eps), nil
	case "plummer":
		return Plummer(n, eps, seed), nil
	case "ring":
		return Ring(n, eps), nil
	}
	return nil, fmt.Errorf("unknown problem %q", problem)
}

// ColdCollapse places n equal-mass particles uniformly in the unit
// sphere, total mass 1, at rest. The classic collapse test: free-fall
// time is about 1.11 in these units.
func ColdCollapse(n int, eps float64, seed int64) *body.System {
	rng := rand.New(rand.NewSource(seed))
	s := body.NewSystem(n, eps)
	m := 1.0 / float64(n)
	for i := 0; i < n; i++ {
		s.Mass[i] = m
		s.Pos[i] = sphereSample(rng, 1.0)
	}
	return s
}

// KeplerPair is the two-body convergence problem: equal masses summing to
// 1, unit separation, circular mutual orbit (period 2π for eps -> 0).
func KeplerPair(eps float64) *body.System {
	s := body.NewSystem(2, eps)
	s.Mass[0], s.Mass[1] = 0.5, 0.5
	s.Pos[0] = body.Vec3{X: -0.5}
	s.Pos[1] = body.Vec3{X: 0.5}
	s.Vel[0] = body.Vec3{Y: -0.5}
	s.Vel[1] = body.Vec3{Y: 0.5}
	return s
}

// Plummer samples n particles from a Plummer sphere in virial units
// (total mass 1, E = -1/4), the standard equilibrium test model.
func Plummer(n int, eps float64, seed int64) *body.System {
	rng := rand.New(rand.NewSource(seed))
	s := body.NewSystem(n, eps)
	m := 1.0 / float64(n)

	// Aarseth, Henon & Wielen sampling; scale factor converts model units
	// to virial units.
	const rScale = 3 * math.Pi / 16
	for i := 0; i < n; i++ {
		s.Mass[i] = m

		// Radius from the cumulative mass profile. Clip the outermost
		// tail so a single far particle cannot dominate the run.
		x := rng.Float64()*0.999 + 0.0005
		r := 1.0 / math.Sqrt(math.Pow(x, -2.0/3.0)-1)
		s.Pos[i] = onSphere(rng, r)

		// Velocity modulus by von Neumann rejection against
		// q²(1-q²)^{7/2}.
		var q float64
		for {
			q = rng.Float64()
			g := rng.Float64() * 0.1
			if g < q*q*math.Pow(1-q*q, 3.5) {
				break
			}
		}
		v := q * math.Sqrt2 * math.Pow(1+r*r, -0.25)
		s.Vel[i] = onSphere(rng, v)
	}

	for i := 0; i < n; i++ {
		s.Pos[i] = s.Pos[i].Scale(rScale)
		s.Vel[i] = s.Vel[i].Scale(1 / math.Sqrt(rScale))
	}
	centerOfMassFrame(s)
	return s
}

// Ring places n equal-mass particles on a unit circle with tangential
// velocities, a compact rotating configuration for quick visual runs.
func Ring(n int, eps float64) *body.System {
	s := body.NewSystem(n, eps)
	m := 1.0 / float64(n)
	for i := 0; i < n; i++ {
		angle := float64(i) * 2 * math.Pi / float64(n)
		s.Mass[i] = m
		s.Pos[i] = body.Vec3{X: math.Cos(angle), Y: math.Sin(angle)}
		s.Vel[i] = body.Vec3{X: -math.Sin(angle) * 0.5, Y: math.Cos(angle) * 0.5}
	}
	return s
}

// sphereSample draws a point uniformly inside a sphere of the given
// radius.
func sphereSample(rng *rand.Rand, radius float64) body.Vec3 {
	for {
		v := body.Vec3{
			X: 2*rng.Float64() - 1,
			Y: 2*rng.Float64() - 1,
			Z: 2*rng.Float64() - 1,
		}
		if v.Norm2() <= 1 {
			return v.Scale(radius)
		}
	}
}

// onSphere draws a point uniformly on a sphere surface of radius r.
func onSphere(rng *rand.Rand, r float64) body.Vec3 {
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	s := math.Sqrt(1 - z*z)
	return body.Vec3{X: r * s * math.Cos(phi), Y: r * s * math.Sin(phi), Z: r * z}
}

// centerOfMassFrame removes the bulk position and velocity offsets.
func centerOfMassFrame(s *body.System) {
	var cp, cv body.Vec3
	mt := s.TotalMass()
	if mt == 0 {
		return
	}
	for i := 0; i < s.N; i++ {
		cp = cp.Add(s.Pos[i].Scale(s.Mass[i]))
		cv = cv.Add(s.Vel[i].Scale(s.Mass[i]))
	}
	cp = cp.Scale(1 / mt)
	cv = cv.Scale(1 / mt)
	for i := 0; i < s.N; i++ {
		s.Pos[i] = s.Pos[i].Sub(cp)
		s.Vel[i] = s.Vel[i].Sub(cv)
	}
}
