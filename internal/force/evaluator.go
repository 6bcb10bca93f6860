// Package force implements the exact all-pairs softened gravity kernel:
// acceleration, optionally potential, and, for the Hermite scheme, jerk.
// The per-particle sums are independent, so evaluation is data-parallel
// over the target index through a compute.Backend.
package force

import (
	"fmt"

	"github.com/san-kum/gravlab/internal/body"
	"github.com/san-kum/gravlab/internal/compute"
	"github.com/san-kum/gravlab/internal/precision"
)

// Evaluator computes softened gravitational interactions at a fixed
// precision tier. The tier and the reciprocal-square-root mode are set at
// construction and never change within a run.
type Evaluator struct {
	backend compute.Backend
	tier    precision.Tier
	approx  bool // approximate rsqrt, Low tier only
}

// New builds an evaluator. Enabling the approximate reciprocal square
// root with a tier other than Low is rejected: the approximation is a
// float32 device and mixing it with exact float64 evaluation inside one
// run is exactly the silent inconsistency the toggle exists to prevent.
func New(backend compute.Backend, tier precision.Tier, approxRsqrt bool) (*Evaluator, error) {
	if approxRsqrt && tier != precision.Low {
		return nil, fmt.Errorf("force: approximate rsqrt requires the low force tier, got %s", tier)
	}
	if backend == nil {
		backend = compute.GetBackend()
	}
	return &Evaluator{backend: backend, tier: tier, approx: approxRsqrt}, nil
}

func (e *Evaluator) Tier() precision.Tier { return e.tier }

// Accel fills s.Acc with the softened acceleration of every particle.
func (e *Evaluator) Accel(s *body.System) {
	e.accel(s.Mass, s.Pos, s.Eps, s.G, s.Acc, nil)
}

// AccelPot fills s.Acc and s.Pot in one pass.
func (e *Evaluator) AccelPot(s *body.System) {
	e.accel(s.Mass, s.Pos, s.Eps, s.G, s.Acc, s.Pot)
}

// Potential fills pot with the softened potential at the given positions.
func (e *Evaluator) Potential(mass []float64, pos []body.Vec3, eps, g float64, pot []float64) {
	n := len(mass)
	eps2 := eps * eps
	e.backend.ParallelFor(n, func(start, end int) {
		for i := start; i < end; i++ {
			pot[i] = e.potentialAt(mass, pos, eps2, g, i)
		}
	})
}

func (e *Evaluator) accel(mass []float64, pos []body.Vec3, eps, g float64, acc []body.Vec3, pot []float64) {
	n := len(mass)
	e.backend.ParallelFor(n, func(start, end int) {
		switch e.tier {
		case precision.Low:
			e.accelLow(mass, pos, eps, g, acc, pot, start, end)
		case precision.High:
			accelHigh(mass, pos, eps, g, acc, pot, start, end)
		default:
			accelMid(mass, pos, eps, g, acc, pot, start, end)
		}
	})
}

// AccelJerk computes acceleration and jerk at the given positions and
// velocities for the target indices only; every particle still acts as a
// source. Results land at acc[i], jerk[i] for each target i. targets may
// be nil, meaning all particles.
func (e *Evaluator) AccelJerk(mass []float64, pos, vel []body.Vec3, eps, g float64, targets []int, acc, jerk []body.Vec3) {
	m := len(targets)
	if targets == nil {
		m = len(mass)
	}
	e.backend.ParallelFor(m, func(start, end int) {
		for k := start; k < end; k++ {
			i := k
			if targets != nil {
				i = targets[k]
			}
			switch e.tier {
			case precision.Low:
				acc[i], jerk[i] = e.accelJerkLow(mass, pos, vel, eps, g, i)
			case precision.High:
				acc[i], jerk[i] = accelJerkHigh(mass, pos, vel, eps, g, i)
			default:
				acc[i], jerk[i] = accelJerkMid(mass, pos, vel, eps, g, i)
			}
		}
	})
}

// --- Mid tier: plain float64 ---

func accelMid(mass []float64, pos []body.Vec3, eps, g float64, acc []body.Vec3, pot []float64, start, end int) {
	eps2 := eps * eps
	n := len(mass)
	for i := start; i < end; i++ {
		pi := pos[i]
		var ax, ay, az, phi float64
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			rx := pos[j].X - pi.X
			ry := pos[j].Y - pi.Y
			rz := pos[j].Z - pi.Z
			r2 := rx*rx + ry*ry + rz*rz + eps2
			rinv := 1.0 / sqrt64(r2)
			r3inv := rinv * rinv * rinv
			f := g * mass[j] * r3inv
			ax += f * rx
			ay += f * ry
			az += f * rz
			if pot != nil {
				phi -= g * mass[j] * rinv
			}
		}
		acc[i] = body.Vec3{X: ax, Y: ay, Z: az}
		if pot != nil {
			pot[i] = phi
		}
	}
}

func accelJerkMid(mass []float64, pos, vel []body.Vec3, eps, g float64, i int) (body.Vec3, body.Vec3) {
	eps2 := eps * eps
	n := len(mass)
	pi, vi := pos[i], vel[i]
	var a, j3 body.Vec3
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		r := pos[j].Sub(pi)
		v := vel[j].Sub(vi)
		r2 := r.Norm2() + eps2
		rinv := 1.0 / sqrt64(r2)
		r3inv := rinv * rinv * rinv
		rv := r.Dot(v)
		mj := g * mass[j]
		a = a.Add(r.Scale(mj * r3inv))
		// d/dt of m*r/(r²+ε²)^{3/2}
		j3 = j3.Add(v.Scale(mj * r3inv).Sub(r.Scale(3 * mj * rv * r3inv * rinv * rinv)))
	}
	return a, j3
}

// --- High tier: float64 terms, compensated accumulation ---

func accelHigh(mass []float64, pos []body.Vec3, eps, g float64, acc []body.Vec3, pot []float64, start, end int) {
	eps2 := eps * eps
	n := len(mass)
	for i := start; i < end; i++ {
		pi := pos[i]
		var ax, ay, az, phi precision.KahanSum
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			rx := pos[j].X - pi.X
			ry := pos[j].Y - pi.Y
			rz := pos[j].Z - pi.Z
			r2 := rx*rx + ry*ry + rz*rz + eps2
			rinv := 1.0 / sqrt64(r2)
			r3inv := rinv * rinv * rinv
			f := g * mass[j] * r3inv
			ax.Add(f * rx)
			ay.Add(f * ry)
			az.Add(f * rz)
			if pot != nil {
				phi.Add(-g * mass[j] * rinv)
			}
		}
		acc[i] = body.Vec3{X: ax.Value(), Y: ay.Value(), Z: az.Value()}
		if pot != nil {
			pot[i] = phi.Value()
		}
	}
}

func accelJerkHigh(mass []float64, pos, vel []body.Vec3, eps, g float64, i int) (body.Vec3, body.Vec3) {
	eps2 := eps * eps
	n := len(mass)
	pi, vi := pos[i], vel[i]
	var ax, ay, az, jx, jy, jz precision.KahanSum
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		r := pos[j].Sub(pi)
		v := vel[j].Sub(vi)
		r2 := r.Norm2() + eps2
		rinv := 1.0 / sqrt64(r2)
		r3inv := rinv * rinv * rinv
		rv3 := 3 * r.Dot(v) * r3inv * rinv * rinv
		mj := g * mass[j]
		ax.Add(mj * r3inv * r.X)
		ay.Add(mj * r3inv * r.Y)
		az.Add(mj * r3inv * r.Z)
		jx.Add(mj * (v.X*r3inv - rv3*r.X))
		jy.Add(mj * (v.Y*r3inv - rv3*r.Y))
		jz.Add(mj * (v.Z*r3inv - rv3*r.Z))
	}
	return body.Vec3{X: ax.Value(), Y: ay.Value(), Z: az.Value()},
		body.Vec3{X: jx.Value(), Y: jy.Value(), Z: jz.Value()}
}

// --- Low tier: float32 terms, float64 accumulation ---

func (e *Evaluator) accelLow(mass []float64, pos []body.Vec3, eps, g float64, acc []body.Vec3, pot []float64, start, end int) {
	eps2 := float32(eps * eps)
	g32 := float32(g)
	n := len(mass)
	for i := start; i < end; i++ {
		xi := float32(pos[i].X)
		yi := float32(pos[i].Y)
		zi := float32(pos[i].Z)
		var ax, ay, az, phi float64
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			rx := float32(pos[j].X) - xi
			ry := float32(pos[j].Y) - yi
			rz := float32(pos[j].Z) - zi
			r2 := rx*rx + ry*ry + rz*rz + eps2
			rinv := e.rsqrt32(r2)
			r3inv := rinv * rinv * rinv
			f := g32 * float32(mass[j]) * r3inv
			ax += float64(f * rx)
			ay += float64(f * ry)
			az += float64(f * rz)
			if pot != nil {
				phi -= float64(g32 * float32(mass[j]) * rinv)
			}
		}
		acc[i] = body.Vec3{X: ax, Y: ay, Z: az}
		if pot != nil {
			pot[i] = phi
		}
	}
}

func (e *Evaluator) accelJerkLow(mass []float64, pos, vel []body.Vec3, eps, g float64, i int) (body.Vec3, body.Vec3) {
	eps2 := float32(eps * eps)
	g32 := float32(g)
	n := len(mass)
	xi, yi, zi := float32(pos[i].X), float32(pos[i].Y), float32(pos[i].Z)
	ui, vi, wi := float32(vel[i].X), float32(vel[i].Y), float32(vel[i].Z)
	var ax, ay, az, jx, jy, jz float64
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		rx := float32(pos[j].X) - xi
		ry := float32(pos[j].Y) - yi
		rz := float32(pos[j].Z) - zi
		vx := float32(vel[j].X) - ui
		vy := float32(vel[j].Y) - vi
		vz := float32(vel[j].Z) - wi
		r2 := rx*rx + ry*ry + rz*rz + eps2
		rinv := e.rsqrt32(r2)
		r3inv := rinv * rinv * rinv
		rv3 := 3 * (rx*vx + ry*vy + rz*vz) * r3inv * rinv * rinv
		mj := g32 * float32(mass[j])
		ax += float64(mj * r3inv * rx)
		ay += float64(mj * r3inv * ry)
		az += float64(mj * r3inv * rz)
		jx += float64(mj * (vx*r3inv - rv3*rx))
		jy += float64(mj * (vy*r3inv - rv3*ry))
		jz += float64(mj * (vz*r3inv - rv3*rz))
	}
	return body.Vec3{X: ax, Y: ay, Z: az}, body.Vec3{X: jx, Y: jy, Z: jz}
}

func (e *Evaluator) potentialAt(mass []float64, pos []body.Vec3, eps2, g float64, i int) float64 {
	n := len(mass)
	pi := pos[i]
	switch e.tier {
	case precision.Low:
		xi, yi, zi := float32(pi.X), float32(pi.Y), float32(pi.Z)
		e32 := float32(eps2)
		g32 := float32(g)
		phi := 0.0
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			rx := float32(pos[j].X) - xi
			ry := float32(pos[j].Y) - yi
			rz := float32(pos[j].Z) - zi
			r2 := rx*rx + ry*ry + rz*rz + e32
			phi -= float64(g32 * float32(mass[j]) * e.rsqrt32(r2))
		}
		return phi
	case precision.High:
		var phi precision.KahanSum
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			r2 := pos[j].Sub(pi).Norm2() + eps2
			phi.Add(-g * mass[j] / sqrt64(r2))
		}
		return phi.Value()
	default:
		phi := 0.0
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			r2 := pos[j].Sub(pi).Norm2() + eps2
			phi -= g * mass[j] / sqrt64(r2)
		}
		return phi
	}
}

func (e *Evaluator) rsqrt32(x float32) float32 {
	if e.approx {
		return precision.InvSqrt32(x)
	}
	return 1.0 / sqrt32(x)
}
