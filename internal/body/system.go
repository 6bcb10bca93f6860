// Package body holds the particle system state shared by the force
// evaluator, the integrators and the diagnostics. It is pure data:
// nothing in this package computes forces or advances time.
package body

// System is the particle store for one run. N is fixed for the lifetime
// of the system and particle identity is the slice index. Masses are set
// at initialization and never mutated afterwards; zero-mass entries are
// legal padding and must be gravitationally inert as sources.
//
// The Hermite fields (Jerk, OldAcc, OldJerk, T, Dt) are allocated for
// every system but only the Hermite stepper reads them.
type System struct {
	N    int
	Eps  float64 // Plummer softening length, > 0
	G    float64 // gravitational constant, 1 in model units
	Time float64 // global simulation time

	Mass []float64
	Pos  []Vec3
	Vel  []Vec3
	Acc  []Vec3
	Pot  []float64

	Jerk    []Vec3
	OldAcc  []Vec3
	OldJerk []Vec3
	T       []float64 // per-particle time (Hermite)
	Dt      []float64 // per-particle timestep (Hermite)
}

// NewSystem allocates a system for n particles with softening eps and
// G = 1. Masses, positions and velocities are zero; an initial-condition
// generator fills them in before the first step.
func NewSystem(n int, eps float64) *System {
	return &System{
		N:       n,
		Eps:     eps,
		G:       1.0,
		Mass:    make([]float64, n),
		Pos:     make([]Vec3, n),
		Vel:     make([]Vec3, n),
		Acc:     make([]Vec3, n),
		Pot:     make([]float64, n),
		Jerk:    make([]Vec3, n),
		OldAcc:  make([]Vec3, n),
		OldJerk: make([]Vec3, n),
		T:       make([]float64, n),
		Dt:      make([]float64, n),
	}
}

// FirstNonFinite returns the index of the first particle whose position,
// velocity or acceleration is NaN or Inf, and true if one exists. Used
// for the step-boundary divergence check.
func (s *System) FirstNonFinite() (int, bool) {
	for i := 0; i < s.N; i++ {
		if !s.Pos[i].IsFinite() || !s.Vel[i].IsFinite() || !s.Acc[i].IsFinite() {
			return i, true
		}
	}
	return 0, false
}

// TotalMass sums particle masses.
func (s *System) TotalMass() float64 {
	m := 0.0
	for i := 0; i < s.N; i++ {
		m += s.Mass[i]
	}
	return m
}
