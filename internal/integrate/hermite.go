package integrate

import (
	"math"

	"github.com/san-kum/gravlab/internal/body"
	"github.com/san-kum/gravlab/internal/force"
	"github.com/san-kum/gravlab/internal/precision"
)

// Hermite is the fourth-order predictor-corrector with individual
// per-particle timesteps snapped onto a power-of-two block hierarchy.
// Each block runs PREDICT -> EVALUATE -> CORRECT -> RESCHEDULE; only the
// particles whose t_i + dt_i equals the next scheduled time are
// corrected, but every particle is re-predicted as a force source.
type Hermite struct {
	sys  *body.System
	eval *force.Evaluator
	tier precision.Tier

	eta   float64 // accuracy parameter of the timestep criterion
	dtMax float64 // coarsest block step (power of two)
	dtMin float64 // finest block step (power of two)

	t       float64
	active  []int
	predPos []body.Vec3
	predVel []body.Vec3
	newAcc  []body.Vec3
	newJerk []body.Vec3

	stalls int // consecutive blocks with every particle at dtMin
}

func NewHermite(sys *body.System, eval *force.Evaluator, tier precision.Tier, eta, dtMax, dtMin float64) *Hermite {
	return &Hermite{
		sys:     sys,
		eval:    eval,
		tier:    tier,
		eta:     eta,
		dtMax:   floorPow2(dtMax),
		dtMin:   floorPow2(dtMin),
		active:  make([]int, 0, sys.N),
		predPos: make([]body.Vec3, sys.N),
		predVel: make([]body.Vec3, sys.N),
		newAcc:  make([]body.Vec3, sys.N),
		newJerk: make([]body.Vec3, sys.N),
	}
}

// Init evaluates acceleration and jerk for every particle at t=0 and
// assigns bootstrap timesteps. A particle with no usable jerk (cold
// starts have zero relative velocities everywhere) falls back to an
// estimate from the acceleration magnitude alone.
func (h *Hermite) Init() error {
	s := h.sys
	h.eval.AccelJerk(s.Mass, s.Pos, s.Vel, s.Eps, s.G, nil, s.Acc, s.Jerk)
	for i := 0; i < s.N; i++ {
		s.OldAcc[i] = s.Acc[i]
		s.OldJerk[i] = s.Jerk[i]
		s.T[i] = 0
		s.Dt[i] = h.blockize(h.bootstrapStep(i))
	}
	h.t = 0
	s.Time = 0
	h.stalls = 0
	return nil
}

func (h *Hermite) bootstrapStep(i int) float64 {
	a := h.sys.Acc[i].Norm()
	j := h.sys.Jerk[i].Norm()
	switch {
	case j > 0:
		return h.eta * a / j
	case a > 0:
		// No jerk history yet: free-fall estimate over the softening
		// length.
		return h.eta * math.Sqrt(h.sys.Eps/a)
	default:
		return h.dtMax
	}
}

// Advance processes one block: all particles whose step ends at the
// earliest scheduled time.
func (h *Hermite) Advance() (float64, error) {
	s := h.sys

	tNext := math.Inf(1)
	for i := 0; i < s.N; i++ {
		if due := s.T[i] + s.Dt[i]; due < tNext {
			tNext = due
		}
	}
	h.active = h.active[:0]
	for i := 0; i < s.N; i++ {
		if s.T[i]+s.Dt[i] == tNext {
			h.active = append(h.active, i)
		}
	}

	// PREDICT: every particle is a force source, so all are extrapolated
	// to the evaluation time.
	h.predictAll(tNext)

	// EVALUATE: new acceleration and jerk for the active set only.
	h.eval.AccelJerk(s.Mass, h.predPos, h.predVel, s.Eps, s.G, h.active, h.newAcc, h.newJerk)

	// CORRECT + RESCHEDULE for the active set.
	for _, i := range h.active {
		h.correct(i, tNext)
	}

	// Particles that were not active keep their state; their predicted
	// values were scratch only.

	if h.allAtMinStep() {
		h.stalls++
	} else {
		h.stalls = 0
	}

	h.t = tNext
	s.Time = tNext
	return tNext, nil
}

func (h *Hermite) predictAll(t float64) {
	s := h.sys
	for i := 0; i < s.N; i++ {
		dt := t - s.T[i]
		h.predPos[i], h.predVel[i] = predict(s.Pos[i], s.Vel[i], s.Acc[i], s.Jerk[i], dt)
	}
}

// predict is the truncated Taylor extrapolation from stored acceleration
// and jerk.
func predict(p, v, a, j body.Vec3, dt float64) (body.Vec3, body.Vec3) {
	dt2 := dt * dt / 2
	dt3 := dt2 * dt / 3
	pp := p.Add(v.Scale(dt)).Add(a.Scale(dt2)).Add(j.Scale(dt3))
	pv := v.Add(a.Scale(dt)).Add(j.Scale(dt2))
	return pp, pv
}

func (h *Hermite) correct(i int, tNext float64) {
	s := h.sys
	dt := s.Dt[i]
	a0, j0 := s.Acc[i], s.Jerk[i]
	a1, j1 := h.newAcc[i], h.newJerk[i]

	// Fourth-order Hermite corrector: cubic interpolation between the old
	// and the newly evaluated derivatives.
	v1 := s.Vel[i].
		Add(a0.Add(a1).Scale(dt / 2)).
		Add(j0.Sub(j1).Scale(dt * dt / 12))
	p1 := s.Pos[i].
		Add(s.Vel[i].Add(v1).Scale(dt / 2)).
		Add(a0.Sub(a1).Scale(dt * dt / 12))

	s.Pos[i] = roundVec(h.tier, p1)
	s.Vel[i] = roundVec(h.tier, v1)
	s.OldAcc[i] = a0
	s.OldJerk[i] = j0
	s.Acc[i] = a1
	s.Jerk[i] = j1
	s.T[i] = tNext
	s.Dt[i] = h.reschedule(i, dt, tNext)
}

// reschedule applies the Aarseth criterion at the new time and snaps the
// result onto the block hierarchy. A step may shrink freely (finer powers
// of two stay aligned) but grows at most one level, and only when the
// particle sits on the coarser boundary.
func (h *Hermite) reschedule(i int, dt, tNext float64) float64 {
	a1, j1 := h.sys.Acc[i], h.sys.Jerk[i]
	a0, j0 := h.sys.OldAcc[i], h.sys.OldJerk[i]

	// Second and third derivatives from the Hermite cubic.
	dt2 := dt * dt
	a2 := a0.Sub(a1).Scale(-6 / dt2).Sub(j0.Scale(4 / dt).Add(j1.Scale(2 / dt)))
	a3 := a0.Sub(a1).Scale(12 / (dt2 * dt)).Add(j0.Add(j1).Scale(6 / dt2))
	a2New := a2.Add(a3.Scale(dt)) // a'' at the new time

	num := a1.Norm()*a2New.Norm() + j1.Norm2()
	den := j1.Norm()*a3.Norm() + a2New.Norm2()

	// Aarseth-type composite timescale, scaled linearly by eta so the
	// global error falls off as eta^4.
	var want float64
	switch {
	case den > 0:
		want = h.eta * math.Sqrt(num/den)
	case num > 0:
		want = 2 * dt
	default:
		want = h.dtMax
	}

	next := h.blockize(want)
	if next > dt {
		if math.Mod(tNext, 2*dt) == 0 {
			next = 2 * dt
		} else {
			next = dt
		}
	}
	return next
}

// blockize snaps want down to a power of two within [dtMin, dtMax].
func (h *Hermite) blockize(want float64) float64 {
	dt := floorPow2(want)
	if dt > h.dtMax {
		dt = h.dtMax
	}
	if dt < h.dtMin {
		dt = h.dtMin
	}
	return dt
}

func (h *Hermite) allAtMinStep() bool {
	for i := 0; i < h.sys.N; i++ {
		if h.sys.Dt[i] > h.dtMin {
			return false
		}
	}
	return true
}

func (h *Hermite) Time() float64 { return h.t }

// Stalls reports how many consecutive blocks ended with every particle
// pinned at the minimum step. The runner turns a long stall into an
// abort.
func (h *Hermite) Stalls() int { return h.stalls }

// Active returns the index set corrected by the most recent block.
// Data-dependent, recomputed every step.
func (h *Hermite) Active() []int { return h.active }

// Sync predicts every particle to the current global time. Read-only
// projection for reporting; per-particle times and steps are untouched.
func (h *Hermite) Sync(pos, vel []body.Vec3) {
	s := h.sys
	for i := 0; i < s.N; i++ {
		pos[i], vel[i] = predict(s.Pos[i], s.Vel[i], s.Acc[i], s.Jerk[i], h.t-s.T[i])
	}
}

// floorPow2 returns the largest power of two not exceeding x.
func floorPow2(x float64) float64 {
	if x <= 0 || math.IsInf(x, 0) || math.IsNaN(x) {
		return 0
	}
	_, exp := math.Frexp(x) // x = frac * 2^exp, frac in [0.5, 1)
	return math.Ldexp(1, exp-1)
}
