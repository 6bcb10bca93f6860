package integrate

import (
	"github.com/san-kum/gravlab/internal/body"
	"github.com/san-kum/gravlab/internal/force"
	"github.com/san-kum/gravlab/internal/precision"
)

// Leapfrog is the kick-drift-kick scheme with a fixed, globally shared
// timestep. Between steps sys.Vel holds the half-step velocities
// v^{n+1/2}; Sync projects them back onto the step boundary for
// reporting. Symplectic, second order in dt.
type Leapfrog struct {
	sys  *body.System
	eval *force.Evaluator
	tier precision.Tier
	dt   float64
	t    float64
}

func NewLeapfrog(sys *body.System, eval *force.Evaluator, tier precision.Tier, dt float64) *Leapfrog {
	return &Leapfrog{sys: sys, eval: eval, tier: tier, dt: dt}
}

// Init computes accelerations at t=0 and applies the half-step velocity
// predictor v^{1/2} = v^0 + (dt/2) a^0.
func (l *Leapfrog) Init() error {
	s := l.sys
	l.eval.Accel(s)
	half := l.dt / 2
	for i := 0; i < s.N; i++ {
		s.Vel[i] = roundVec(l.tier, s.Vel[i].Add(s.Acc[i].Scale(half)))
	}
	l.t = 0
	s.Time = 0
	return nil
}

// Advance performs one drift-kick cycle:
//
//	r^{n+1}     = r^n + dt v^{n+1/2}
//	v^{n+3/2}   = v^{n+1/2} + dt a^{n+1}
func (l *Leapfrog) Advance() (float64, error) {
	s := l.sys
	for i := 0; i < s.N; i++ {
		s.Pos[i] = roundVec(l.tier, s.Pos[i].Add(s.Vel[i].Scale(l.dt)))
	}
	l.eval.Accel(s)
	for i := 0; i < s.N; i++ {
		s.Vel[i] = roundVec(l.tier, s.Vel[i].Add(s.Acc[i].Scale(l.dt)))
	}
	l.t += l.dt
	s.Time = l.t
	return l.t, nil
}

func (l *Leapfrog) Time() float64 { return l.t }

// Sync copies positions and writes synchronized on-step velocities
// v^n = v^{n+1/2} - (dt/2) a^n into dst. The half-step state used for
// continued integration is untouched.
func (l *Leapfrog) Sync(pos, vel []body.Vec3) {
	s := l.sys
	half := l.dt / 2
	copy(pos, s.Pos)
	for i := 0; i < s.N; i++ {
		vel[i] = s.Vel[i].Sub(s.Acc[i].Scale(half))
	}
}
