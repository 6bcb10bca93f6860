// Package run drives a configured stepper from t=0 to the requested
// duration: the step loop, the step-boundary divergence check, the stall
// policy and diagnostic sampling live here. The particle system is owned
// by the stepper while a step runs; observers and metrics only ever see
// quiesced snapshots.
package run

import (
	"context"

	"github.com/san-kum/gravlab/internal/body"
	"github.com/san-kum/gravlab/internal/diag"
	"github.com/san-kum/gravlab/internal/force"
	"github.com/san-kum/gravlab/internal/integrate"
	"github.com/san-kum/gravlab/internal/metrics"
	"github.com/san-kum/gravlab/internal/precision"
)

// Observer receives every sampled boundary. Output collaborators (storage,
// live view) implement it.
type Observer interface {
	OnSample(snap *body.Snapshot, sum diag.Summary)
}

// Config controls one run. Values are assumed validated by the config
// package.
type Config struct {
	Duration       float64
	SampleInterval float64 // 0 samples every step
	MaxStalls      int     // 0 disables the stall abort
	CheckFinite    bool
	WithAcc        bool // include accelerations in snapshots
	WithPot        bool // include per-particle potentials in snapshots
}

// Result is the record of a completed (or aborted) run.
type Result struct {
	Samples  []diag.Summary
	Metrics  map[string]float64
	Steps    int
	Warnings []string
	Final    *body.Snapshot
}

// Runner wires a system, a stepper and the force evaluator used for
// boundary potentials together with metrics and observers.
type Runner struct {
	sys       *body.System
	stepper   integrate.Stepper
	eval      *force.Evaluator
	diagTier  precision.Tier
	metricSet []metrics.Metric
	observers []Observer

	pos []body.Vec3
	vel []body.Vec3
}

func New(sys *body.System, stepper integrate.Stepper, eval *force.Evaluator, diagTier precision.Tier) *Runner {
	return &Runner{
		sys:      sys,
		stepper:  stepper,
		eval:     eval,
		diagTier: diagTier,
		pos:      make([]body.Vec3, sys.N),
		vel:      make([]body.Vec3, sys.N),
	}
}

func (r *Runner) AddMetric(m metrics.Metric) { r.metricSet = append(r.metricSet, m) }
func (r *Runner) AddObserver(o Observer)     { r.observers = append(r.observers, o) }

type staller interface {
	Stalls() int
}

// Run advances the system to cfg.Duration, sampling diagnostics at the
// configured interval. It returns the partial result alongside any abort
// error, so a diverged run still reports what it saw.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	res := &Result{Metrics: make(map[string]float64)}
	for _, m := range r.metricSet {
		m.Reset()
	}

	if err := r.stepper.Init(); err != nil {
		return res, err
	}

	r.sample(res, cfg)
	nextSample := cfg.SampleInterval

	// Absorbs accumulated floating-point drift of t over many steps so a
	// run neither drops nor gains a boundary step.
	const edge = 1e-9
	warnedStall := false

	for r.stepper.Time() < cfg.Duration-edge {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		// Catch state corrupted between steps (or left over from the
		// previous one) before it propagates through the all-pairs sum.
		if cfg.CheckFinite {
			if i, bad := r.sys.FirstNonFinite(); bad {
				return res, &DivergenceError{Particle: i, Step: res.Steps, Time: r.stepper.Time()}
			}
		}

		t, err := r.stepper.Advance()
		res.Steps++
		if err != nil {
			return res, err
		}

		if cfg.CheckFinite {
			if i, bad := r.sys.FirstNonFinite(); bad {
				return res, &DivergenceError{Particle: i, Step: res.Steps, Time: t}
			}
		}

		if st, ok := r.stepper.(staller); ok && st.Stalls() > 0 {
			if !warnedStall {
				res.Warnings = append(res.Warnings, "timestep hierarchy collapsed to the minimum block step")
				warnedStall = true
			}
			if cfg.MaxStalls > 0 && st.Stalls() >= cfg.MaxStalls {
				return res, &StallError{Consecutive: st.Stalls(), Time: t}
			}
		}

		if cfg.SampleInterval <= 0 {
			r.sample(res, cfg)
		} else if t >= nextSample-edge {
			r.sample(res, cfg)
			for t >= nextSample-edge {
				nextSample += cfg.SampleInterval
			}
		}
	}

	for _, m := range r.metricSet {
		res.Metrics[m.Name()] = m.Value()
	}
	res.Final = r.capture(cfg)
	return res, nil
}

// sample synchronizes the state, refreshes potentials and fans the
// snapshot out to diagnostics, metrics and observers.
func (r *Runner) sample(res *Result, cfg Config) {
	snap := r.capture(cfg)
	sum := diag.Summarize(snap, r.diagTier)
	res.Samples = append(res.Samples, sum)
	for _, m := range r.metricSet {
		m.Observe(sum, snap)
	}
	for _, o := range r.observers {
		o.OnSample(snap, sum)
	}
}

func (r *Runner) capture(cfg Config) *body.Snapshot {
	r.stepper.Sync(r.pos, r.vel)
	if cfg.WithPot {
		r.eval.Potential(r.sys.Mass, r.pos, r.sys.Eps, r.sys.G, r.sys.Pot)
	}
	return body.Capture(r.sys, r.stepper.Time(), r.pos, r.vel, cfg.WithAcc, cfg.WithPot)
}
