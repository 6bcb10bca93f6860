// Package metrics defines step-boundary observers that reduce a run to
// scalar quality figures: energy drift, momentum drift. Metrics consume
// quiesced snapshots only; they never see mid-step state.
package metrics

import (
	"math"

	"github.com/san-kum/gravlab/internal/body"
	"github.com/san-kum/gravlab/internal/diag"
)

// Metric accumulates a scalar over the sampled boundaries of one run.
type Metric interface {
	Name() string
	Observe(sum diag.Summary, snap *body.Snapshot)
	Value() float64
	Reset()
}

// EnergyDrift tracks the maximum relative deviation of total energy from
// its initial value.
type EnergyDrift struct {
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift { return &EnergyDrift{} }

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(sum diag.Summary, _ *body.Snapshot) {
	if e.samples == 0 {
		e.initial = sum.Total
	}
	e.samples++
	if e.initial != 0 {
		drift := math.Abs(sum.Total-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift tracks the maximum deviation of total linear momentum
// from its initial value. Exact pairwise antisymmetry keeps this near the
// rounding floor for any correct kernel.
type MomentumDrift struct {
	initial  body.Vec3
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift { return &MomentumDrift{} }

func (m *MomentumDrift) Name() string { return "momentum_drift" }

func (m *MomentumDrift) Observe(_ diag.Summary, snap *body.Snapshot) {
	p := diag.Momentum(snap)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, p.Sub(m.initial).Norm())
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = body.Vec3{}
	m.maxDrift = 0
	m.samples = 0
}

// AngularMomentumDrift tracks the maximum deviation of total angular
// momentum about the origin from its initial value.
type AngularMomentumDrift struct {
	initial  body.Vec3
	maxDrift float64
	samples  int
}

func NewAngularMomentumDrift() *AngularMomentumDrift { return &AngularMomentumDrift{} }

func (m *AngularMomentumDrift) Name() string { return "angular_momentum_drift" }

func (m *AngularMomentumDrift) Observe(_ diag.Summary, snap *body.Snapshot) {
	l := diag.AngularMomentum(snap)
	if m.samples == 0 {
		m.initial = l
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, l.Sub(m.initial).Norm())
}

func (m *AngularMomentumDrift) Value() float64 { return m.maxDrift }

func (m *AngularMomentumDrift) Reset() {
	m.initial = body.Vec3{}
	m.maxDrift = 0
	m.samples = 0
}

// VirialMean averages the virial ratio over the observed samples; near
// 0.5 for a system in dynamical equilibrium.
type VirialMean struct {
	sum     float64
	samples int
}

func NewVirialMean() *VirialMean { return &VirialMean{} }

func (v *VirialMean) Name() string { return "virial_mean" }

func (v *VirialMean) Observe(sum diag.Summary, _ *body.Snapshot) {
	v.sum += sum.Virial
	v.samples++
}

func (v *VirialMean) Value() float64 {
	if v.samples == 0 {
		return 0
	}
	return v.sum / float64(v.samples)
}

func (v *VirialMean) Reset() {
	v.sum = 0
	v.samples = 0
}
