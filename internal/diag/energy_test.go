package diag

import (
	"math"
	"testing"

	"github.com/san-kum/gravlab/internal/body"
	"github.com/san-kum/gravlab/internal/compute"
	"github.com/san-kum/gravlab/internal/force"
	"github.com/san-kum/gravlab/internal/precision"
)

func twoBodySnapshot(t *testing.T) *body.Snapshot {
	t.Helper()
	s := body.NewSystem(2, 0.0001)
	s.Mass[0], s.Mass[1] = 0.5, 0.5
	s.Pos[0] = body.Vec3{X: -0.5}
	s.Pos[1] = body.Vec3{X: 0.5}
	s.Vel[0] = body.Vec3{Y: -0.5}
	s.Vel[1] = body.Vec3{Y: 0.5}

	e, err := force.New(compute.NewSerial(), precision.Mid, false)
	if err != nil {
		t.Fatal(err)
	}
	e.AccelPot(s)
	return body.Capture(s, 0, s.Pos, s.Vel, false, true)
}

func TestTwoBodyEnergy(t *testing.T) {
	snap := twoBodySnapshot(t)
	sum := Summarize(snap, precision.Mid)

	// K = 2 * (1/2)(0.5)(0.25) = 0.125, W = -m1 m2 / r = -0.25.
	if math.Abs(sum.Kinetic-0.125) > 1e-9 {
		t.Errorf("K = %g, want 0.125", sum.Kinetic)
	}
	if math.Abs(sum.Potential+0.25) > 1e-6 {
		t.Errorf("W = %g, want -0.25", sum.Potential)
	}
	if math.Abs(sum.Total-(-0.125)) > 1e-6 {
		t.Errorf("E = %g, want -0.125", sum.Total)
	}
	// Circular orbit is virialized: -K/W = 1/2.
	if math.Abs(sum.Virial-0.5) > 1e-5 {
		t.Errorf("virial = %g, want 0.5", sum.Virial)
	}
}

func TestSummarizeTiersAgree(t *testing.T) {
	snap := twoBodySnapshot(t)
	mid := Summarize(snap, precision.Mid)
	high := Summarize(snap, precision.High)
	if math.Abs(mid.Total-high.Total) > 1e-12 {
		t.Errorf("mid/high disagree: %g vs %g", mid.Total, high.Total)
	}
}

func TestMomentumOfSymmetricPair(t *testing.T) {
	snap := twoBodySnapshot(t)
	if p := Momentum(snap).Norm(); p > 1e-15 {
		t.Errorf("net momentum %g, want 0", p)
	}
	// Both bodies orbit the same way: angular momentum adds up.
	l := AngularMomentum(snap)
	if math.Abs(l.Z-0.25) > 1e-12 {
		t.Errorf("Lz = %g, want 0.25", l.Z)
	}
}
