package force

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/gravlab/internal/body"
	"github.com/san-kum/gravlab/internal/compute"
	"github.com/san-kum/gravlab/internal/precision"
)

func newMid(t *testing.T) *Evaluator {
	t.Helper()
	e, err := New(compute.NewSerial(), precision.Mid, false)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func randomSystem(n int, eps float64, seed int64) *body.System {
	rng := rand.New(rand.NewSource(seed))
	s := body.NewSystem(n, eps)
	for i := 0; i < n; i++ {
		s.Mass[i] = 0.5 + rng.Float64()
		s.Pos[i] = body.Vec3{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		s.Vel[i] = body.Vec3{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
	}
	return s
}

func TestPairwiseAntisymmetry(t *testing.T) {
	// For an isolated pair, momentum conservation m_i*a_i = -m_j*a_j is
	// exactly the f_ij = -f_ji property of the raw pairwise term.
	e := newMid(t)
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 20; trial++ {
		s := body.NewSystem(2, 0.05)
		s.Mass[0] = 0.1 + rng.Float64()*3
		s.Mass[1] = 0.1 + rng.Float64()*3
		for i := 0; i < 2; i++ {
			s.Pos[i] = body.Vec3{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		}
		e.Accel(s)
		f0 := s.Acc[0].Scale(s.Mass[0])
		f1 := s.Acc[1].Scale(s.Mass[1])
		if d := f0.Add(f1).Norm(); d > 1e-14*(f0.Norm()+1) {
			t.Fatalf("trial %d: pair forces not antisymmetric, residual %g", trial, d)
		}
	}
}

func TestSingleParticleZeroForce(t *testing.T) {
	e := newMid(t)
	s := body.NewSystem(1, 0.01)
	s.Mass[0] = 1.0
	s.Pos[0] = body.Vec3{X: 3, Y: -1, Z: 2}
	e.AccelPot(s)
	if s.Acc[0] != (body.Vec3{}) {
		t.Errorf("single particle should feel zero acceleration, got %+v", s.Acc[0])
	}
	if s.Pot[0] != 0 {
		t.Errorf("single particle should have zero potential, got %g", s.Pot[0])
	}
}

func TestPaddingNeutrality(t *testing.T) {
	e := newMid(t)

	real3 := randomSystem(3, 0.05, 9)
	padded := body.NewSystem(5, 0.05)
	copy(padded.Mass, real3.Mass)
	copy(padded.Pos, real3.Pos)
	copy(padded.Vel, real3.Vel)
	// Two zero-mass padding particles sitting in awkward places.
	padded.Pos[3] = body.Vec3{X: 0.01, Y: 0.01}
	padded.Pos[4] = real3.Pos[0].Add(body.Vec3{X: 1e-3})

	e.AccelPot(real3)
	e.AccelPot(padded)

	for i := 0; i < 3; i++ {
		if d := real3.Acc[i].Sub(padded.Acc[i]).Norm(); d != 0 {
			t.Errorf("particle %d acceleration perturbed by padding: %g", i, d)
		}
		if real3.Pot[i] != padded.Pot[i] {
			t.Errorf("particle %d potential perturbed by padding", i)
		}
	}

	// Padding particles still feel gravity from the real ones.
	if padded.Acc[3].Norm() == 0 {
		t.Error("padding particle should experience gravity from real particles")
	}
}

func TestTwoBodyAnalytic(t *testing.T) {
	e := newMid(t)
	s := body.NewSystem(2, 0.1)
	s.Mass[0], s.Mass[1] = 2.0, 3.0
	s.Pos[1] = body.Vec3{X: 1.5}

	e.AccelPot(s)

	r2 := 1.5*1.5 + 0.1*0.1
	wantA0 := 3.0 * 1.5 / math.Pow(r2, 1.5)
	wantPhi0 := -3.0 / math.Sqrt(r2)

	if math.Abs(s.Acc[0].X-wantA0) > 1e-14 {
		t.Errorf("acc: got %g want %g", s.Acc[0].X, wantA0)
	}
	if s.Acc[0].Y != 0 || s.Acc[0].Z != 0 {
		t.Error("off-axis acceleration should be zero")
	}
	if math.Abs(s.Pot[0]-wantPhi0) > 1e-14 {
		t.Errorf("pot: got %g want %g", s.Pot[0], wantPhi0)
	}
}

func TestJerkMatchesFiniteDifference(t *testing.T) {
	e := newMid(t)
	s := randomSystem(6, 0.2, 17)

	acc := make([]body.Vec3, s.N)
	jerk := make([]body.Vec3, s.N)
	e.AccelJerk(s.Mass, s.Pos, s.Vel, s.Eps, s.G, nil, acc, jerk)

	// Central difference of the acceleration along the free-drift path.
	h := 1e-6
	shift := func(sign float64) []body.Vec3 {
		p := make([]body.Vec3, s.N)
		for i := range p {
			p[i] = s.Pos[i].Add(s.Vel[i].Scale(sign * h))
		}
		return p
	}
	aPlus := make([]body.Vec3, s.N)
	aMinus := make([]body.Vec3, s.N)
	dummy := make([]body.Vec3, s.N)
	e.AccelJerk(s.Mass, shift(1), s.Vel, s.Eps, s.G, nil, aPlus, dummy)
	e.AccelJerk(s.Mass, shift(-1), s.Vel, s.Eps, s.G, nil, aMinus, dummy)

	for i := 0; i < s.N; i++ {
		fd := aPlus[i].Sub(aMinus[i]).Scale(1 / (2 * h))
		d := fd.Sub(jerk[i]).Norm()
		scale := jerk[i].Norm() + 1
		if d/scale > 1e-4 {
			t.Errorf("particle %d: jerk %v vs finite difference %v", i, jerk[i], fd)
		}
	}
}

func TestAccelMatchesAccelJerk(t *testing.T) {
	e := newMid(t)
	s := randomSystem(8, 0.1, 23)

	e.Accel(s)
	acc := make([]body.Vec3, s.N)
	jerk := make([]body.Vec3, s.N)
	e.AccelJerk(s.Mass, s.Pos, s.Vel, s.Eps, s.G, nil, acc, jerk)

	for i := 0; i < s.N; i++ {
		if d := s.Acc[i].Sub(acc[i]).Norm(); d > 1e-13 {
			t.Errorf("particle %d: accel paths disagree by %g", i, d)
		}
	}
}

func TestAccelJerkTargetSubset(t *testing.T) {
	e := newMid(t)
	s := randomSystem(6, 0.1, 31)

	full := make([]body.Vec3, s.N)
	fullJ := make([]body.Vec3, s.N)
	e.AccelJerk(s.Mass, s.Pos, s.Vel, s.Eps, s.G, nil, full, fullJ)

	acc := make([]body.Vec3, s.N)
	jerk := make([]body.Vec3, s.N)
	targets := []int{1, 4}
	e.AccelJerk(s.Mass, s.Pos, s.Vel, s.Eps, s.G, targets, acc, jerk)

	for _, i := range targets {
		if acc[i] != full[i] || jerk[i] != fullJ[i] {
			t.Errorf("target %d differs from full evaluation", i)
		}
	}
	// Non-targets untouched.
	if acc[0] != (body.Vec3{}) || jerk[3] != (body.Vec3{}) {
		t.Error("non-target slots were written")
	}
}

func TestLowTierTracksMid(t *testing.T) {
	s := randomSystem(16, 0.1, 41)

	mid := newMid(t)
	low, err := New(compute.NewSerial(), precision.Low, false)
	if err != nil {
		t.Fatal(err)
	}

	mid.Accel(s)
	ref := append([]body.Vec3(nil), s.Acc...)
	low.Accel(s)

	for i := 0; i < s.N; i++ {
		rel := s.Acc[i].Sub(ref[i]).Norm() / (ref[i].Norm() + 1e-30)
		if rel > 1e-4 {
			t.Errorf("particle %d: low tier deviates by %g", i, rel)
		}
	}
}

func TestApproxRsqrtBoundedError(t *testing.T) {
	s := randomSystem(16, 0.1, 43)

	exact, err := New(compute.NewSerial(), precision.Low, false)
	if err != nil {
		t.Fatal(err)
	}
	approx, err := New(compute.NewSerial(), precision.Low, true)
	if err != nil {
		t.Fatal(err)
	}

	exact.Accel(s)
	ref := append([]body.Vec3(nil), s.Acc...)
	approx.Accel(s)

	for i := 0; i < s.N; i++ {
		rel := s.Acc[i].Sub(ref[i]).Norm() / (ref[i].Norm() + 1e-30)
		if rel > 1e-2 {
			t.Errorf("particle %d: approx rsqrt deviates by %g", i, rel)
		}
	}
}

func TestApproxRsqrtRequiresLowTier(t *testing.T) {
	if _, err := New(compute.NewSerial(), precision.Mid, true); err == nil {
		t.Error("approx rsqrt with mid tier should be rejected")
	}
	if _, err := New(compute.NewSerial(), precision.High, true); err == nil {
		t.Error("approx rsqrt with high tier should be rejected")
	}
}

func TestBackendsAgree(t *testing.T) {
	s := randomSystem(64, 0.1, 51)

	serial, _ := New(compute.NewSerial(), precision.Mid, false)
	pooled, _ := New(compute.NewPool(4), precision.Mid, false)

	serial.Accel(s)
	ref := append([]body.Vec3(nil), s.Acc...)
	pooled.Accel(s)

	// Per-i sums are formed by a single lane in both strategies, so the
	// results are bit-identical.
	for i := 0; i < s.N; i++ {
		if s.Acc[i] != ref[i] {
			t.Errorf("particle %d: pool backend differs from serial", i)
		}
	}
}

func BenchmarkAccelMid256(b *testing.B) {
	s := randomSystem(256, 0.1, 61)
	e, _ := New(compute.NewSerial(), precision.Mid, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Accel(s)
	}
}

func BenchmarkAccelLowApprox256(b *testing.B) {
	s := randomSystem(256, 0.1, 61)
	e, _ := New(compute.NewSerial(), precision.Low, true)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Accel(s)
	}
}

func BenchmarkAccelPool256(b *testing.B) {
	s := randomSystem(256, 0.1, 61)
	e, _ := New(compute.NewPool(0), precision.Mid, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Accel(s)
	}
}
