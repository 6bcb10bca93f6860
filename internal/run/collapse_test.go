package run

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/gravlab/internal/compute"
	"github.com/san-kum/gravlab/internal/force"
	"github.com/san-kum/gravlab/internal/ic"
	"github.com/san-kum/gravlab/internal/integrate"
	"github.com/san-kum/gravlab/internal/metrics"
	"github.com/san-kum/gravlab/internal/precision"
)

// Cold collapse: N particles at rest in the unit sphere, total mass 1.
// Free-fall time is ~1.11; after a few of them the system virializes.
func TestColdCollapse(t *testing.T) {
	if testing.Short() {
		t.Skip("long integration")
	}

	sys := ic.ColdCollapse(48, 0.1, 1234)
	eval, err := force.New(compute.NewPool(0), precision.Mid, false)
	if err != nil {
		t.Fatal(err)
	}
	lf := integrate.NewLeapfrog(sys, eval, precision.Mid, 2.5e-4)

	r := New(sys, lf, eval, precision.High)
	drift := metrics.NewEnergyDrift()
	r.AddMetric(drift)

	res, err := r.Run(context.Background(), Config{
		Duration:       4.0,
		SampleInterval: 0.05,
		CheckFinite:    true,
		WithPot:        true,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Energy bound through the collapse and rebound.
	if d := res.Metrics["energy_drift"]; d > 0.1 {
		t.Errorf("energy drifted by %g through collapse, want < 0.1", d)
	}

	// Virial equilibrium after several free-fall times: average -K/W over
	// the last free-fall time of the run.
	virial := 0.0
	n := 0
	for _, s := range res.Samples {
		if s.Time >= 3.0 {
			virial += s.Virial
			n++
		}
	}
	if n == 0 {
		t.Fatal("no late-time samples")
	}
	virial /= float64(n)
	if virial < 0.25 || virial > 0.8 {
		t.Errorf("late-time virial ratio %g, want ~0.5", virial)
	}

	// Everything stayed finite and the initial energy was negative
	// (bound system).
	if res.Samples[0].Total >= 0 {
		t.Errorf("initial energy %g should be negative", res.Samples[0].Total)
	}
	if math.IsNaN(res.Samples[len(res.Samples)-1].Total) {
		t.Error("final energy is NaN")
	}
}
