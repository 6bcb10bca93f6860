// Package diag computes run invariants from snapshots: kinetic and
// potential energy, total energy and virial ratio. Pure functions; the
// particle store is never mutated. Integrators do not consult these
// values — they exist for validation and reporting.
package diag

import (
	"github.com/san-kum/gravlab/internal/body"
	"github.com/san-kum/gravlab/internal/precision"
)

// Summary is the (time, K, W, E, virial) tuple handed to diagnostics
// consumers at step boundaries.
type Summary struct {
	Time      float64 `json:"time"`
	Kinetic   float64 `json:"kinetic"`
	Potential float64 `json:"potential"`
	Total     float64 `json:"total"`
	Virial    float64 `json:"virial"`
}

// Summarize reduces a snapshot. The factor 1/2 on W avoids double
// counting pairs. Accumulation runs at the diagnostics tier; High uses
// compensated sums. Snapshots without potentials (runs configured with
// potential computation off) report W = 0 and a zero virial ratio.
func Summarize(snap *body.Snapshot, tier precision.Tier) Summary {
	pot := func(i int) float64 {
		if snap.Pot == nil {
			return 0
		}
		return snap.Pot[i]
	}

	var k, w float64
	if tier == precision.High {
		var ks, ws precision.KahanSum
		for i := 0; i < snap.N(); i++ {
			ks.Add(0.5 * snap.Mass[i] * snap.Vel[i].Norm2())
			ws.Add(0.5 * snap.Mass[i] * pot(i))
		}
		k, w = ks.Value(), ws.Value()
	} else {
		for i := 0; i < snap.N(); i++ {
			k += 0.5 * snap.Mass[i] * snap.Vel[i].Norm2()
			w += 0.5 * snap.Mass[i] * pot(i)
		}
		if tier == precision.Low {
			k = tier.Round(k)
			w = tier.Round(w)
		}
	}

	sum := Summary{Time: snap.Time, Kinetic: k, Potential: w, Total: k + w}
	if w != 0 {
		sum.Virial = -k / w
	}
	return sum
}

// Momentum returns the total linear momentum of a snapshot.
func Momentum(snap *body.Snapshot) body.Vec3 {
	var p body.Vec3
	for i := 0; i < snap.N(); i++ {
		p = p.Add(snap.Vel[i].Scale(snap.Mass[i]))
	}
	return p
}

// AngularMomentum returns the total angular momentum about the origin.
func AngularMomentum(snap *body.Snapshot) body.Vec3 {
	var l body.Vec3
	for i := 0; i < snap.N(); i++ {
		l = l.Add(snap.Pos[i].Cross(snap.Vel[i]).Scale(snap.Mass[i]))
	}
	return l
}
