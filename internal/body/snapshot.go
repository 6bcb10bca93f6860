package body

// Snapshot is a read-only deep copy of the particle state at a quiesced
// step boundary. Output and diagnostics consumers receive snapshots, never
// the live System owned by the stepper. Acc and Pot are present only when
// the run was configured to produce them.
type Snapshot struct {
	Time float64
	Mass []float64
	Pos  []Vec3
	Vel  []Vec3
	Acc  []Vec3
	Pot  []float64
}

// Capture copies the system state at time t with the given synchronized
// positions and velocities. pos and vel may differ from s.Pos/s.Vel when
// the stepper carries desynchronized internal state (half-step Leapfrog
// velocities, per-particle Hermite times).
func Capture(s *System, t float64, pos, vel []Vec3, withAcc, withPot bool) *Snapshot {
	snap := &Snapshot{
		Time: t,
		Mass: append([]float64(nil), s.Mass...),
		Pos:  append([]Vec3(nil), pos...),
		Vel:  append([]Vec3(nil), vel...),
	}
	if withAcc {
		snap.Acc = append([]Vec3(nil), s.Acc...)
	}
	if withPot {
		snap.Pot = append([]float64(nil), s.Pot...)
	}
	return snap
}

// N returns the particle count of the snapshot.
func (s *Snapshot) N() int { return len(s.Mass) }
