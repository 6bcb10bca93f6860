package run

import (
	"errors"
	"fmt"
)

// Run-time failure taxonomy. Configuration defects are caught by the
// config package before a runner is ever built; everything here is
// detected while stepping. There are no recoverable transients: every
// detected anomaly aborts the run.
var (
	// ErrDiverged indicates a particle's state became NaN or Inf.
	ErrDiverged = errors.New("run: numeric divergence (NaN or Inf in particle state)")

	// ErrStalled indicates every Hermite timestep collapsed to the
	// minimum block step for too many consecutive blocks.
	ErrStalled = errors.New("run: timestep scheduling stalled at the minimum block step")
)

// DivergenceError reports which particle went non-finite and when.
type DivergenceError struct {
	Particle int
	Step     int
	Time     float64
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("particle %d non-finite at step %d (t=%.6g)", e.Particle, e.Step, e.Time)
}

func (e *DivergenceError) Unwrap() error { return ErrDiverged }

// StallError reports how long the scheduler was pinned at the minimum
// step before the run gave up.
type StallError struct {
	Consecutive int
	Time        float64
}

func (e *StallError) Error() string {
	return fmt.Sprintf("all timesteps at minimum for %d consecutive blocks (t=%.6g)", e.Consecutive, e.Time)
}

func (e *StallError) Unwrap() error { return ErrStalled }
