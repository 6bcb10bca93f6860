// Package precision defines the numeric precision tiers and the policy
// assigning a tier to each quantity class. The policy is a pure
// configuration input: it changes the arithmetic used by the force
// evaluator, the integrators and the diagnostics, never their control
// flow.
package precision

import "fmt"

// Tier names one of the three precision levels.
//
//	Low  — float32 arithmetic for individual terms
//	Mid  — float64 arithmetic
//	High — float64 arithmetic with compensated accumulation
type Tier int

const (
	Low Tier = iota
	Mid
	High
)

func (t Tier) String() string {
	switch t {
	case Low:
		return "low"
	case Mid:
		return "mid"
	case High:
		return "high"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier maps a config string to a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "low":
		return Low, nil
	case "mid":
		return Mid, nil
	case "high":
		return High, nil
	}
	return Mid, fmt.Errorf("unknown precision tier %q (want low, mid or high)", s)
}

// Policy assigns a tier to each quantity class. Fixed for a run.
type Policy struct {
	Force       Tier // pairwise force/potential/jerk terms
	Integrate   Tier // position/velocity update arithmetic
	Diagnostics Tier // energy/virial accumulation
}

// DefaultPolicy is all-Mid: plain float64 everywhere.
func DefaultPolicy() Policy {
	return Policy{Force: Mid, Integrate: Mid, Diagnostics: Mid}
}

// Round passes x through the storage precision of the tier. Low rounds
// to float32; Mid and High are exact for a single value.
func (t Tier) Round(x float64) float64 {
	if t == Low {
		return float64(float32(x))
	}
	return x
}
