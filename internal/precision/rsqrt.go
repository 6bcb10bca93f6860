package precision

import "math"

// InvSqrt32 approximates 1/sqrt(x) in float32: a bit-pattern seed refined
// by one Newton-Raphson iteration. Relative error stays below about 2e-3
// over the normal range. Only the Low force tier may use it, and only when
// the run explicitly enables the approximation; it is never mixed with
// exact evaluation within one run.
func InvSqrt32(x float32) float32 {
	i := math.Float32bits(x)
	i = 0x5f3759df - (i >> 1)
	y := math.Float32frombits(i)
	y = y * (1.5 - 0.5*x*y*y)
	return y
}
