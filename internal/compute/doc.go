// Package compute provides execution strategies for data-parallel loops
// over the particle index.
//
// The force evaluator depends only on the [Backend] contract; the
// surrounding program chooses the strategy:
//
//   - Pool: worker-pool parallelism, one chunk per CPU
//   - Serial: single goroutine, for tiny systems and reference runs
//
// Partial sums inside one index are always formed by the same lane, so a
// backend never changes results across worker counts beyond the usual
// floating-point reassociation tolerance of the configured tier.
package compute
