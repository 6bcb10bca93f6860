package compute

// Backend supplies the parallel-for-over-particle-index capability the
// force evaluator is built on. The per-index results of a force call are
// independent, so a backend may split the range across any number of
// lanes; the call returns only after every lane finished, which is the
// barrier the integrators rely on.
type Backend interface {
	Name() string
	Workers() int
	// ParallelFor invokes fn over disjoint sub-ranges covering [0, n).
	// fn must not touch state outside its own [start, end).
	ParallelFor(n int, fn func(start, end int))
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelect()
}

// SetBackend replaces the process-wide backend. Tests and benchmarks set
// a specific execution strategy; everything else uses the auto-selected
// one.
func SetBackend(b Backend) {
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

// AutoSelect picks the worker-pool backend on multi-core hosts and the
// serial backend otherwise.
func AutoSelect() Backend {
	p := NewPool(0)
	if p.Workers() > 1 {
		return p
	}
	return NewSerial()
}
