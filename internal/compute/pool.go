package compute

import (
	"runtime"
	"sync"
)

// Ranges shorter than this run serially; splitting them costs more than
// the work saved.
const minChunk = 16

// Pool fans the index range out over a fixed number of goroutines and
// waits for all of them. One chunk per worker keeps the per-call overhead
// at a single WaitGroup.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given worker count; workers <= 0 means
// one per CPU.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers}
}

func (p *Pool) Name() string { return "pool" }

func (p *Pool) Workers() int { return p.workers }

func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := p.workers
	if n < minChunk || workers <= 1 {
		fn(0, n)
		return
	}
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		go func(s, e int) {
			defer wg.Done()
			if s < e {
				fn(s, e)
			}
		}(start, end)
	}
	wg.Wait()
}
