package compute

// Serial runs the whole index range on the calling goroutine. Reference
// strategy; also the right choice for tiny systems where goroutine
// handoff costs more than the loop.
type Serial struct{}

func NewSerial() *Serial { return &Serial{} }

func (s *Serial) Name() string { return "serial" }

func (s *Serial) Workers() int { return 1 }

func (s *Serial) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	fn(0, n)
}
