package benchmark

import "sync"

// barrier is a single-use rendezvous: Wait blocks until n goroutines have
// called it, then releases all of them together.
type barrier struct {
	mu      sync.Mutex
	n       int
	arrived int
	release chan struct{}
}

func newBarrier(n int) *barrier {
	b := &barrier{n: n, release: make(chan struct{})}
	if n <= 0 {
		close(b.release)
	}
	return b
}

func (b *barrier) Wait() {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.n {
		close(b.release)
	}
	b.mu.Unlock()
	<-b.release
}
