package coordinator

import "sync"

// breaker suspends a site for the rest of the session once it produces
// threshold consecutive failures. There is no half-open state: a new
// session starts with every breaker closed.
type breaker struct {
	threshold int

	mu          sync.Mutex
	consecutive map[string]int
	open        map[string]bool
}

func newBreaker(threshold int) *breaker {
	return &breaker{
		threshold:   threshold,
		consecutive: map[string]int{},
		open:        map[string]bool{},
	}
}

func (b *breaker) Allow(site string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.open[site]
}

func (b *breaker) Success(site string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive[site] = 0
}

// Failure records a site-level failure and reports whether the breaker
// just tripped.
func (b *breaker) Failure(site string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutive[site]++
	if b.consecutive[site] >= b.threshold && !b.open[site] {
		b.open[site] = true
		return true
	}
	return false
}
