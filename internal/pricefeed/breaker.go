package pricefeed

import (
	"sync"
	"time"
)

// breaker trips after a run of consecutive feed failures and keeps the
// remote feed out of the quote path until the cool-off expires. One probe is
// allowed through per cool-off window.
type breaker struct {
	mu          sync.Mutex
	maxFailures int
	coolOff     time.Duration
	failures    int
	openedAt    time.Time
}

func newBreaker(maxFailures int, coolOff time.Duration) *breaker {
	if maxFailures < 1 {
		maxFailures = 3
	}
	if coolOff <= 0 {
		coolOff = 30 * time.Second
	}
	return &breaker{maxFailures: maxFailures, coolOff: coolOff}
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.maxFailures {
		return true
	}
	if time.Since(b.openedAt) >= b.coolOff {
		// Half-open: let one probe through and re-arm the window.
		b.openedAt = time.Now()
		return true
	}
	return false
}

func (b *breaker) report(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if success {
		b.failures = 0
		b.openedAt = time.Time{}
		return
	}
	b.failures++
	if b.failures == b.maxFailures {
		b.openedAt = time.Now()
	}
}
