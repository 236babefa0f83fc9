package omdb

import (
	"sync"
	"time"
)

// Pacer spaces successive external calls by a fixed delay. The clock and
// sleep functions are injectable so tests capture waits instead of
// sleeping for real.
type Pacer struct {
	mu            sync.Mutex
	delay         time.Duration
	nextAllowedAt time.Time
	now           func() time.Time
	sleep         func(time.Duration)
}

func NewPacer(delay time.Duration) *Pacer {
	if delay < 0 {
		delay = 0
	}
	return &Pacer{delay: delay, now: time.Now, sleep: time.Sleep}
}

func (p *Pacer) Wait() {
	p.mu.Lock()
	now := p.now()
	scheduled := now
	if p.nextAllowedAt.After(now) {
		scheduled = p.nextAllowedAt
	}
	p.nextAllowedAt = scheduled.Add(p.delay)
	p.mu.Unlock()

	if wait := scheduled.Sub(now); wait > 0 {
		p.sleep(wait)
	}
}
