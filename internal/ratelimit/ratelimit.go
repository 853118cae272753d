package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// RateLimiter spaces consecutive actions.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Pacer keeps a gap drawn uniformly from [min, max] between two actions. The gap never changes
// with the outcome of an action. The first Wait returns at once.
type Pacer struct {
	mu   sync.Mutex
	min  time.Duration
	max  time.Duration
	last time.Time
}

var _ RateLimiter = (*Pacer)(nil)

func NewPacer(min, max time.Duration) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Pacer{min: min, max: max}
}

func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if remaining := p.gap() - time.Since(p.last); remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	p.last = time.Now()
	return nil
}

func (p *Pacer) gap() time.Duration {
	if p.max <= p.min {
		return p.min
	}
	return p.min + time.Duration(rand.Int63n(int64(p.max-p.min)+1))
}
