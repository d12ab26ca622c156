package kubeclient

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff bounds the delay between watch reconnects. The first retry
// after progress is immediate; consecutive retries wait a fully jittered
// delay that doubles from Base up to Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultBackoff is used when WatchOptions.Backoff is zero.
var DefaultBackoff = Backoff{Base: 500 * time.Millisecond, Max: 30 * time.Second}

func (b Backoff) orDefault() Backoff {
	if b.Base <= 0 {
		b.Base = DefaultBackoff.Base
	}
	if b.Max < b.Base {
		b.Max = max(DefaultBackoff.Max, b.Base)
	}
	return b
}

// sleepCtx blocks for d or until ctx is done.
// Returns true if the sleep completed (context still alive).
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

type backoff struct {
	base      time.Duration
	max       time.Duration
	current   time.Duration
	immediate bool
}

func newBackoff(cfg Backoff) *backoff {
	cfg = cfg.orDefault()
	return &backoff{base: cfg.Base, max: cfg.Max, current: cfg.Base, immediate: true}
}

// Next returns zero right after a reset, then a delay drawn uniformly
// from [0, current] while current doubles up to max.
func (b *backoff) Next() time.Duration {
	if b.immediate {
		b.immediate = false
		return 0
	}

	d := b.current
	jittered := time.Duration(rand.Int64N(int64(d) + 1))
	if next := b.current * 2; next > b.max {
		b.current = b.max
	} else {
		b.current = next
	}
	return jittered
}

// Reset makes the next delay immediate again.
func (b *backoff) Reset() {
	b.current = b.base
	b.immediate = true
}
