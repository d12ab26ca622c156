package kubeclient

import (
	"context"
	"testing"
	"time"
)

func TestBackoff_ImmediateThenBounded(t *testing.T) {
	b := newBackoff(Backoff{Base: 10 * time.Millisecond, Max: 40 * time.Millisecond})

	if d := b.Next(); d != 0 {
		t.Fatalf("first delay = %v, want 0", d)
	}

	caps := []time.Duration{10, 20, 40, 40, 40}
	for i, c := range caps {
		limit := c * time.Millisecond
		if d := b.Next(); d < 0 || d > limit {
			t.Errorf("delay %d = %v, want within [0, %v]", i, d, limit)
		}
	}

	b.Reset()
	if d := b.Next(); d != 0 {
		t.Errorf("delay after reset = %v, want 0", d)
	}
}

func TestBackoff_Defaults(t *testing.T) {
	got := Backoff{}.orDefault()
	if got != DefaultBackoff {
		t.Errorf("got %+v, want %+v", got, DefaultBackoff)
	}

	got = Backoff{Base: time.Minute}.orDefault()
	if got.Max != time.Minute {
		t.Errorf("max = %v, want base when base exceeds default max", got.Max)
	}
}

func TestSleepCtx(t *testing.T) {
	if !sleepCtx(context.Background(), 0) {
		t.Error("zero sleep on live context should succeed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sleepCtx(ctx, time.Hour) {
		t.Error("sleep on cancelled context should fail")
	}
	if sleepCtx(ctx, 0) {
		t.Error("zero sleep on cancelled context should fail")
	}
}
