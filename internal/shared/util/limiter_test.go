package util

import (
	"context"
	"testing"
	"time"
)

func waitWithin(l *Limiter, d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return l.Wait(ctx)
}

func TestLimiter(t *testing.T) {
	// 10 per second, burst of 2
	l := NewLimiter(10, 2)

	for i := 0; i < 2; i++ {
		if err := waitWithin(l, 20*time.Millisecond); err != nil {
			t.Fatalf("event %d within the burst was delayed: %v", i, err)
		}
	}
	if err := waitWithin(l, 20*time.Millisecond); err == nil {
		t.Error("expected third event to need more than 20ms")
	}
	if err := waitWithin(l, time.Second); err != nil {
		t.Errorf("expected a token after refill: %v", err)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	l := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if err := waitWithin(l, time.Millisecond); err != nil {
			t.Fatalf("event %d delayed by an unlimited limiter: %v", i, err)
		}
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := waitWithin(l, 20*time.Millisecond); err == nil {
		t.Fatal("expected wait to fail once the context expires")
	}
}
