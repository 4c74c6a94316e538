package service

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimiter_Window(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(&RateLimitConfig{Window: time.Minute, MaxAttempts: 5}, WithClock(clock.Now))

	for i := 1; i <= 5; i++ {
		if !l.Check("10.0.0.1") {
			t.Fatalf("Check() attempt %d = false, want true", i)
		}
	}
	if l.Check("10.0.0.1") {
		t.Error("Check() attempt 6 = true, want false")
	}

	// Exactly at the window edge the window is still open.
	clock.Advance(time.Minute)
	if l.Check("10.0.0.1") {
		t.Error("Check() at window edge = true, want false")
	}

	clock.Advance(time.Second)
	if !l.Check("10.0.0.1") {
		t.Error("Check() after window = false, want true")
	}
}

func TestRateLimiter_IndependentAddresses(t *testing.T) {
	l := NewRateLimiter(&RateLimitConfig{MaxAttempts: 1})

	if !l.Check("a") || !l.Check("b") {
		t.Fatal("first attempt from each address should be allowed")
	}
	if l.Check("a") {
		t.Error("second attempt from a = true")
	}
}

func TestRateLimiter_EmptyIP(t *testing.T) {
	l := NewRateLimiter(nil)
	if l.Check("") {
		t.Error("Check(\"\") = true, want false")
	}
	if l.Count() != 0 {
		t.Errorf("Count() = %d, want 0", l.Count())
	}
}

func TestRateLimiter_EvictsOldestWindow(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(&RateLimitConfig{Capacity: 3, Window: time.Hour, MaxAttempts: 1}, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		l.Check(fmt.Sprintf("ip-%d", i))
		clock.Advance(time.Second)
	}

	// ip-0 has the oldest window and is replaced.
	if !l.Check("ip-3") {
		t.Fatal("Check() for new address on full table = false")
	}
	if l.Count() != 3 {
		t.Errorf("Count() = %d, want 3", l.Count())
	}
	if !l.Check("ip-0") {
		t.Error("evicted address should start a fresh window")
	}
	// ip-1 was evicted to make room for ip-0.
	if l.Check("ip-2") {
		t.Error("ip-2 should still be limited")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(&RateLimitConfig{Window: time.Minute}, WithClock(clock.Now))

	l.Check("old-1")
	l.Check("old-2")
	clock.Advance(45 * time.Second)
	l.Check("fresh")
	clock.Advance(30 * time.Second)

	if n := l.Cleanup(); n != 2 {
		t.Errorf("Cleanup() = %d, want 2", n)
	}
	if l.Count() != 1 {
		t.Errorf("Count() = %d, want 1", l.Count())
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	l := NewRateLimiter(&RateLimitConfig{})
	if l.Capacity() != 100 {
		t.Errorf("Capacity() = %d, want 100", l.Capacity())
	}
	if l.Window() != time.Minute {
		t.Errorf("Window() = %v, want 1m", l.Window())
	}
}

func TestRateLimiter_ConcurrentCheck(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(&RateLimitConfig{Window: time.Minute, MaxAttempts: 5}, WithClock(clock.Now))

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
		start   = make(chan struct{})
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if l.Check("10.0.0.1") {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := allowed.Load(); got != 5 {
		t.Errorf("allowed = %d, want 5", got)
	}
}

func TestRateLimiter_ConcurrentEviction(t *testing.T) {
	l := NewRateLimiter(&RateLimitConfig{Capacity: 10, Window: time.Minute, MaxAttempts: 5})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				l.Check(fmt.Sprintf("10.%d.0.%d", g, i%50))
				l.Count()
			}
		}(g)
	}
	wg.Wait()

	if n := l.Count(); n > 10 {
		t.Errorf("Count() = %d, want at most capacity 10", n)
	}
}
