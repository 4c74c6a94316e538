package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newPool(t *testing.T, cfg Config, opts ...Option) *Pool[int] {
	t.Helper()
	p, err := New[int](cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(p.Shutdown)
	return p
}

func TestNew_Defaults(t *testing.T) {
	tests := []struct {
		name          string
		cfg           Config
		wantWorkers   int
		wantQueueSize int
	}{
		{"zero", Config{}, DefaultWorkers, DefaultQueueSize},
		{"negative", Config{Workers: -1, QueueSize: -1}, DefaultWorkers, DefaultQueueSize},
		{"explicit", Config{Workers: 8, QueueSize: 16}, 8, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPool(t, tt.cfg)
			if p.Workers() != tt.wantWorkers {
				t.Errorf("Workers() = %d, want %d", p.Workers(), tt.wantWorkers)
			}
			if p.QueueCapacity() != tt.wantQueueSize {
				t.Errorf("QueueCapacity() = %d, want %d", p.QueueCapacity(), tt.wantQueueSize)
			}
		})
	}
}

func TestNew_TooManyWorkers(t *testing.T) {
	_, err := New[int](Config{Workers: MaxWorkers + 1})
	if !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("New() error = %v, want ErrTooManyWorkers", err)
	}
}

func TestSubmit_ExactlyOnce(t *testing.T) {
	p := newPool(t, Config{Workers: 8, QueueSize: 4})

	const n = 1000
	var counts [n]atomic.Int32
	for i := 0; i < n; i++ {
		if err := p.Submit(func(i int) { counts[i].Add(1) }, i); err != nil {
			t.Fatalf("Submit(%d) error = %v", i, err)
		}
	}
	p.Shutdown()

	for i := range counts {
		if c := counts[i].Load(); c != 1 {
			t.Errorf("task %d ran %d times, want 1", i, c)
		}
	}
	if s := p.Stats(); s.Completed != n {
		t.Errorf("Stats().Completed = %d, want %d", s.Completed, n)
	}
}

func TestSubmit_FIFOWithSingleWorker(t *testing.T) {
	p := newPool(t, Config{Workers: 1, QueueSize: 64})

	var mu sync.Mutex
	var order []int
	for i := 0; i < 50; i++ {
		p.Submit(func(i int) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}, i)
	}
	p.Shutdown()

	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d", i, v, i)
		}
	}
	if len(order) != 50 {
		t.Errorf("ran %d tasks, want 50", len(order))
	}
}

func TestSubmit_BlocksWhenFull(t *testing.T) {
	p := newPool(t, Config{Workers: 1, QueueSize: 1})

	gate := make(chan struct{})
	started := make(chan struct{})
	p.Submit(func(int) {
		close(started)
		<-gate
	}, 0)
	<-started

	// Worker busy, this fills the queue.
	if err := p.Submit(func(int) {}, 1); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	accepted := make(chan error, 1)
	go func() { accepted <- p.Submit(func(int) {}, 2) }()

	select {
	case err := <-accepted:
		t.Fatalf("Submit() on full queue returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	select {
	case err := <-accepted:
		if err != nil {
			t.Errorf("Submit() after space freed error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Submit() stayed blocked after the queue drained")
	}
}

func TestShutdown_WakesBlockedProducer(t *testing.T) {
	p, err := New[int](Config{Workers: 1, QueueSize: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	gate := make(chan struct{})
	started := make(chan struct{})
	var ran atomic.Int32
	p.Submit(func(int) {
		close(started)
		<-gate
		ran.Add(1)
	}, 0)
	<-started
	p.Submit(func(int) { ran.Add(1) }, 1)

	blocked := make(chan error, 1)
	go func() { blocked <- p.Submit(func(int) { ran.Add(1) }, 2) }()
	time.Sleep(20 * time.Millisecond)

	shutdownDone := make(chan struct{})
	go func() {
		p.Shutdown()
		close(shutdownDone)
	}()

	select {
	case err := <-blocked:
		if !errors.Is(err, ErrPoolClosed) {
			t.Errorf("blocked Submit() error = %v, want ErrPoolClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Submit() not woken by Shutdown")
	}

	close(gate)
	select {
	case <-shutdownDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown() did not return")
	}

	// In-flight and queued tasks complete; the rejected one never runs.
	if got := ran.Load(); got != 2 {
		t.Errorf("tasks run = %d, want 2", got)
	}
}

func TestSubmit_AfterShutdown(t *testing.T) {
	p, _ := New[int](Config{Workers: 2})
	p.Shutdown()
	p.Shutdown()

	if err := p.Submit(func(int) {}, 0); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit() after Shutdown error = %v, want ErrPoolClosed", err)
	}
}

func TestSubmit_NilTask(t *testing.T) {
	p := newPool(t, Config{})
	if err := p.Submit(nil, 0); !errors.Is(err, ErrNilTask) {
		t.Errorf("Submit(nil) error = %v, want ErrNilTask", err)
	}
}

func TestPanicRecovered(t *testing.T) {
	var recovered atomic.Value
	p := newPool(t, Config{Workers: 1}, WithPanicHandler(func(v any) { recovered.Store(v) }))

	p.Submit(func(int) { panic("boom") }, 0)

	done := make(chan struct{})
	p.Submit(func(int) { close(done) }, 1)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking task")
	}
	if recovered.Load() != "boom" {
		t.Errorf("panic handler got %v, want boom", recovered.Load())
	}
	if s := p.Stats(); s.Panicked != 1 {
		t.Errorf("Stats().Panicked = %d, want 1", s.Panicked)
	}
}

func TestShutdownContext_Timeout(t *testing.T) {
	p, _ := New[int](Config{Workers: 1})
	gate := make(chan struct{})
	started := make(chan struct{})
	p.Submit(func(int) {
		close(started)
		<-gate
	}, 0)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.ShutdownContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ShutdownContext() error = %v, want DeadlineExceeded", err)
	}

	close(gate)
	if err := p.ShutdownContext(context.Background()); err != nil {
		t.Errorf("ShutdownContext() after drain error = %v", err)
	}
}

func TestPending(t *testing.T) {
	p := newPool(t, Config{Workers: 1, QueueSize: 8})
	gate := make(chan struct{})
	started := make(chan struct{})
	p.Submit(func(int) {
		close(started)
		<-gate
	}, 0)
	<-started

	for i := 0; i < 3; i++ {
		p.Submit(func(int) {}, i)
	}
	if p.Pending() != 3 {
		t.Errorf("Pending() = %d, want 3", p.Pending())
	}
	close(gate)
}
