package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_ReverseOrder(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())

	var order []string
	for _, name := range []string{"storage", "pool", "listener"} {
		name := name
		h.OnShutdown(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	want := []string{"listener", "pool", "storage"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done() not closed after Shutdown()")
	}
}

func TestHandler_ErrorsJoinedAndAllHooksRun(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())
	errA := errors.New("a failed")
	ran := 0

	h.OnShutdown("a", func(context.Context) error { ran++; return errA })
	h.OnShutdown("b", func(context.Context) error { ran++; return nil })

	err := h.Shutdown()
	if !errors.Is(err, errA) {
		t.Errorf("Shutdown() error = %v, want wrapping %v", err, errA)
	}
	if ran != 2 {
		t.Errorf("hooks run = %d, want 2", ran)
	}
}

func TestHandler_ShutdownOnce(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())
	calls := 0
	h.OnShutdown("x", func(context.Context) error { calls++; return nil })

	h.Shutdown()
	h.Shutdown()
	if calls != 1 {
		t.Errorf("hook calls = %d, want 1", calls)
	}
}

func TestHandler_HookDeadline(t *testing.T) {
	h := NewHandler(50*time.Millisecond, quietLogger())
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := h.Shutdown()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Shutdown() did not honour timeout")
	}
}

func TestHandler_WaitContext(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())
	called := make(chan struct{})
	h.OnShutdown("x", func(context.Context) error { close(called); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	select {
	case <-called:
	default:
		t.Error("hook not run after context cancel")
	}
}
