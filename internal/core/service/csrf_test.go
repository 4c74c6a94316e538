package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
)

func TestCSRFManager_OneTimeUse(t *testing.T) {
	m := NewCSRFManager(nil)

	tok, err := m.Generate("session-a")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !m.Validate(tok, "session-a") {
		t.Fatal("first Validate() = false, want true")
	}
	if m.Validate(tok, "session-a") {
		t.Error("second Validate() = true, want false")
	}
}

func TestCSRFManager_SessionMismatchKeepsToken(t *testing.T) {
	m := NewCSRFManager(nil)

	tok, _ := m.Generate("session-a")

	if m.Validate(tok, "session-b") {
		t.Fatal("Validate() with another session = true")
	}
	if !m.Validate(tok, "session-a") {
		t.Error("Validate() with the bound session after a mismatch = false, want true")
	}
}

func TestCSRFManager_Expiry(t *testing.T) {
	clock := newFakeClock()
	m := NewCSRFManager(&CSRFConfig{Timeout: time.Hour}, WithClock(clock.Now))

	tok, _ := m.Generate("s")
	clock.Advance(time.Hour + time.Second)

	if m.Validate(tok, "s") {
		t.Error("Validate() after timeout = true")
	}
	if m.Count() != 0 {
		t.Errorf("Count() after expired validation = %d, want 0", m.Count())
	}
}

func TestCSRFManager_Capacity(t *testing.T) {
	clock := newFakeClock()
	m := NewCSRFManager(&CSRFConfig{Capacity: 2, Timeout: time.Minute}, WithClock(clock.Now))

	m.Generate("s")
	m.Generate("s")
	if _, err := m.Generate("s"); !errors.Is(err, domain.ErrCSRFCapacity) {
		t.Fatalf("Generate() on full table error = %v, want ErrCSRFCapacity", err)
	}

	clock.Advance(2 * time.Minute)
	if _, err := m.Generate("s"); err != nil {
		t.Errorf("Generate() after expiry error = %v", err)
	}
}

func TestCSRFManager_GenerateRequiresSession(t *testing.T) {
	m := NewCSRFManager(nil)
	if _, err := m.Generate(""); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("Generate(\"\") error = %v, want ErrMissingArgument", err)
	}
	if m.Validate("", "s") || m.Validate("x", "") {
		t.Error("Validate() with empty argument = true")
	}
}

func TestCSRFManager_RevokeSession(t *testing.T) {
	m := NewCSRFManager(nil)

	a1, _ := m.Generate("session-a")
	m.Generate("session-a")
	b1, _ := m.Generate("session-b")

	if n := m.RevokeSession("session-a"); n != 2 {
		t.Errorf("RevokeSession() = %d, want 2", n)
	}
	if m.Validate(a1, "session-a") {
		t.Error("revoked token still validates")
	}
	if !m.Validate(b1, "session-b") {
		t.Error("RevokeSession() removed another session's token")
	}
}

func TestCSRFManager_CleanupExpired(t *testing.T) {
	clock := newFakeClock()
	m := NewCSRFManager(&CSRFConfig{Timeout: time.Minute}, WithClock(clock.Now))

	m.Generate("s")
	clock.Advance(40 * time.Second)
	live, _ := m.Generate("s")
	clock.Advance(30 * time.Second)

	if n := m.CleanupExpired(); n != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", n)
	}
	if !m.Validate(live, "s") {
		t.Error("CleanupExpired() removed a live token")
	}
}

func TestCSRFManager_ConcurrentValidate(t *testing.T) {
	m := NewCSRFManager(nil)
	tok, err := m.Generate("session-a")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	const workers = 64
	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
		start    = make(chan struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			session := "session-a"
			if i%4 == 0 {
				session = "session-b"
			}
			if m.Validate(tok, session) {
				accepted.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if got := accepted.Load(); got != 1 {
		t.Errorf("accepted validations = %d, want 1", got)
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0 after the token was used", m.Count())
	}
}

func TestCSRFManager_ConcurrentGenerate(t *testing.T) {
	m := NewCSRFManager(&CSRFConfig{Capacity: 20})

	var (
		wg             sync.WaitGroup
		issued, denied atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Generate("session-a"); err != nil {
				denied.Add(1)
				return
			}
			issued.Add(1)
		}()
	}
	wg.Wait()

	if issued.Load() != 20 || denied.Load() != 30 {
		t.Errorf("issued = %d, denied = %d; want 20, 30", issued.Load(), denied.Load())
	}
}
