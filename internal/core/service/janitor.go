package service

import (
	"context"
	"log/slog"
	"time"
)

// Sweep is one periodic cleanup task. Fn returns the number of entries it
// removed.
type Sweep struct {
	Name string
	Fn   func() int
}

// Janitor runs the cleanup sweeps of the security tables on a fixed
// interval. The tables also expire entries lazily; the janitor only bounds
// how long dead entries occupy memory.
type Janitor struct {
	interval time.Duration
	sweeps   []Sweep
	logger   *slog.Logger
}

// NewJanitor creates a janitor. An interval <= 0 defaults to one minute.
func NewJanitor(interval time.Duration, logger *slog.Logger, sweeps ...Sweep) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{interval: interval, sweeps: sweeps, logger: logger}
}

// SecuritySweeps returns the sweeps for the three security tables.
func SecuritySweeps(sessions *SessionManager, csrf *CSRFManager, limiter *RateLimiter) []Sweep {
	return []Sweep{
		{Name: "sessions", Fn: sessions.CleanupExpired},
		{Name: "csrf", Fn: csrf.CleanupExpired},
		{Name: "ratelimit", Fn: limiter.Cleanup},
	}
}

// Run sweeps every interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce()
		}
	}
}

// RunOnce runs every sweep once and returns the total removed.
func (j *Janitor) RunOnce() int {
	total := 0
	for _, sw := range j.sweeps {
		n := sw.Fn()
		if n > 0 {
			j.logger.Debug("expired entries removed", "table", sw.Name, "count", n)
		}
		total += n
	}
	return total
}
