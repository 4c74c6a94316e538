package service

import (
	"sync"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
)

// RateLimitConfig holds rate limiter settings.
type RateLimitConfig struct {
	// Capacity is the number of source addresses tracked (default: 100).
	Capacity int

	// Window is the counting window (default: 60s).
	Window time.Duration

	// MaxAttempts is the number of attempts allowed per window (default: 5).
	MaxAttempts int
}

// DefaultRateLimitConfig returns default configuration.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Capacity:    domain.DefaultRateLimitCapacity,
		Window:      domain.DefaultRateLimitWindow,
		MaxAttempts: domain.DefaultRateLimitMaxAttempts,
	}
}

// RateLimiter counts attempts per source address in fixed windows that
// restart on the first attempt after the previous window closed.
//
// The table holds at most Capacity addresses. A new address arriving when
// the table is full replaces the entry with the oldest window start.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*domain.RateLimitEntry

	capacity    int
	window      time.Duration
	maxAttempts int

	opts options
}

// NewRateLimiter creates a new RateLimiter.
func NewRateLimiter(config *RateLimitConfig, opts ...Option) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	def := DefaultRateLimitConfig()
	if config.Capacity <= 0 {
		config.Capacity = def.Capacity
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}

	return &RateLimiter{
		entries:     make(map[string]*domain.RateLimitEntry, config.Capacity),
		capacity:    config.Capacity,
		window:      config.Window,
		maxAttempts: config.MaxAttempts,
		opts:        applyOptions(opts),
	}
}

// Check records an attempt from ip and reports whether it is allowed.
// An empty ip is always denied.
func (l *RateLimiter) Check(ip string) bool {
	if ip == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.opts.now()

	if e, ok := l.entries[ip]; ok {
		if e.WindowExpired(now, l.window) {
			e.Reset(now)
			return true
		}
		e.Attempts++
		return e.Attempts <= l.maxAttempts
	}

	if len(l.entries) >= l.capacity {
		l.evictOldestLocked()
	}
	l.entries[ip] = &domain.RateLimitEntry{SourceIP: ip, Attempts: 1, WindowStart: now}
	return true
}

// Cleanup removes entries whose window has closed and returns how many were
// removed.
func (l *RateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.opts.now()
	removed := 0
	for ip, e := range l.entries {
		if e.WindowExpired(now, l.window) {
			delete(l.entries, ip)
			removed++
		}
	}
	return removed
}

// Count returns the number of tracked addresses.
func (l *RateLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Capacity returns the maximum number of tracked addresses.
func (l *RateLimiter) Capacity() int {
	return l.capacity
}

// Window returns the counting window.
func (l *RateLimiter) Window() time.Duration {
	return l.window
}

func (l *RateLimiter) evictOldestLocked() {
	var (
		oldestIP string
		oldest   time.Time
		found    bool
	)
	for ip, e := range l.entries {
		if !found || e.WindowStart.Before(oldest) {
			oldestIP, oldest, found = ip, e.WindowStart, true
		}
	}
	if found {
		delete(l.entries, oldestIP)
		l.opts.logger.Debug("rate limit entry evicted", "ip", oldestIP)
	}
}
