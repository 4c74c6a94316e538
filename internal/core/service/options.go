package service

import (
	"log/slog"
	"time"
)

// options carries the dependencies shared by the in-memory security tables.
type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a security table.
type Option func(*options)

// WithClock replaces the time source. Tests use it to move time without
// sleeping.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used for capacity and eviction events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
