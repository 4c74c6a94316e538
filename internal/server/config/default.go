package config

import (
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/server/workerpool"
	"github.com/yndnr/tokgate/pkg/token"
)

// Storage drivers.
const (
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

// Default configuration values.
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultMaxRequestBytes = 64 << 10

	DefaultCleanupInterval = time.Minute

	DefaultDataDir    = "/var/lib/tokgate/data"
	DefaultGCInterval = 10 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:            DefaultAddr,
			Workers:         workerpool.DefaultWorkers,
			QueueSize:       workerpool.DefaultQueueSize,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			MaxRequestBytes: DefaultMaxRequestBytes,
		},
		Security: SecuritySection{
			SessionCapacity:      domain.DefaultSessionCapacity,
			SessionTimeout:       domain.DefaultSessionTimeout,
			TokenLength:          token.DefaultLength,
			CSRFCapacity:         domain.DefaultCSRFCapacity,
			CSRFTimeout:          domain.DefaultCSRFTimeout,
			RateLimitCapacity:    domain.DefaultRateLimitCapacity,
			RateLimitWindow:      domain.DefaultRateLimitWindow,
			RateLimitMaxAttempts: domain.DefaultRateLimitMaxAttempts,
			CleanupInterval:      DefaultCleanupInterval,
		},
		Storage: StorageSection{
			Driver:     DriverBadger,
			DataDir:    DefaultDataDir,
			GCInterval: DefaultGCInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
