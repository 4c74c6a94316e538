// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for tokgate.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Security SecuritySection `koanf:"security"`
	Storage  StorageSection  `koanf:"storage"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures the listener and the worker pool.
type ServerSection struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// Workers is the number of request worker goroutines.
	Workers int `koanf:"workers"`

	// QueueSize bounds accepted connections waiting for a worker.
	QueueSize int `koanf:"queue_size"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// MaxAcceptRate caps accepted connections per second (0 = unlimited).
	MaxAcceptRate float64 `koanf:"max_accept_rate"`

	// MaxRequestBytes bounds header plus body size of one request.
	MaxRequestBytes int64 `koanf:"max_request_bytes"`

	// TrustProxyHeaders makes X-Forwarded-For and X-Real-IP the client
	// address used for rate limiting.
	TrustProxyHeaders bool `koanf:"trust_proxy_headers"`

	// AdminSocket is a Unix socket path serving /health and /metrics
	// without rate limiting. Empty disables it.
	AdminSocket string `koanf:"admin_socket"`
}

// TLSEnabled reports whether both certificate and key are configured.
func (s *ServerSection) TLSEnabled() bool {
	return s.TLSCertFile != "" && s.TLSKeyFile != ""
}

// SecuritySection configures the in-memory security tables.
type SecuritySection struct {
	SessionCapacity int           `koanf:"session_capacity"`
	SessionTimeout  time.Duration `koanf:"session_timeout"`
	TokenLength     int           `koanf:"token_length"`

	CSRFCapacity int           `koanf:"csrf_capacity"`
	CSRFTimeout  time.Duration `koanf:"csrf_timeout"`

	RateLimitCapacity    int           `koanf:"ratelimit_capacity"`
	RateLimitWindow      time.Duration `koanf:"ratelimit_window"`
	RateLimitMaxAttempts int           `koanf:"ratelimit_max_attempts"`

	// CleanupInterval is how often expired entries are swept.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// StorageSection configures the credential store.
type StorageSection struct {
	// Driver selects the backend: "badger" or "postgres".
	Driver  string `koanf:"driver"`
	DataDir string `koanf:"data_dir"`
	DSN     string `koanf:"dsn"`

	// GCInterval is the Badger value log GC period.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
