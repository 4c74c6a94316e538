package storage

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrKeyExists   = errors.New("key already exists")
	ErrClosed      = errors.New("kv engine closed")
)

// KV is the embedded key-value store used by UserStore.
//
// Implementations must be safe for concurrent use.
type KV interface {
	// Get returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	Set(ctx context.Context, key, value []byte) error

	// SetIfAbsent stores value only when key is absent and returns
	// ErrKeyExists otherwise. The check and the write are atomic.
	SetIfAbsent(ctx context.Context, key, value []byte) error

	// Replace stores value only when key is present and returns
	// ErrKeyNotFound otherwise.
	Replace(ctx context.Context, key, value []byte) error

	Delete(ctx context.Context, key []byte) error

	// Scan iterates over keys with a given prefix in key order.
	// The callback returns false to stop iteration.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	Close() error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	LSMSize      uint64
	ValueLogSize uint64

	// LastGCTime is the last value log GC run (zero if none).
	LastGCTime time.Time
	GCRuns     uint64
}

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	Dir string

	// GCInterval is the interval between value log GC runs (0 disables).
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	GCThreshold float64

	CacheSize        int64
	ValueLogFileSize int64
	NumMemtables     int

	// SyncWrites fsyncs every commit. Accounts change rarely, so this
	// defaults to true.
	SyncWrites bool

	// InMemory runs Badger without touching disk (tests and `--ephemeral`).
	InMemory bool
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:              dir,
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        16 << 20,
		ValueLogFileSize: 64 << 20,
		NumMemtables:     2,
		SyncWrites:       true,
	}
}
