package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// maxTxnRetries bounds retries of conflicting conditional writes.
const maxTxnRetries = 5

// BadgerEngine implements KV using Badger v3.
type BadgerEngine struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	closed     atomic.Bool
	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewBadgerEngine opens the database and starts the GC loop.
func NewBadgerEngine(cfg BadgerConfig, logger *slog.Logger) (*BadgerEngine, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, errors.New("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.DetectConflicts = true
	opts.SyncWrites = cfg.SyncWrites
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumMemtables > 0 {
		opts.NumMemtables = cfg.NumMemtables
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	e := &BadgerEngine{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go e.gcLoop()

	logger.Info("badger engine started",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"gc_interval", cfg.GCInterval)

	return e, nil
}

// Get retrieves a value by key.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a key-value pair.
func (e *BadgerEngine) Set(ctx context.Context, key, value []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// SetIfAbsent stores a key-value pair unless the key exists.
func (e *BadgerEngine) SetIfAbsent(ctx context.Context, key, value []byte) error {
	return e.conditionalSet(ctx, key, value, false)
}

// Replace overwrites an existing key.
func (e *BadgerEngine) Replace(ctx context.Context, key, value []byte) error {
	return e.conditionalSet(ctx, key, value, true)
}

// conditionalSet reads and writes in one transaction. Badger's conflict
// detection aborts the loser of two racing transactions with ErrConflict,
// which is retried so it observes the winner's write.
func (e *BadgerEngine) conditionalSet(ctx context.Context, key, value []byte, mustExist bool) error {
	if e.closed.Load() {
		return ErrClosed
	}

	for attempt := 0; ; attempt++ {
		err := e.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(key)
			switch {
			case err == nil && !mustExist:
				return ErrKeyExists
			case errors.Is(err, badger.ErrKeyNotFound) && mustExist:
				return ErrKeyNotFound
			case err != nil && !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}
			return txn.Set(key, value)
		})
		if !errors.Is(err, badger.ErrConflict) || attempt >= maxTxnRetries {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Delete removes a key. Deleting a missing key is not an error.
func (e *BadgerEngine) Delete(ctx context.Context, key []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Scan iterates over keys with a given prefix.
func (e *BadgerEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(item.KeyCopy(nil), value) {
				break
			}
		}
		return nil
	})
}

// GC runs value log garbage collection until nothing more can be
// rewritten. It returns the number of files rewritten.
func (e *BadgerEngine) GC() (int, error) {
	if e.cfg.InMemory {
		return 0, nil
	}

	rewrites := 0
	for {
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return rewrites, fmt.Errorf("gc: %w", err)
		}
		rewrites++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.gcRuns.Add(1)
	return rewrites, nil
}

// Stats returns storage statistics.
func (e *BadgerEngine) Stats() KVStats {
	lsm, vlog := e.db.Size()
	stats := KVStats{
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		GCRuns:       e.gcRuns.Load(),
	}
	if ms := e.lastGCTime.Load(); ms > 0 {
		stats.LastGCTime = time.UnixMilli(ms)
	}
	return stats
}

// Close stops the GC loop and closes the database.
func (e *BadgerEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.stopCh)
		<-e.doneCh

		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
		e.logger.Info("badger engine closed")
	})
	return err
}

func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)

	if e.cfg.GCInterval <= 0 || e.cfg.InMemory {
		<-e.stopCh
		return
	}

	ticker := time.NewTicker(e.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			n, err := e.GC()
			if err != nil {
				e.logger.Error("badger gc failed", "error", err)
				continue
			}
			e.logger.Debug("badger gc completed", "rewrites", n, "elapsed", time.Since(start))
		case <-e.stopCh:
			return
		}
	}
}

// ============================================================================
// Metrics
// ============================================================================

var (
	badgerLSMDesc = prometheus.NewDesc("tokgate_badger_lsm_size_bytes",
		"Badger LSM tree size in bytes.", nil, nil)
	badgerVlogDesc = prometheus.NewDesc("tokgate_badger_value_log_size_bytes",
		"Badger value log size in bytes.", nil, nil)
	badgerGCDesc = prometheus.NewDesc("tokgate_badger_gc_runs_total",
		"Completed Badger value log GC passes.", nil, nil)
	badgerLastGCDesc = prometheus.NewDesc("tokgate_badger_last_gc_timestamp_seconds",
		"Unix time of the last Badger GC pass.", nil, nil)
)

// Describe implements prometheus.Collector.
func (e *BadgerEngine) Describe(ch chan<- *prometheus.Desc) {
	ch <- badgerLSMDesc
	ch <- badgerVlogDesc
	ch <- badgerGCDesc
	ch <- badgerLastGCDesc
}

// Collect implements prometheus.Collector. Sizes are read at scrape time.
func (e *BadgerEngine) Collect(ch chan<- prometheus.Metric) {
	if e.closed.Load() {
		return
	}
	s := e.Stats()
	ch <- prometheus.MustNewConstMetric(badgerLSMDesc, prometheus.GaugeValue, float64(s.LSMSize))
	ch <- prometheus.MustNewConstMetric(badgerVlogDesc, prometheus.GaugeValue, float64(s.ValueLogSize))
	ch <- prometheus.MustNewConstMetric(badgerGCDesc, prometheus.CounterValue, float64(s.GCRuns))
	var last float64
	if !s.LastGCTime.IsZero() {
		last = float64(s.LastGCTime.UnixMilli()) / 1000
	}
	ch <- prometheus.MustNewConstMetric(badgerLastGCDesc, prometheus.GaugeValue, last)
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

// Badger's info output is chatty; it is demoted to debug.
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
