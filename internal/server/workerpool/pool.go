// Package workerpool runs tasks on a fixed set of goroutines fed by a
// bounded FIFO queue.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Pool defaults.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 1024

	// MaxWorkers bounds the goroutines a single pool may start.
	MaxWorkers = 4096
)

var (
	// ErrPoolClosed is returned by Submit once shutdown has been requested.
	ErrPoolClosed = errors.New("workerpool: pool is shut down")

	// ErrNilTask is returned by Submit for a nil function.
	ErrNilTask = errors.New("workerpool: nil task")

	// ErrTooManyWorkers is returned by New when Workers exceeds MaxWorkers.
	ErrTooManyWorkers = errors.New("workerpool: too many workers")
)

// Config holds pool sizing. Zero or negative values select the defaults.
type Config struct {
	Workers   int
	QueueSize int
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Workers   int
	Capacity  int
	Pending   int
	Active    int64
	Completed uint64
	Panicked  uint64
}

type task[T any] struct {
	fn  func(T)
	arg T
}

// Pool executes func(T) tasks. Tasks are dequeued in submission order and
// run outside any pool lock; completion order is unspecified.
type Pool[T any] struct {
	tasks chan task[T]
	quit  chan struct{}

	// mu orders Submit against the close of tasks: senders hold the read
	// lock, Shutdown takes the write lock before closing the channel.
	mu     sync.RWMutex
	closed bool

	once sync.Once
	wg   sync.WaitGroup

	workers   int
	active    atomic.Int64
	completed atomic.Uint64
	panicked  atomic.Uint64

	logger  *slog.Logger
	onPanic func(any)
}

// Option configures a Pool.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	onPanic func(any)
}

// WithLogger sets the logger used to report recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPanicHandler registers fn to be called with the value of every
// recovered task panic.
func WithPanicHandler(fn func(any)) Option {
	return func(o *options) {
		o.onPanic = fn
	}
}

// New starts a pool with cfg.Workers goroutines and a queue of
// cfg.QueueSize tasks.
func New[T any](cfg Config, opts ...Option) (*Pool[T], error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyWorkers, cfg.Workers, MaxWorkers)
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool[T]{
		tasks:   make(chan task[T], cfg.QueueSize),
		quit:    make(chan struct{}),
		workers: cfg.Workers,
		logger:  o.logger,
		onPanic: o.onPanic,
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker()
	}
	return p, nil
}

// Submit enqueues fn(arg). It blocks while the queue is full and returns
// ErrPoolClosed if shutdown is requested before the task is accepted.
func (p *Pool[T]) Submit(fn func(T), arg T) error {
	if fn == nil {
		return ErrNilTask
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}

	select {
	case p.tasks <- task[T]{fn: fn, arg: arg}:
		return nil
	case <-p.quit:
		return ErrPoolClosed
	}
}

// Shutdown stops accepting tasks, wakes blocked producers, lets the workers
// finish every task already queued and waits for them to exit. Safe to
// call more than once.
func (p *Pool[T]) Shutdown() {
	p.signal()
	p.wg.Wait()
}

// ShutdownContext is Shutdown bounded by ctx. On timeout the workers keep
// draining in the background.
func (p *Pool[T]) ShutdownContext(ctx context.Context) error {
	p.signal()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool[T]) signal() {
	p.once.Do(func() {
		close(p.quit)

		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
	})
}

// Pending returns the number of queued tasks not yet picked up.
func (p *Pool[T]) Pending() int {
	return len(p.tasks)
}

// Workers returns the number of worker goroutines.
func (p *Pool[T]) Workers() int {
	return p.workers
}

// QueueCapacity returns the queue size.
func (p *Pool[T]) QueueCapacity() int {
	return cap(p.tasks)
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Capacity:  cap(p.tasks),
		Pending:   len(p.tasks),
		Active:    p.active.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
	}
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.run(t)
	}
}

func (p *Pool[T]) run(t task[T]) {
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		p.completed.Add(1)
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.logger.Error("task panic recovered", "panic", r)
			if p.onPanic != nil {
				p.onPanic(r)
			}
		}
	}()
	t.fn(t.arg)
}
