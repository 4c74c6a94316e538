package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/tokgate/internal/server/router"
	"github.com/yndnr/tokgate/internal/server/workerpool"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
	"github.com/yndnr/tokgate/pkg/cmap"
)

// Config holds the connection server configuration.
type Config struct {
	Addr string

	// TLSConfig enables TLS on the listener when non-nil.
	TLSConfig *tls.Config

	Workers   int
	QueueSize int

	// ReadTimeout bounds reading one request, headers and body.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration

	// MaxAcceptRate is the accepted connections per second (0 = unlimited).
	MaxAcceptRate float64

	// MaxRequestBytes bounds headers plus body of one request.
	MaxRequestBytes int64

	// TrustProxyHeaders uses X-Forwarded-For / X-Real-IP as the client address.
	TrustProxyHeaders bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:8080",
		Workers:         workerpool.DefaultWorkers,
		QueueSize:       workerpool.DefaultQueueSize,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		MaxRequestBytes: 64 << 10,
	}
}

// Server accepts connections and serves one request on each.
type Server struct {
	cfg     Config
	router  *router.Router
	pool    *workerpool.Pool[*conn]
	limiter *rate.Limiter
	conns   *cmap.Map[*conn]
	metrics *metric.Registry
	logger  *slog.Logger

	mu      sync.Mutex
	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup
	ready   chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records connection and request metrics.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a server and its worker pool.
func New(cfg Config, rt *router.Router, opts ...Option) (*Server, error) {
	def := DefaultConfig()
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = def.MaxRequestBytes
	}

	s := &Server{
		cfg:    cfg,
		router: rt,
		conns:  cmap.New[*conn](),
		logger: slog.Default(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.MaxAcceptRate > 0 {
		burst := int(cfg.MaxAcceptRate)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.MaxAcceptRate), burst)
	}

	poolOpts := []workerpool.Option{workerpool.WithLogger(s.logger)}
	if s.metrics != nil {
		poolOpts = append(poolOpts, workerpool.WithPanicHandler(func(any) {
			s.metrics.TaskPanics.Inc()
		}))
	}
	pool, err := workerpool.New[*conn](workerpool.Config{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
	}, poolOpts...)
	if err != nil {
		return nil, fmt.Errorf("httpserver: %w", err)
	}
	s.pool = pool

	return s, nil
}

// ListenAndServe listens on the configured address and serves until
// Shutdown or ctx cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var (
		ln  net.Listener
		err error
	)
	if s.cfg.TLSConfig != nil {
		ln, err = tls.Listen("tcp", s.cfg.Addr, s.cfg.TLSConfig)
	} else {
		ln, err = net.Listen("tcp", s.cfg.Addr)
	}
	if err != nil {
		return fmt.Errorf("httpserver: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until Shutdown or ctx cancellation. It
// closes ln, lets queued connections finish, and returns nil after a clean
// stop.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.ln != nil {
		s.mu.Unlock()
		return errors.New("httpserver: already serving")
	}
	s.ln = ln
	s.running.Store(true)
	s.wg.Add(1)
	s.mu.Unlock()
	close(s.ready)
	defer s.wg.Done()

	// Accept only notices ctx when the listener closes under it.
	stop := context.AfterFunc(ctx, func() {
		s.running.Store(false)
		ln.Close()
	})
	defer stop()

	s.logger.Info("http server listening",
		"addr", ln.Addr().String(),
		"tls", s.cfg.TLSConfig != nil,
		"workers", s.pool.Workers(),
		"queue_size", s.pool.QueueCapacity())

	err := s.acceptLoop(ctx, ln)
	ln.Close()
	s.pool.Shutdown()
	return err
}

// Addr returns the listener address once serving has started.
func (s *Server) Addr() net.Addr {
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ln.Addr()
}

// Stats reports worker pool counters.
func (s *Server) Stats() workerpool.Stats {
	return s.pool.Stats()
}

// Shutdown stops accepting, lets queued and in-flight connections finish,
// and force-closes whatever remains when ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	var firstErr error
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}

	// Wakes an acceptor blocked in Submit and drains the queue.
	if err := s.pool.ShutdownContext(ctx); err != nil {
		var open []*conn
		s.conns.Range(func(_ string, c *conn) bool {
			open = append(open, c)
			return true
		})
		for _, c := range open {
			s.reject(c, "deadline")
		}
		s.logger.Warn("shutdown deadline reached, closed connections", "count", len(open))
		if firstErr == nil {
			firstErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if firstErr == nil {
			firstErr = ctx.Err()
		}
	}

	s.logger.Info("http server stopped", "open_conns", s.conns.Count())
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	var tempDelay time.Duration

	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if tempDelay > time.Second {
					tempDelay = time.Second
				}
				s.logger.Warn("accept error, retrying", "error", err, "delay", tempDelay)
				time.Sleep(tempDelay)
				continue
			}
			return fmt.Errorf("httpserver: accept: %w", err)
		}
		tempDelay = 0

		c := newConn(nc)
		s.conns.Set(c.id, c)
		if s.metrics != nil {
			s.metrics.ConnectionsAccepted.Inc()
			s.metrics.ConnectionsActive.Inc()
		}

		// Blocks while the queue is full.
		if err := s.pool.Submit(s.serveConn, c); err != nil {
			s.reject(c, "shutdown")
			return nil
		}
	}
}

func (s *Server) reject(c *conn, reason string) {
	if s.metrics != nil {
		s.metrics.ConnectionsRejected.WithLabelValues(reason).Inc()
	}
	s.release(c)
}

func (s *Server) release(c *conn) {
	if c.close() {
		s.conns.Delete(c.id)
		if s.metrics != nil {
			s.metrics.ConnectionsActive.Dec()
		}
	}
}
