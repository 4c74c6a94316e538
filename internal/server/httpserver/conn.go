package httpserver

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/server/router"
)

// conn is one accepted connection waiting for or owned by a worker.
type conn struct {
	id       string
	nc       net.Conn
	accepted time.Time
	closed   atomic.Bool
}

func newConn(nc net.Conn) *conn {
	return &conn{
		id:       ulid.Make().String(),
		nc:       nc,
		accepted: time.Now(),
	}
}

// close reports whether this call closed the connection.
func (c *conn) close() bool {
	if !c.closed.CompareAndSwap(false, true) {
		return false
	}
	c.nc.Close()
	return true
}

// serveConn runs on a worker: read one request, dispatch, respond, close.
func (s *Server) serveConn(c *conn) {
	defer s.release(c)

	if c.closed.Load() {
		return
	}

	_ = c.nc.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	req, body, err := s.readRequest(c.nc)
	if err != nil {
		s.handleReadError(c, err)
		return
	}

	start := time.Now()
	rr := router.NewRequest(req, body)
	rr.RemoteAddr = c.nc.RemoteAddr().String()
	rr.SetValue(ctxClientIP, clientIP(rr, s.cfg.TrustProxyHeaders))

	w := newResponseWriter()
	s.dispatch(w, rr)

	_ = c.nc.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := w.writeTo(c.nc, rr.Method, time.Now()); err != nil {
		s.logger.Debug("write response failed", "remote", rr.RemoteAddr, "error", err)
	}

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveRequest(rr.Method, w.status, elapsed)
	}
	s.accessLog(rr, w.status, w.body.Len(), elapsed)
}

// dispatch runs the router and turns a handler panic into a 500.
func (s *Server) dispatch(w *responseWriter, r *router.Request) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("panic recovered",
				"request_id", RequestID(r),
				"path", r.Path,
				"panic", p,
				"stack", string(debug.Stack()),
			)
			if s.metrics != nil {
				s.metrics.TaskPanics.Inc()
			}
			id := w.header.Get(HeaderRequestID)
			w.reset()
			if id != "" {
				w.header.Set(HeaderRequestID, id)
			}
			WriteError(w, r, domain.ErrInternalServer)
		}
	}()
	s.router.Dispatch(w, r)
}

// readRequest parses one request. Headers and body together may not
// exceed MaxRequestBytes.
func (s *Server) readRequest(nc net.Conn) (*http.Request, []byte, error) {
	// One byte of headroom tells "exactly at the limit" from "over it".
	limited := &io.LimitedReader{R: nc, N: s.cfg.MaxRequestBytes + 1}
	req, err := http.ReadRequest(bufio.NewReader(limited))
	if err != nil {
		if limited.N <= 0 {
			return nil, nil, errRequestTooLarge
		}
		return nil, nil, err
	}
	defer req.Body.Close()

	if req.ContentLength > s.cfg.MaxRequestBytes {
		return nil, nil, errRequestTooLarge
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		if limited.N <= 0 {
			return nil, nil, errRequestTooLarge
		}
		return nil, nil, err
	}
	return req, body, nil
}

var errRequestTooLarge = errors.New("request exceeds size limit")

func (s *Server) handleReadError(c *conn, err error) {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF):
		// Peer connected and closed without sending anything.
		s.countRejected("eof")
		return
	case errors.As(err, &ne) && ne.Timeout():
		s.countRejected("timeout")
		s.logger.Debug("request read timed out", "remote", c.nc.RemoteAddr().String())
		return
	case errors.Is(err, errRequestTooLarge):
		s.countRejected("too_large")
		s.writeRaw(c, http.StatusRequestEntityTooLarge, "Request Entity Too Large")
	default:
		s.countRejected("bad_request")
		s.writeRaw(c, http.StatusBadRequest, "Bad Request")
	}
	s.logger.Debug("rejected request", "remote", c.nc.RemoteAddr().String(), "error", err)
}

func (s *Server) writeRaw(c *conn, status int, body string) {
	_ = c.nc.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := writeRaw(c.nc, status, body); err != nil {
		return
	}
	lingerClose(c.nc)
}

// lingerDrainLimit caps how much unread input is discarded before close.
const lingerDrainLimit = 256 << 10

// lingerClose half-closes and drains unread input so the peer sees the
// response instead of a reset caused by closing with data still queued.
func lingerClose(nc net.Conn) {
	type closeWriter interface{ CloseWrite() error }
	if cw, ok := nc.(closeWriter); ok {
		_ = cw.CloseWrite()
	}
	_ = nc.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	_, _ = io.Copy(io.Discard, io.LimitReader(nc, lingerDrainLimit))
}

func (s *Server) countRejected(reason string) {
	if s.metrics != nil {
		s.metrics.ConnectionsRejected.WithLabelValues(reason).Inc()
	}
}

func (s *Server) accessLog(r *router.Request, status, size int, elapsed time.Duration) {
	attrs := []any{
		"request_id", RequestID(r),
		"method", r.Method,
		"path", r.Path,
		"status", status,
		"bytes", size,
		"duration_ms", elapsed.Milliseconds(),
		"client_ip", ClientIP(r),
	}
	if u := Username(r); u != "" {
		attrs = append(attrs, "username", u)
	}

	switch {
	case status >= 500:
		s.logger.Error("request completed with error", attrs...)
	case status >= 400:
		s.logger.Warn("request completed with client error", attrs...)
	default:
		s.logger.Info("request completed", attrs...)
	}
}
