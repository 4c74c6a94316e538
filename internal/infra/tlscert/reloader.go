package tlscert

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the several write events editors and cert
// managers produce for a single update.
const DefaultDebounce = 500 * time.Millisecond

// Reloader holds the current key pair and swaps it when files change.
type Reloader struct {
	certFile string
	keyFile  string
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	cert     *tls.Certificate
	notAfter time.Time
}

// Option configures a Reloader.
type Option func(*Reloader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reloader) {
		r.logger = logger
	}
}

// WithDebounce sets the debounce duration.
func WithDebounce(d time.Duration) Option {
	return func(r *Reloader) {
		r.debounce = d
	}
}

// New loads the key pair and returns a Reloader serving it.
func New(certFile, keyFile string, opts ...Option) (*Reloader, error) {
	r := &Reloader{
		certFile: certFile,
		keyFile:  keyFile,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Reload(); err != nil {
		return nil, fmt.Errorf("tlscert: initial load: %w", err)
	}
	return r, nil
}

// TLSConfig returns a server config that always presents the current
// certificate.
func (r *Reloader) TLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: r.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *Reloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// NotAfter returns the expiry of the current leaf certificate.
func (r *Reloader) NotAfter() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.notAfter
}

// Reload reads both files again. On failure the previous pair stays active.
func (r *Reloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("parse leaf: %w", err)
	}
	cert.Leaf = leaf

	r.mu.Lock()
	r.cert = &cert
	r.notAfter = leaf.NotAfter
	r.mu.Unlock()

	r.logger.Info("certificate loaded",
		"cert_file", r.certFile,
		"subject", leaf.Subject.CommonName,
		"not_after", leaf.NotAfter,
	)
	return nil
}

// Run watches the certificate and key directories until ctx is done.
func (r *Reloader) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlscert: create watcher: %w", err)
	}
	defer fw.Close()

	dirs := map[string]struct{}{
		filepath.Dir(r.certFile): {},
		filepath.Dir(r.keyFile):  {},
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("tlscert: watch %s: %w", dir, err)
		}
	}

	certBase := filepath.Base(r.certFile)
	keyBase := filepath.Base(r.keyFile)

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			base := filepath.Base(event.Name)
			if base != certBase && base != keyBase {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(r.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			if err := r.Reload(); err != nil {
				r.logger.Error("certificate reload failed", "error", err, "cert_file", r.certFile)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("certificate watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
