package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/core/service"
	"github.com/yndnr/tokgate/internal/infra/buildinfo"
	"github.com/yndnr/tokgate/internal/infra/confloader"
	"github.com/yndnr/tokgate/internal/infra/shutdown"
	"github.com/yndnr/tokgate/internal/infra/tlscert"
	"github.com/yndnr/tokgate/internal/server/config"
	"github.com/yndnr/tokgate/internal/server/httpserver"
	"github.com/yndnr/tokgate/internal/server/httpserver/handler"
	"github.com/yndnr/tokgate/internal/server/localserver"
	"github.com/yndnr/tokgate/internal/server/router"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
)

// ServeCommand runs the server until SIGINT or SIGTERM.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.addr",
			},
			&cli.BoolFlag{
				Name:  "ephemeral",
				Usage: "Keep accounts in memory only (badger driver)",
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "Time allowed for in-flight requests on shutdown",
				Value: 30 * time.Second,
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, loader, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	slogger, err := newLogger(cfg.Log, c.App.Writer)
	if err != nil {
		return err
	}

	info := buildinfo.Get()
	slogger.Info("starting tokgate",
		"version", info.Version,
		"commit", info.Commit,
		"config", loader.FilePath())
	slogger.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	metrics := metric.NewRegistry()

	be, err := openBackend(ctx, cfg.Storage, c.Bool("ephemeral"), slogger)
	if err != nil {
		return err
	}
	if be.collector != nil {
		metrics.MustRegister(be.collector)
	}

	sec := cfg.Security
	sessions := service.NewSessionManager(&service.SessionConfig{
		Capacity:    sec.SessionCapacity,
		Timeout:     sec.SessionTimeout,
		TokenLength: sec.TokenLength,
	}, service.WithLogger(slogger))
	csrf := service.NewCSRFManager(&service.CSRFConfig{
		Capacity:    sec.CSRFCapacity,
		Timeout:     sec.CSRFTimeout,
		TokenLength: sec.TokenLength,
	}, service.WithLogger(slogger))
	limiter := service.NewRateLimiter(&service.RateLimitConfig{
		Capacity:    sec.RateLimitCapacity,
		Window:      sec.RateLimitWindow,
		MaxAttempts: sec.RateLimitMaxAttempts,
	}, service.WithLogger(slogger))
	auth := service.NewAuthService(be.users, sessions, csrf, service.WithLogger(slogger))

	h := handler.New(handler.Deps{
		Auth:    auth,
		Limiter: limiter,
		Storage: be.users,
		Metrics: metrics,
		Logger:  slogger,
		Version: info.Version,
	})
	rt := router.New()
	rt.Use(httpserver.RequestIDMiddleware())
	h.Register(rt)

	srvCfg := httpserver.Config{
		Addr:              cfg.Server.Addr,
		Workers:           cfg.Server.Workers,
		QueueSize:         cfg.Server.QueueSize,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		MaxAcceptRate:     cfg.Server.MaxAcceptRate,
		MaxRequestBytes:   cfg.Server.MaxRequestBytes,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	}

	var certs *tlscert.Reloader
	if cfg.Server.TLSEnabled() {
		certs, err = tlscert.New(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile, tlscert.WithLogger(slogger))
		if err != nil {
			be.close()
			return fmt.Errorf("load tls certificate: %w", err)
		}
		srvCfg.TLSConfig = certs.TLSConfig()
	}

	srv, err := httpserver.New(srvCfg, rt, httpserver.WithLogger(slogger), httpserver.WithMetrics(metrics))
	if err != nil {
		be.close()
		return err
	}
	metrics.MustRegister(metric.NewCollector(srv,
		metric.Table{Name: "sessions", Count: sessions.Count, Capacity: sessions.Capacity()},
		metric.Table{Name: "csrf_tokens", Count: csrf.Count, Capacity: csrf.Capacity()},
		metric.Table{Name: "rate_limit", Count: limiter.Count, Capacity: limiter.Capacity()},
	))

	janitor := service.NewJanitor(sec.CleanupInterval, slogger, service.SecuritySweeps(sessions, csrf, limiter)...)
	go janitor.Run(ctx)

	if certs != nil {
		go func() {
			if err := certs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slogger.Error("tls certificate watcher stopped", "error", err)
			}
		}()
	}

	watcher, err := watchConfig(loader, slogger)
	if err != nil {
		slogger.Warn("config hot reload disabled", "error", err)
	}

	sh := shutdown.NewHandler(c.Duration("shutdown-timeout"), slogger)
	sh.OnShutdown("storage", func(context.Context) error {
		return be.close()
	})
	sh.OnShutdown("background tasks", func(context.Context) error {
		cancel()
		return nil
	})
	if watcher != nil {
		sh.OnShutdown("config watcher", func(context.Context) error {
			return watcher.Stop()
		})
	}
	sh.OnShutdown("http server", srv.Shutdown)

	if cfg.Server.AdminSocket != "" {
		admin, err := serveAdmin(ctx, cfg.Server.AdminSocket, h, slogger)
		if err != nil {
			slogger.Error("admin socket disabled", "error", err)
		} else {
			sh.OnShutdown("admin socket", admin.Shutdown)
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe(ctx)
		serveErr <- err
		if err != nil {
			cancel()
		}
	}()

	shutdownErr := sh.Wait(ctx)
	if err := <-serveErr; err != nil {
		return err
	}
	if shutdownErr != nil {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}
	slogger.Info("tokgate stopped")
	return nil
}

// serveAdmin serves the admin routes on a Unix socket.
func serveAdmin(ctx context.Context, path string, h *handler.Handler, log *slog.Logger) (*httpserver.Server, error) {
	rt := router.New()
	rt.Use(httpserver.RequestIDMiddleware())
	h.RegisterAdmin(rt)

	cfg := httpserver.DefaultConfig()
	cfg.Workers = 1
	cfg.QueueSize = 16
	srv, err := httpserver.New(cfg, rt, httpserver.WithLogger(log.With("listener", "admin")))
	if err != nil {
		return nil, err
	}

	ln, err := localserver.Listen(path, log)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := srv.Serve(ctx, ln); err != nil {
			log.Error("admin socket stopped", "error", err)
		}
	}()
	return srv, nil
}

// watchConfig reapplies log.level when the configuration file changes.
// Other settings need a restart.
func watchConfig(loader *confloader.Loader, log *slog.Logger) (*confloader.Watcher, error) {
	path := loader.FilePath()
	if path == "" {
		return nil, nil
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		next := config.Default()
		if err := loader.Reload(next); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if err := config.Verify(next); err != nil {
			log.Warn("reloaded config rejected", "error", err)
			return
		}
		if next.Log.Level != logger.GetLevel() {
			logger.SetLevel(next.Log.Level)
			log.Info("log level changed", "level", next.Log.Level)
		}
	})
	w.StartAsync()
	return w, nil
}
