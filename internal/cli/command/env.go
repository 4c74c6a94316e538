package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/core/service"
	"github.com/yndnr/tokgate/internal/infra/confloader"
	"github.com/yndnr/tokgate/internal/server/config"
	"github.com/yndnr/tokgate/internal/storage"
	"github.com/yndnr/tokgate/internal/storage/sqlstore"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

// loadConfig applies defaults, then the configuration file, then TOKGATE_
// environment variables, and verifies the result.
func loadConfig(c *cli.Context) (*config.ServerConfig, *confloader.Loader, error) {
	var opts []confloader.Option
	if path := ParseGlobalFlags(c).ConfigFile; path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	loader := confloader.NewLoader(opts...)

	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader, nil
}

// newLogger builds the process logger and installs it as the default.
func newLogger(cfg config.LogSection, out io.Writer) (*slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: out,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	return log, nil
}

// userStore is the account store as used by the server and the user
// commands.
type userStore interface {
	service.UserRepository
	Delete(ctx context.Context, username string) error
	List(ctx context.Context) ([]*domain.User, error)
	Ping(ctx context.Context) error
}

// backend is an opened credential store.
type backend struct {
	users userStore

	// collector exports store internals; nil when the driver has none.
	collector prometheus.Collector

	close func() error
}

// openBackend opens the store selected by storage.driver. ephemeral runs
// Badger in memory.
func openBackend(ctx context.Context, cfg config.StorageSection, ephemeral bool, log *slog.Logger) (*backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		st, err := sqlstore.Open(ctx, cfg.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return &backend{users: st, close: st.Close}, nil

	default:
		bc := storage.DefaultBadgerConfig(cfg.DataDir)
		if cfg.GCInterval > 0 {
			bc.GCInterval = cfg.GCInterval
		}
		if ephemeral {
			bc.Dir = ""
			bc.InMemory = true
		}
		eng, err := storage.NewBadgerEngine(bc, log)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return &backend{users: storage.NewUserStore(eng), collector: eng, close: eng.Close}, nil
	}
}
