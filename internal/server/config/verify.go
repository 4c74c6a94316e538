package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/tokgate/internal/server/workerpool"
)

// minTokenLength keeps tokens above roughly 190 bits of entropy.
const minTokenLength = 32

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("server.addr %q: %w", cfg.Addr, err)
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return errors.New("server.tls_cert_file and server.tls_key_file must be set together")
	}
	for _, f := range []string{cfg.TLSCertFile, cfg.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("tls file: %w", err)
		}
	}

	if cfg.Workers > workerpool.MaxWorkers {
		return fmt.Errorf("server.workers must be at most %d", workerpool.MaxWorkers)
	}
	if cfg.MaxAcceptRate < 0 {
		return errors.New("server.max_accept_rate must not be negative")
	}
	if cfg.MaxRequestBytes <= 0 {
		return errors.New("server.max_request_bytes must be positive")
	}
	if cfg.AdminSocket != "" {
		if _, err := os.Stat(filepath.Dir(cfg.AdminSocket)); err != nil {
			return fmt.Errorf("server.admin_socket: %w", err)
		}
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.TokenLength != 0 && cfg.TokenLength < minTokenLength {
		return fmt.Errorf("security.token_length must be at least %d", minTokenLength)
	}
	if cfg.SessionCapacity < 0 || cfg.CSRFCapacity < 0 || cfg.RateLimitCapacity < 0 {
		return errors.New("security table capacities must not be negative")
	}
	if cfg.RateLimitMaxAttempts < 0 {
		return errors.New("security.ratelimit_max_attempts must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Driver {
	case DriverBadger:
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required")
		}
		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return errors.New("cannot create data directory: " + err.Error())
		}
	case DriverPostgres:
		if cfg.DSN == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver %q: must be %q or %q", cfg.Driver, DriverBadger, DriverPostgres)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format %q: must be json or text", cfg.Format)
	}
}
