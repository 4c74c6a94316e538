package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Server.Workers != 4 || cfg.Server.QueueSize != 1024 {
		t.Errorf("Workers/QueueSize = %d/%d, want 4/1024", cfg.Server.Workers, cfg.Server.QueueSize)
	}
	if cfg.Security.SessionCapacity != 100 || cfg.Security.RateLimitMaxAttempts != 5 {
		t.Errorf("security defaults = %+v", cfg.Security)
	}
	if cfg.Storage.Driver != DriverBadger {
		t.Errorf("Storage.Driver = %q, want badger", cfg.Storage.Driver)
	}
	if cfg.Server.TLSEnabled() {
		t.Error("TLS enabled by default")
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	os.WriteFile(certFile, []byte("x"), 0600)

	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"defaults", func(c *ServerConfig) {}, ""},
		{"bad addr", func(c *ServerConfig) { c.Server.Addr = "nope" }, "server.addr"},
		{"cert without key", func(c *ServerConfig) { c.Server.TLSCertFile = certFile }, "must be set together"},
		{"missing key file", func(c *ServerConfig) {
			c.Server.TLSCertFile = certFile
			c.Server.TLSKeyFile = filepath.Join(dir, "missing.pem")
		}, "tls file"},
		{"too many workers", func(c *ServerConfig) { c.Server.Workers = 1 << 20 }, "server.workers"},
		{"negative accept rate", func(c *ServerConfig) { c.Server.MaxAcceptRate = -1 }, "max_accept_rate"},
		{"short tokens", func(c *ServerConfig) { c.Security.TokenLength = 8 }, "token_length"},
		{"unknown driver", func(c *ServerConfig) { c.Storage.Driver = "mysql" }, "storage.driver"},
		{"postgres without dsn", func(c *ServerConfig) { c.Storage.Driver = DriverPostgres }, "storage.dsn"},
		{"postgres with dsn", func(c *ServerConfig) {
			c.Storage.Driver = DriverPostgres
			c.Storage.DSN = "postgres://localhost/tokgate"
		}, ""},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
		{"admin socket in missing dir", func(c *ServerConfig) {
			c.Server.AdminSocket = filepath.Join(dir, "nope", "admin.sock")
		}, "server.admin_socket"},
		{"admin socket", func(c *ServerConfig) { c.Server.AdminSocket = filepath.Join(dir, "admin.sock") }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Storage.DataDir = filepath.Join(dir, "data")
			tt.mutate(cfg)

			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Verify() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://app:hunter2@db:5432/tokgate?sslmode=disable", "postgres://app:%2A%2A%2A%2A@db:5432/tokgate?sslmode=disable"},
		{"host=db user=app password=hunter2 dbname=tokgate", "host=db user=app password=**** dbname=tokgate"},
		{"postgres://db/tokgate", "postgres://db/tokgate"},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Storage.DSN = tt.dsn

		got := Sanitize(cfg)
		if got.Storage.DSN != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.dsn, got.Storage.DSN, tt.want)
		}
		if cfg.Storage.DSN != tt.dsn {
			t.Error("Sanitize() modified the original config")
		}
	}
}
