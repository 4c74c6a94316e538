package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Addr          string  `koanf:"addr"`
		MaxAcceptRate float64 `koanf:"max_accept_rate"`
	} `koanf:"server"`
	Security struct {
		SessionTimeout  time.Duration `koanf:"session_timeout"`
		SessionCapacity int           `koanf:"session_capacity"`
	} `koanf:"security"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/tokgate.yaml"))
	if l.envPrefix != "TEST_" || l.FilePath() != "/etc/tokgate.yaml" {
		t.Errorf("options not applied: prefix=%q file=%q", l.envPrefix, l.FilePath())
	}
}

func TestLoader_Load_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "0.0.0.0:9000"
security:
  session_timeout: 30m
`)

	var cfg testConfig
	cfg.Server.Addr = "127.0.0.1:8080"
	cfg.Security.SessionCapacity = 100

	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("Addr = %q, want file value", cfg.Server.Addr)
	}
	if cfg.Security.SessionTimeout != 30*time.Minute {
		t.Errorf("SessionTimeout = %v, want 30m", cfg.Security.SessionTimeout)
	}
	if cfg.Security.SessionCapacity != 100 {
		t.Errorf("SessionCapacity = %d, want default 100 kept", cfg.Security.SessionCapacity)
	}
}

func TestLoader_Load_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \"from-file:5080\"\n")
	t.Setenv("TOKGATE_SERVER_ADDR", "from-env:8080")
	t.Setenv("TOKGATE_SECURITY_SESSION_CAPACITY", "7")
	t.Setenv("TOKGATE_SERVER_MAX_ACCEPT_RATE", "12.5")

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "from-env:8080" {
		t.Errorf("Addr = %q, want env value", cfg.Server.Addr)
	}
	if cfg.Security.SessionCapacity != 7 {
		t.Errorf("SessionCapacity = %d, want 7", cfg.Security.SessionCapacity)
	}
	if cfg.Server.MaxAcceptRate != 12.5 {
		t.Errorf("MaxAcceptRate = %v, want 12.5", cfg.Server.MaxAcceptRate)
	}
}

func TestLoader_EnvKey(t *testing.T) {
	l := NewLoader()
	tests := map[string]string{
		"TOKGATE_SERVER_ADDR":                     "server.addr",
		"TOKGATE_SECURITY_RATELIMIT_MAX_ATTEMPTS": "security.ratelimit_max_attempts",
		"TOKGATE_DEBUG":                           "debug",
	}
	for in, want := range tests {
		if got := l.envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoader_LoadFile(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
	if err := l.LoadFile("/nonexistent/tokgate.yaml"); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"server.addr": "localhost:3000"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if got := l.String("server.addr"); got != "localhost:3000" {
		t.Errorf("server.addr = %q, want localhost:3000", got)
	}
	if len(l.Keys()) != 1 {
		t.Errorf("Keys() = %v, want one key", l.Keys())
	}
}

func TestLoader_Reload(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \"a:1\"\n")
	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("server:\n  addr: \"b:2\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := l.Reload(&cfg); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if cfg.Server.Addr != "b:2" {
		t.Errorf("Addr after Reload = %q, want b:2", cfg.Server.Addr)
	}
}
