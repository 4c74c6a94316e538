package localserver

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
)

// socketMode restricts the admin socket to the owning user.
const socketMode fs.FileMode = 0o600

// Listen opens a Unix socket at path, replacing a stale socket left by a
// previous process. It refuses to replace anything that is not a socket
// or a socket another process still serves.
func Listen(path string, logger *slog.Logger) (net.Listener, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := removeStale(path); err != nil {
		return nil, err
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("localserver: listen %s: %w", path, err)
	}
	// Closing the listener removes the socket file.
	ln.(*net.UnixListener).SetUnlinkOnClose(true)

	if err := os.Chmod(path, socketMode); err != nil {
		ln.Close()
		return nil, fmt.Errorf("localserver: chmod %s: %w", path, err)
	}

	logger.Info("admin socket listening", "path", path)
	return ln, nil
}

func removeStale(path string) error {
	fi, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("localserver: stat %s: %w", path, err)
	}
	if fi.Mode()&fs.ModeSocket == 0 {
		return fmt.Errorf("localserver: %s exists and is not a socket", path)
	}

	if c, err := net.Dial("unix", path); err == nil {
		c.Close()
		return fmt.Errorf("localserver: %s is in use by another process", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("localserver: remove stale socket: %w", err)
	}
	return nil
}
