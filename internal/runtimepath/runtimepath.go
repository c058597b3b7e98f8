// Package runtimepath resolves where the daemon's control socket lives.
// The socket is per-user session state, not configuration, so it goes in
// the user's runtime directory rather than under ~/.config/stacktile.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir returns the per-user runtime directory for the control socket. The
// session's XDG_RUNTIME_DIR wins when set; otherwise the systemd-style
// /run/user/<uid> is used when it exists, and a private directory under
// /tmp is created as the last resort.
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/stacktile-runtime-%d", uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

// SocketPath returns the daemon IPC socket path.
func SocketPath() (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, "stacktile.sock"), nil
}
