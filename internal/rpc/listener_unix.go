//go:build !windows

package rpc

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// Listen creates the daemon's unix socket at path, replacing a stale one.
func Listen(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("error creating socket directory: %w", err)
	}
	_ = os.Remove(path)

	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("error listening on %s: %w", path, err)
	}
	_ = os.Chmod(path, 0o600)
	return l, nil
}

func dial(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}
