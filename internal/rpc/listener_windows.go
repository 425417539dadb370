//go:build windows

package rpc

import (
	"context"
	"net"
	"strings"

	"github.com/Microsoft/go-winio"
)

// pipeSecurityDescriptor grants access to SYSTEM, Administrators and the
// user who created the pipe.
const pipeSecurityDescriptor = "D:(A;;GA;;;SY)(A;;GA;;;BA)(A;;GA;;;CO)"

const defaultPipe = `\\.\pipe\clockset`

// pipePath maps a configured socket path onto a named pipe.
func pipePath(path string) string {
	if strings.HasPrefix(path, `\\.\pipe\`) {
		return path
	}
	return defaultPipe
}

// Listen creates the daemon's named pipe.
func Listen(path string) (net.Listener, error) {
	return winio.ListenPipe(pipePath(path), &winio.PipeConfig{
		SecurityDescriptor: pipeSecurityDescriptor,
	})
}

func dial(ctx context.Context, path string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, pipePath(path))
}
