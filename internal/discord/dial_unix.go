//go:build unix

package discord

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// socketCount is how many numbered IPC sockets Discord may open.
const socketCount = 10

// dialIPC tries the well-known Discord IPC socket locations in order.
// CUSTOMRPC_DISCORD_SOCKET pins a single socket path, which tests use to
// point the client at a fake.
func dialIPC(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{}

	if override := os.Getenv("CUSTOMRPC_DISCORD_SOCKET"); override != "" {
		conn, err := dialer.DialContext(ctx, "unix", override)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		return conn, nil
	}

	for _, dir := range socketDirs() {
		for i := 0; i < socketCount; i++ {
			path := filepath.Join(dir, fmt.Sprintf("discord-ipc-%d", i))
			if _, err := os.Stat(path); err != nil {
				continue
			}
			conn, err := dialer.DialContext(ctx, "unix", path)
			if err == nil {
				return conn, nil
			}
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnreachable, ctx.Err())
			}
		}
	}
	return nil, ErrUnreachable
}

// socketDirs lists candidate directories, most specific first. Sandboxed
// Discord builds (flatpak, snap) relocate the socket under subdirectories.
func socketDirs() []string {
	var dirs []string
	bases := []string{
		os.Getenv("XDG_RUNTIME_DIR"),
		os.Getenv("TMPDIR"),
		os.Getenv("TMP"),
		os.Getenv("TEMP"),
		"/tmp",
	}
	for _, base := range bases {
		if base == "" {
			continue
		}
		dirs = append(dirs,
			base,
			filepath.Join(base, "app", "com.discordapp.Discord"),
			filepath.Join(base, "snap.discord"),
		)
	}
	return dirs
}
