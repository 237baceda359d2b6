//go:build !unix

package discord

import (
	"context"
	"net"
)

// dialIPC has no transport to the Discord client on this platform; named
// pipe support would go here.
func dialIPC(ctx context.Context) (net.Conn, error) {
	return nil, ErrUnreachable
}
