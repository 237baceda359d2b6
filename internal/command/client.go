package command

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"
)

// DefaultSendTimeout bounds a complete Send round trip. Commands are rare
// and small; anything slower means the owner is gone or wedged.
const DefaultSendTimeout = 5 * time.Second

// Send forwards one command to the owner listening on the loopback port and
// waits for its response. A new connection is opened per call. Send never
// returns an error: every transport failure, timeout, or decode failure is
// captured into a failure Response so the caller always has a value to
// surface.
func Send(port int, cmd Command, timeout time.Duration) Response {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	deadline := time.Now().Add(timeout)

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return Fail(fmt.Errorf("connect to running instance: %w", err), "")
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(deadline)

	data, err := json.Marshal(cmd)
	if err != nil {
		return Fail(fmt.Errorf("encode command: %w", err), "")
	}
	if _, err := conn.Write(data); err != nil {
		return Fail(fmt.Errorf("send command: %w", err), "")
	}
	// Half-close signals end-of-command to peers that read to EOF.
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}

	// Read until the peer closes or the cap is hit; the response is a single
	// frame either way.
	body, err := io.ReadAll(io.LimitReader(conn, MaxMessageSize))
	if err != nil {
		return Fail(fmt.Errorf("read response: %w", err), "")
	}
	if len(body) == 0 {
		return Failf("no response from running instance")
	}

	resp, err := decodeResponse(body)
	if err != nil {
		return Fail(err, "")
	}
	if !resp.Success && resp.Error == "" {
		resp.Error = "unknown error"
	}
	return resp
}
