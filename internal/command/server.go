package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"
)

// connIOTimeout bounds the read and write on one accepted connection so a
// stalled client can never wedge the host loop.
const connIOTimeout = 2 * time.Second

// Handler processes one decoded command and produces its response.
type Handler func(Command) Response

// Server is the loopback command listener. It is driven by its host: each
// AcceptOne call services at most one pending connection and never blocks,
// so the host polls only when it chooses to.
type Server struct {
	listener *net.TCPListener
	handler  Handler
	logger   *slog.Logger
}

// NewServer creates a command server that dispatches to handler.
func NewServer(handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{handler: handler, logger: logger}
}

// Start binds a loopback TCP listener and returns the bound port. Port 0
// requests an OS-assigned ephemeral port; the caller persists the actual
// value so clients can find the server.
func (s *Server) Start(preferredPort int) (int, error) {
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: preferredPort}
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("bind command listener: %w", err)
	}
	s.listener = listener
	port := listener.Addr().(*net.TCPAddr).Port
	s.logger.Info("command server started", "port", port)
	return port, nil
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// AcceptOne performs one non-blocking accept. If no connection is pending it
// returns false immediately. Otherwise it reads one command, dispatches it,
// writes the response, closes the connection, and returns true. Commands are
// strictly serialized: the next connection is not accepted until this one's
// response has been written.
func (s *Server) AcceptOne() bool {
	if s.listener == nil {
		return false
	}

	// A near-immediate deadline turns Accept into a poll. The deadline must
	// be in the future: an already-expired deadline makes Accept fail with a
	// timeout without ever checking for pending connections.
	if err := s.listener.SetDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return false
	}
	conn, err := s.listener.Accept()
	if err != nil {
		var netErr net.Error
		if !errors.As(err, &netErr) || !netErr.Timeout() {
			s.logger.Warn("accept failed", "error", err)
		}
		return false
	}

	s.serve(conn)
	return true
}

// serve handles exactly one command on conn. Every accepted connection gets
// a response: decode failures produce a failure response rather than a
// silent close.
func (s *Server) serve(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(connIOTimeout))

	// Read until the client half-closes or the cap is hit. A client that
	// neither half-closes nor fills the cap runs into the connection
	// deadline; whatever arrived by then is still decoded.
	body, err := io.ReadAll(io.LimitReader(conn, MaxMessageSize))
	if len(body) == 0 {
		s.logger.Warn("command read failed", "error", err)
		s.reply(conn, Failf("failed to read command"))
		return
	}

	var cmd Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		s.logger.Warn("malformed command payload", "error", err)
		s.reply(conn, Failf("malformed command: %v", err))
		return
	}

	if !cmd.Action.Valid() {
		s.logger.Warn("unknown command action", "action", cmd.Action)
		s.reply(conn, Failf("unknown action: %q", cmd.Action))
		return
	}

	s.logger.Info("command received", "action", cmd.Action, "profile", cmd.Profile)
	s.reply(conn, s.handler(cmd))
}

func (s *Server) reply(conn net.Conn, resp Response) {
	// Fresh write deadline: the read may have consumed the shared one.
	_ = conn.SetWriteDeadline(time.Now().Add(connIOTimeout))
	data, err := json.Marshal(resp)
	if err != nil {
		// Marshal of Response cannot realistically fail; fall back to the ack
		data = legacyAck
	}
	if len(data) > MaxMessageSize {
		trimmed := resp
		trimmed.Output = ""
		data, _ = json.Marshal(trimmed)
	}
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("response write failed", "error", err)
	}
}

// Stop closes the listener. Safe to call multiple times.
func (s *Server) Stop() {
	if s.listener == nil {
		return
	}
	_ = s.listener.Close()
	s.listener = nil
	s.logger.Info("command server stopped")
}
