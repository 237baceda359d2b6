package mcp

import (
	"context"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Dadangdut33/discord-customrpc-manager/internal/command"
)

// Server exposes presence management as MCP tools over stdio. Every mutating
// tool is a thin forwarder over the loopback command channel, so the agent
// must already be running for those to succeed.
type Server struct {
	stateDir    string
	version     string
	sendTimeout time.Duration
	server      *gomcp.Server
}

// Option configures the MCP server.
type Option func(*Server)

// WithVersion sets the server version string.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithSendTimeout overrides the command channel timeout.
func WithSendTimeout(d time.Duration) Option {
	return func(s *Server) { s.sendTimeout = d }
}

// NewServer creates an MCP server rooted at the given state directory.
func NewServer(stateDir string, opts ...Option) *Server {
	s := &Server{
		stateDir:    stateDir,
		version:     "dev",
		sendTimeout: command.DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "customrpc",
			Version: s.version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdin/stdout. It blocks until the client
// disconnects or the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "connect",
		Description: "Connect to Discord and publish the named presence profile. Omit profile to reuse the last one",
	}, s.handleConnect)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "disconnect",
		Description: "Disconnect from Discord and clear the published presence",
	}, s.handleDisconnect)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_profiles",
		Description: "List the stored presence profiles",
	}, s.handleListProfiles)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_status",
		Description: "Report whether the agent is running and the most recent presence event",
	}, s.handleGetStatus)
}
