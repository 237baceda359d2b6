package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dadangdut33/discord-customrpc-manager/internal/instance"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/mcp"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/paths"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server integration",
	}

	cmd.AddCommand(mcpServeCmd())
	return cmd
}

func mcpServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start MCP stdio server for presence management",
		Long: `Starts an MCP server on stdin/stdout exposing presence tools
(connect, disconnect, list_profiles, get_status).

The mutating tools forward to the running customrpc agent over its
loopback command channel.

Configure in Claude Code's .claude/settings.json:
  {
    "mcpServers": {
      "customrpc": {
        "type": "stdio",
        "command": "customrpc",
        "args": ["mcp", "serve"]
      }
    }
  }`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCPServe()
		},
	}
	return cmd
}

func runMCPServe() error {
	stateDir, err := paths.StateDir()
	if err != nil {
		return err
	}

	// get_status works from on-disk records alone, so a missing agent is a
	// warning rather than a startup failure.
	if _, ok := instance.ReadPortFile(paths.PortPath(stateDir)); !ok {
		fmt.Fprintln(os.Stderr, "Warning: customrpc agent is not running; only get_status will succeed. Start it with: customrpc")
	}

	server := mcp.NewServer(stateDir, mcp.WithVersion(Version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return server.Run(ctx)
}
