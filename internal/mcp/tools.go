package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Dadangdut33/discord-customrpc-manager/internal/command"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/eventlog"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/instance"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/paths"
)

// forward sends one command to the running agent over the loopback channel.
func (s *Server) forward(cmd command.Command) (command.Response, error) {
	port, ok := instance.ReadPortFile(paths.PortPath(s.stateDir))
	if !ok {
		return command.Response{}, errors.New("agent not running; start customrpc first")
	}
	return command.Send(port, cmd, s.sendTimeout), nil
}

func (s *Server) handleConnect(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input ConnectInput,
) (*gomcp.CallToolResult, ConnectOutput, error) {
	resp, err := s.forward(command.Command{Action: command.ActionConnect, Profile: input.Profile})
	if err != nil {
		return nil, ConnectOutput{}, err
	}
	if !resp.Success {
		return nil, ConnectOutput{}, fmt.Errorf("connect: %s", resp.Error)
	}

	// The not-found branch is a successful response carrying explanatory
	// text rather than an error.
	status := "connected"
	if strings.Contains(resp.Output, "not found") {
		status = "profile_not_found"
	}
	return nil, ConnectOutput{Status: status, Detail: strings.TrimSuffix(resp.Output, "\n")}, nil
}

func (s *Server) handleDisconnect(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input DisconnectInput,
) (*gomcp.CallToolResult, DisconnectOutput, error) {
	resp, err := s.forward(command.Command{Action: command.ActionDisconnect})
	if err != nil {
		return nil, DisconnectOutput{}, err
	}
	if !resp.Success {
		return nil, DisconnectOutput{}, fmt.Errorf("disconnect: %s", resp.Error)
	}
	return nil, DisconnectOutput{Status: "disconnected"}, nil
}

func (s *Server) handleListProfiles(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input ListProfilesInput,
) (*gomcp.CallToolResult, ListProfilesOutput, error) {
	resp, err := s.forward(command.Command{Action: command.ActionListProfiles})
	if err != nil {
		return nil, ListProfilesOutput{}, err
	}
	if !resp.Success {
		return nil, ListProfilesOutput{}, fmt.Errorf("list profiles: %s", resp.Error)
	}

	names := parseProfileListing(resp.Output)
	return nil, ListProfilesOutput{Profiles: names, Count: len(names)}, nil
}

// handleGetStatus reads the agent's on-disk records directly, so it works
// whether or not the agent is running.
func (s *Server) handleGetStatus(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input GetStatusInput,
) (*gomcp.CallToolResult, GetStatusOutput, error) {
	out := GetStatusOutput{}

	if pid, ok := instance.ReadOwnerPID(paths.LockPath(s.stateDir)); ok && instance.IsProcessRunning(pid) {
		out.Running = true
		out.PID = pid
		if port, ok := instance.ReadPortFile(paths.PortPath(s.stateDir)); ok {
			out.CommandPort = port
		}
	}

	// History is optional: a missing database just means no events yet.
	log, err := eventlog.OpenReadOnly(paths.EventsDBPath(s.stateDir))
	if err != nil {
		return nil, out, nil
	}
	defer func() { _ = log.Close() }()

	events, err := log.Recent(1)
	if err != nil || len(events) == 0 {
		return nil, out, nil
	}
	out.LastEvent = &EventInfo{
		Kind:   string(events[0].Kind),
		Detail: events[0].Detail,
		At:     events[0].At.Format(time.RFC3339),
	}
	return nil, out, nil
}

// parseProfileListing splits the channel's one-name-per-line listing. The
// empty-store sentinel text maps to no profiles.
func parseProfileListing(output string) []string {
	if output == "" || output == "No profiles found.\n" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(output, "\n"), "\n")
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if line != "" {
			names = append(names, line)
		}
	}
	return names
}
