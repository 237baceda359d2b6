// Package command implements the loopback command channel between a running
// agent and later CLI invocations: a small fixed vocabulary of JSON commands,
// one command per connection, one response per command.
package command

import (
	"encoding/json"
	"fmt"
)

// Action names the operation a command requests.
type Action string

// The full command vocabulary. The channel is not a general RPC surface;
// unknown actions are rejected by the server.
const (
	ActionConnect      Action = "connect"
	ActionDisconnect   Action = "disconnect"
	ActionQuit         Action = "quit"
	ActionListProfiles Action = "list_profiles"
	ActionLoadProfile  Action = "load_profile"
)

// MaxMessageSize caps request and response bodies. The vocabulary is tiny;
// anything larger is malformed.
const MaxMessageSize = 4096

// legacyAck is the two-byte acknowledgment older peers emit instead of a
// structured response. Clients must accept it as bare success.
var legacyAck = []byte("OK")

// Command is one named action with an optional profile argument.
type Command struct {
	Action  Action `json:"action"`
	Profile string `json:"profile,omitempty"`
}

// Valid reports whether the action is part of the vocabulary.
func (a Action) Valid() bool {
	switch a {
	case ActionConnect, ActionDisconnect, ActionQuit, ActionListProfiles, ActionLoadProfile:
		return true
	}
	return false
}

// Response is the tri-state command result: success with optional output, or
// failure with an error description and any partially captured output.
type Response struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok builds a success response.
func Ok(output string) Response {
	return Response{Success: true, Output: output}
}

// Fail builds a failure response. A failure always carries a non-empty error
// description.
func Fail(err error, output string) Response {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Response{Success: false, Error: msg, Output: output}
}

// Failf builds a failure response from a format string.
func Failf(format string, args ...any) Response {
	return Response{Success: false, Error: fmt.Sprintf(format, args...)}
}

// decodeResponse parses a response body, accepting the legacy two-byte ack.
func decodeResponse(data []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		if string(data) == string(legacyAck) {
			return Response{Success: true}, nil
		}
		return Response{}, fmt.Errorf("invalid response: %w", err)
	}
	return resp, nil
}
