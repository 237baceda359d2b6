package mcp

// ConnectInput is the input for the connect MCP tool.
type ConnectInput struct {
	Profile string `json:"profile,omitempty" jsonschema:"Profile name to publish. Omit to reuse the last loaded profile"`
}

// ConnectOutput is the output for the connect MCP tool.
type ConnectOutput struct {
	Status string `json:"status" jsonschema:"Result: connected or profile_not_found"`
	Detail string `json:"detail,omitempty" jsonschema:"Human-readable response from the agent"`
}

// DisconnectInput is the input for the disconnect MCP tool.
type DisconnectInput struct{}

// DisconnectOutput is the output for the disconnect MCP tool.
type DisconnectOutput struct {
	Status string `json:"status" jsonschema:"Result: disconnected"`
}

// ListProfilesInput is the input for the list_profiles MCP tool.
type ListProfilesInput struct{}

// ListProfilesOutput is the output for the list_profiles MCP tool.
type ListProfilesOutput struct {
	Profiles []string `json:"profiles" jsonschema:"Stored profile names, lexicographic"`
	Count    int      `json:"count"`
}

// GetStatusInput is the input for the get_status MCP tool.
type GetStatusInput struct{}

// EventInfo is one recorded presence event.
type EventInfo struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
	At     string `json:"at"`
}

// GetStatusOutput is the output for the get_status MCP tool.
type GetStatusOutput struct {
	Running     bool       `json:"running" jsonschema:"Whether the agent process is alive"`
	PID         int        `json:"pid,omitempty" jsonschema:"Agent process ID when running"`
	CommandPort int        `json:"command_port,omitempty" jsonschema:"Loopback command port when running"`
	LastEvent   *EventInfo `json:"last_event,omitempty" jsonschema:"Most recent recorded presence event"`
}
