// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package stdio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Tool is one advertised capability: a name, a human description, and
// a JSON Schema for its arguments. The schema is opaque to the server;
// it is advertised verbatim.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Built-in tool names the dispatcher recognizes.
const (
	toolSendMessage    = "send_message"
	toolGetFile        = "get_file"
	toolUpdateFile     = "update_file"
	toolExecuteCommand = "execute_command"
)

// DefaultTools returns the built-in capability catalog for the four
// bridge operations.
func DefaultTools() []Tool {
	return []Tool{
		{
			Name:        toolSendMessage,
			Description: "Send a chat message to the peer on the other side of the bridge",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"message":{"type":"string","description":"Message text"}},"required":["message"]}`),
		},
		{
			Name:        toolGetFile,
			Description: "Read a file from the peer's workspace",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"Workspace-relative file path"}},"required":["path"]}`),
		},
		{
			Name:        toolUpdateFile,
			Description: "Write a file in the peer's workspace",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"},"content":{"type":"string"}},"required":["path","content"]}`),
		},
		{
			Name:        toolExecuteCommand,
			Description: "Run a shell command in the peer's workspace and return its output",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"command":{"type":"string"}},"required":["command"]}`),
		},
	}
}

// LoadCatalog reads a capability catalog from a JSONC file (comments
// and trailing commas tolerated). The file holds a JSON array of
// tools.
func LoadCatalog(path string) ([]Tool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stdio: reading catalog %s: %w", path, err)
	}

	var tools []Tool
	if err := json.Unmarshal(jsonc.ToJSON(data), &tools); err != nil {
		return nil, fmt.Errorf("stdio: parsing catalog %s: %w", path, err)
	}
	for i, tool := range tools {
		if tool.Name == "" {
			return nil, fmt.Errorf("stdio: catalog %s: tool %d has no name", path, i)
		}
	}
	return tools, nil
}
