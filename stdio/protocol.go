// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package stdio

import "encoding/json"

// Error codes for response records, following the JSON-RPC 2.0
// convention the stream peers already speak.
const (
	codeParseError     = -32700
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeInternalError  = -32603
)

// request is one inbound record. Records without an ID are
// notifications and receive no response.
type request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// isNotification reports whether the record expects no response.
func (r *request) isNotification() bool { return len(r.ID) == 0 }

// response is one outbound record. Exactly one of Result or Error is
// set.
type response struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result,omitempty"`
	Error  *responseError  `json:"error,omitempty"`
}

// notification is an outbound record with no ID; the peer must not
// answer it.
type notification struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// responseError is the error object of a failed response.
type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// initializeResult is the reply to initialize.
type initializeResult struct {
	ServerInfo   serverInfo         `json:"serverInfo"`
	Capabilities serverCapabilities `json:"capabilities"`
}

// serverInfo identifies this server to the peer.
type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// serverCapabilities declares what the server supports. The presence
// of Tools signals tool support.
type serverCapabilities struct {
	Tools struct{} `json:"tools"`
}

// toolsResult is the reply to list_tools and the params of the
// capability notification sent after initialize.
type toolsResult struct {
	Tools []Tool `json:"tools"`
}

// callToolParams is the request payload of call_tool.
type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// callToolResult is the reply to call_tool. Failures of the underlying
// bridge operation travel as IsError with the message in the content
// block; they are results, not protocol errors.
type callToolResult struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// contentBlock is a text block within a tool result.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// textResult wraps text into the standard single-block result.
func textResult(text string) callToolResult {
	return callToolResult{Content: []contentBlock{{Type: "text", Text: text}}}
}

// errorResult wraps a failure message into an IsError result.
func errorResult(text string) callToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}
