// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Party identifies one of the two bridge endpoints. Each party owns one
// mailbox at the relay and drains only its own; outbound messages are
// enqueued to the peer's mailbox.
type Party string

const (
	// PartyClaude is the assistant-side endpoint (the stdio tool server).
	PartyClaude Party = "claude"
	// PartyCline is the editor-side endpoint (the workspace daemon).
	PartyCline Party = "cline"
)

// Valid reports whether p is one of the two known parties.
func (p Party) Valid() bool {
	return p == PartyClaude || p == PartyCline
}

// Peer returns the other party. Panics if p is not a valid party;
// callers validate at the boundary (config load, HTTP route).
func (p Party) Peer() Party {
	switch p {
	case PartyClaude:
		return PartyCline
	case PartyCline:
		return PartyClaude
	}
	panic(fmt.Sprintf("protocol: invalid party %q", string(p)))
}

// MessageType is the envelope discriminant. It selects both the payload
// shape and the handling path at the receiver: requests are executed and
// answered, replies resolve a pending call, notifications fan out to
// observers.
type MessageType string

const (
	// TypeText is a free-form chat message (notification).
	TypeText MessageType = "text"
	// TypeFileRequest asks the peer to read a file (request).
	TypeFileRequest MessageType = "fileRequest"
	// TypeFileContent answers a fileRequest (reply, correlated by path).
	TypeFileContent MessageType = "fileContent"
	// TypeUpdateCode asks the peer to write a file (request).
	TypeUpdateCode MessageType = "updateCode"
	// TypeUpdateCodeResult answers an updateCode (reply, correlated by path).
	TypeUpdateCodeResult MessageType = "updateCodeResult"
	// TypeExecuteCommand asks the peer to run a command (request).
	TypeExecuteCommand MessageType = "executeCommand"
	// TypeCommandResult answers an executeCommand (reply, correlated by
	// the command string).
	TypeCommandResult MessageType = "commandResult"
	// TypeFileChanged is an unsolicited change notification.
	TypeFileChanged MessageType = "fileChanged"
	// TypeRPCInvoke is a generic correlated call (request, correlated by id).
	TypeRPCInvoke MessageType = "rpcInvoke"
	// TypeRPCResponse answers an rpcInvoke (reply, correlated by id).
	TypeRPCResponse MessageType = "rpcResponse"
)

// Envelope is the unit exchanged through a mailbox. Timestamp is zero
// until the relay assigns it at enqueue time. Payload holds the JSON
// encoding of the payload struct for Type.
type Envelope struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp,omitzero"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// DecodePayload unmarshals the envelope payload into v, which must be a
// pointer to the payload struct matching the envelope type.
func (e *Envelope) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("protocol: %s envelope has no payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("protocol: decoding %s payload: %w", e.Type, err)
	}
	return nil
}

// TextPayload carries a chat message.
type TextPayload struct {
	Content string `json:"content"`
}

// FileRequestPayload asks the peer to read Path.
type FileRequestPayload struct {
	Path string `json:"path"`
}

// FileContentPayload answers a file request. Error is the peer's read
// failure; when set, Content is empty.
type FileContentPayload struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UpdateCodePayload asks the peer to write Content to Path.
type UpdateCodePayload struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// UpdateCodeResultPayload answers an update request.
type UpdateCodeResultPayload struct {
	Path    string `json:"path"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ExecuteCommandPayload asks the peer to run Command.
type ExecuteCommandPayload struct {
	Command string `json:"command"`
}

// CommandResultPayload answers an execute request. Output is present
// even on failure (a failing command usually still produced output).
type CommandResultPayload struct {
	Command string `json:"command"`
	Output  string `json:"output,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// FileChangedPayload is an unsolicited notification that Path now holds
// Content.
type FileChangedPayload struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// RPCInvokePayload is a generic correlated call. ID is chosen by the
// caller and must be unique among its in-flight invokes.
type RPCInvokePayload struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	ID     string          `json:"id"`
}

// RPCResponsePayload answers an rpcInvoke, correlated by ID.
type RPCResponsePayload struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// newEnvelope builds an envelope with the given type and payload struct.
// Payload structs contain only JSON-encodable fields, so the marshal
// cannot fail.
func newEnvelope(messageType MessageType, payload any) Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("protocol: encoding %s payload: %v", messageType, err))
	}
	return Envelope{Type: messageType, Payload: data}
}

// NewText creates a chat message envelope.
func NewText(content string) Envelope {
	return newEnvelope(TypeText, TextPayload{Content: content})
}

// NewFileRequest creates a read-file request envelope.
func NewFileRequest(path string) Envelope {
	return newEnvelope(TypeFileRequest, FileRequestPayload{Path: path})
}

// NewFileContent creates the reply to a file request. Pass errMessage
// empty on success.
func NewFileContent(path, content, errMessage string) Envelope {
	return newEnvelope(TypeFileContent, FileContentPayload{
		Path:    path,
		Content: content,
		Error:   errMessage,
	})
}

// NewUpdateCode creates a write-file request envelope.
func NewUpdateCode(path, content string) Envelope {
	return newEnvelope(TypeUpdateCode, UpdateCodePayload{Path: path, Content: content})
}

// NewUpdateCodeResult creates the reply to an update request. Pass
// errMessage empty on success.
func NewUpdateCodeResult(path string, success bool, errMessage string) Envelope {
	return newEnvelope(TypeUpdateCodeResult, UpdateCodeResultPayload{
		Path:    path,
		Success: success,
		Error:   errMessage,
	})
}

// NewExecuteCommand creates a run-command request envelope.
func NewExecuteCommand(command string) Envelope {
	return newEnvelope(TypeExecuteCommand, ExecuteCommandPayload{Command: command})
}

// NewCommandResult creates the reply to an execute request.
func NewCommandResult(command, output string, success bool, errMessage string) Envelope {
	return newEnvelope(TypeCommandResult, CommandResultPayload{
		Command: command,
		Output:  output,
		Success: success,
		Error:   errMessage,
	})
}

// NewFileChanged creates an unsolicited change notification envelope.
func NewFileChanged(path, content string) Envelope {
	return newEnvelope(TypeFileChanged, FileChangedPayload{Path: path, Content: content})
}

// NewRPCInvoke creates a generic correlated call envelope. params may be
// nil for methods without arguments.
func NewRPCInvoke(method, id string, params json.RawMessage) Envelope {
	return newEnvelope(TypeRPCInvoke, RPCInvokePayload{Method: method, Params: params, ID: id})
}

// NewRPCResponse creates the reply to an rpcInvoke. Pass errMessage
// empty on success.
func NewRPCResponse(id string, result json.RawMessage, errMessage string) Envelope {
	return newEnvelope(TypeRPCResponse, RPCResponsePayload{ID: id, Result: result, Error: errMessage})
}
