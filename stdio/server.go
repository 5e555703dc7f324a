// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package stdio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jefedeoro/Claude-Cline-Bridge/framing"
)

// Bridge is the set of operations call_tool dispatches to. Implemented
// by messaging.Client; tests substitute a fake.
type Bridge interface {
	SendMessage(ctx context.Context, content string) error
	GetFile(ctx context.Context, path string) (string, error)
	UpdateFile(ctx context.Context, path, content string) error
	ExecuteCommand(ctx context.Context, command string) (string, error)
}

// Server answers framed records on a byte stream.
type Server struct {
	// Bridge performs the tool operations. Required.
	Bridge Bridge

	// Tools is the advertised capability catalog. If nil,
	// DefaultTools() is advertised.
	Tools []Tool

	// Name and Version identify the server in the initialize reply.
	// Defaults: "claude-cline-bridge" / "dev".
	Name    string
	Version string

	// Logger receives structured log output. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) tools() []Tool {
	if s.Tools != nil {
		return s.Tools
	}
	return DefaultTools()
}

func (s *Server) identity() serverInfo {
	info := serverInfo{Name: s.Name, Version: s.Version}
	if info.Name == "" {
		info.Name = "claude-cline-bridge"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

// Run decodes frames from input and writes response frames to output
// until input reaches EOF or ctx is cancelled between frames. Framing
// parse errors are fatal for the stream (the byte position is lost);
// everything above framing (malformed JSON, unknown methods, failed
// tool calls) is answered on the stream and never stops the loop.
func (s *Server) Run(ctx context.Context, input io.Reader, output io.Writer) error {
	if s.Bridge == nil {
		return fmt.Errorf("stdio: Bridge is required")
	}

	var decoder framing.Decoder
	chunk := make([]byte, 4096)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		n, readErr := input.Read(chunk)
		if n > 0 {
			payloads, err := decoder.Feed(chunk[:n])
			// Handle complete frames even when the feed also errored.
			for _, payload := range payloads {
				s.handleFrame(ctx, payload, output)
			}
			if err != nil {
				return fmt.Errorf("stdio: %w", err)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("stdio: reading stream: %w", readErr)
		}
	}
}

// handleFrame processes one decoded record and writes any responses.
func (s *Server) handleFrame(ctx context.Context, payload []byte, output io.Writer) {
	var req request
	if err := json.Unmarshal(payload, &req); err != nil {
		s.writeError(output, json.RawMessage("null"), codeParseError, "parse error: "+err.Error())
		return
	}

	s.logger().Debug("frame received", "method", req.Method)

	switch req.Method {
	case "initialize":
		s.writeResult(output, req.ID, initializeResult{
			ServerInfo:   s.identity(),
			Capabilities: serverCapabilities{},
		})
		// The capability list follows the handshake as a separate
		// notification so peers that only listen still learn the
		// catalog.
		s.writeNotification(output, "notifications/tools/list", toolsResult{Tools: s.tools()})

	case "list_tools":
		s.writeResult(output, req.ID, toolsResult{Tools: s.tools()})

	case "call_tool":
		if req.isNotification() {
			// A call with no id has nowhere to deliver its result.
			s.logger().Debug("dropping call_tool notification")
			return
		}
		s.handleCallTool(ctx, &req, output)

	default:
		if req.isNotification() {
			return
		}
		s.writeError(output, req.ID, codeMethodNotFound,
			fmt.Sprintf("unsupported method: %s", req.Method))
	}
}

// handleCallTool dispatches a call_tool request to the bridge.
func (s *Server) handleCallTool(ctx context.Context, req *request, output io.Writer) {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(output, req.ID, codeInvalidParams, "invalid call_tool params: "+err.Error())
		return
	}

	var arguments struct {
		Message string `json:"message"`
		Path    string `json:"path"`
		Content string `json:"content"`
		Command string `json:"command"`
	}
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &arguments); err != nil {
			s.writeError(output, req.ID, codeInvalidParams, "invalid tool arguments: "+err.Error())
			return
		}
	}

	var result callToolResult
	switch params.Name {
	case toolSendMessage:
		if err := s.Bridge.SendMessage(ctx, arguments.Message); err != nil {
			result = errorResult(err.Error())
		} else {
			result = textResult("message sent")
		}
	case toolGetFile:
		content, err := s.Bridge.GetFile(ctx, arguments.Path)
		if err != nil {
			result = errorResult(err.Error())
		} else {
			result = textResult(content)
		}
	case toolUpdateFile:
		if err := s.Bridge.UpdateFile(ctx, arguments.Path, arguments.Content); err != nil {
			result = errorResult(err.Error())
		} else {
			result = textResult("file updated: " + arguments.Path)
		}
	case toolExecuteCommand:
		commandOutput, err := s.Bridge.ExecuteCommand(ctx, arguments.Command)
		if err != nil {
			result = errorResult(err.Error())
		} else {
			result = textResult(commandOutput)
		}
	default:
		s.writeError(output, req.ID, codeInvalidParams,
			fmt.Sprintf("unknown tool: %s", params.Name))
		return
	}

	s.writeResult(output, req.ID, result)
}

// writeResult frames and writes a success response.
func (s *Server) writeResult(output io.Writer, id json.RawMessage, result any) {
	s.writeRecord(output, response{ID: id, Result: result})
}

// writeError frames and writes an error response.
func (s *Server) writeError(output io.Writer, id json.RawMessage, code int, message string) {
	s.writeRecord(output, response{ID: id, Error: &responseError{Code: code, Message: message}})
}

// writeNotification frames and writes an id-less record.
func (s *Server) writeNotification(output io.Writer, method string, params any) {
	s.writeRecord(output, notification{Method: method, Params: params})
}

func (s *Server) writeRecord(output io.Writer, record any) {
	data, err := json.Marshal(record)
	if err != nil {
		s.logger().Error("encoding response record", "error", err)
		return
	}
	if err := framing.EncodeTo(output, data); err != nil {
		// The stream is gone; the read side will notice on its next
		// turn of the loop.
		s.logger().Warn("writing response frame", "error", err)
	}
}
