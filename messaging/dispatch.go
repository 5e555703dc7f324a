// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jefedeoro/Claude-Cline-Bridge/protocol"
)

// tick is one poll cycle: a cheap check, then a drain-and-dispatch only
// when the relay reports pending envelopes. The returned error is a
// transport failure on the check or drain call; dispatch itself never
// fails a tick.
func (c *Client) tick(ctx context.Context) error {
	check, err := c.check(ctx)
	if err != nil {
		return err
	}
	if !check.HasUpdates {
		return nil
	}

	envelopes, err := c.drainMailbox(ctx)
	if err != nil {
		return err
	}
	for i := range envelopes {
		c.dispatch(ctx, &envelopes[i])
	}
	return nil
}

// dispatch routes one envelope to exactly one handling path. Unknown
// types are dropped with a debug log; tolerating them keeps the two
// sides independently upgradable.
func (c *Client) dispatch(ctx context.Context, envelope *protocol.Envelope) {
	switch envelope.Type {
	case protocol.TypeFileContent:
		c.completeFileContent(envelope)
	case protocol.TypeUpdateCodeResult:
		c.completeUpdateCodeResult(envelope)
	case protocol.TypeCommandResult:
		c.completeCommandResult(envelope)
	case protocol.TypeRPCResponse:
		c.completeRPCResponse(envelope)
	case protocol.TypeFileRequest:
		c.handleFileRequest(ctx, envelope)
	case protocol.TypeUpdateCode:
		c.handleUpdateCode(ctx, envelope)
	case protocol.TypeExecuteCommand:
		c.handleExecuteCommand(ctx, envelope)
	case protocol.TypeRPCInvoke:
		c.handleRPCInvoke(ctx, envelope)
	case protocol.TypeText:
		c.notifyText(envelope)
	case protocol.TypeFileChanged:
		c.notifyFileChanged(envelope)
	default:
		c.logger.Debug("dropping envelope of unknown type", "type", string(envelope.Type))
	}
}

// decodeOrDrop decodes the payload into v; on failure it logs and
// reports false so the caller drops the envelope.
func (c *Client) decodeOrDrop(envelope *protocol.Envelope, v any) bool {
	if err := envelope.DecodePayload(v); err != nil {
		c.logger.Debug("dropping malformed envelope", "type", string(envelope.Type), "error", err)
		return false
	}
	return true
}

// --- reply envelopes: resolve or reject the matching pending entry ---

// dropLateReply logs a reply that found no pending entry. Late,
// duplicate, and post-timeout replies all land here and stay silent at
// any level above debug.
func (c *Client) dropLateReply(envelope *protocol.Envelope, key string) {
	c.logger.Debug("dropping reply with no pending entry",
		"type", string(envelope.Type),
		"key", key,
	)
}

func (c *Client) completeFileContent(envelope *protocol.Envelope) {
	var payload protocol.FileContentPayload
	if !c.decodeOrDrop(envelope, &payload) {
		return
	}
	key := pendingKey(protocol.TypeFileContent, payload.Path)
	var completed bool
	if payload.Error != "" {
		completed = c.pending.reject(key, &RemoteError{Op: "getFile", Message: payload.Error})
	} else {
		completed = c.pending.resolve(key, payload.Content)
	}
	if !completed {
		c.dropLateReply(envelope, key)
	}
}

func (c *Client) completeUpdateCodeResult(envelope *protocol.Envelope) {
	var payload protocol.UpdateCodeResultPayload
	if !c.decodeOrDrop(envelope, &payload) {
		return
	}
	key := pendingKey(protocol.TypeUpdateCodeResult, payload.Path)
	var completed bool
	if !payload.Success {
		message := payload.Error
		if message == "" {
			message = "update failed"
		}
		completed = c.pending.reject(key, &RemoteError{Op: "updateFile", Message: message})
	} else {
		completed = c.pending.resolve(key, nil)
	}
	if !completed {
		c.dropLateReply(envelope, key)
	}
}

func (c *Client) completeCommandResult(envelope *protocol.Envelope) {
	var payload protocol.CommandResultPayload
	if !c.decodeOrDrop(envelope, &payload) {
		return
	}
	key := pendingKey(protocol.TypeCommandResult, payload.Command)
	var completed bool
	if !payload.Success {
		message := payload.Error
		if message == "" {
			message = "command failed"
		}
		completed = c.pending.reject(key, &RemoteError{Op: "executeCommand", Message: message})
	} else {
		completed = c.pending.resolve(key, payload.Output)
	}
	if !completed {
		c.dropLateReply(envelope, key)
	}
}

func (c *Client) completeRPCResponse(envelope *protocol.Envelope) {
	var payload protocol.RPCResponsePayload
	if !c.decodeOrDrop(envelope, &payload) {
		return
	}
	key := pendingKey(protocol.TypeRPCResponse, payload.ID)
	var completed bool
	if payload.Error != "" {
		completed = c.pending.reject(key, &RemoteError{Op: "invoke", Message: payload.Error})
	} else {
		completed = c.pending.resolve(key, payload.Result)
	}
	if !completed {
		c.dropLateReply(envelope, key)
	}
}

// --- request envelopes: run the collaborator, answer through the relay ---

// reply enqueues a reply envelope to the peer. A transport failure here
// is logged and swallowed: the requester recovers through its own
// timeout, and the next tick decides connection state.
func (c *Client) reply(ctx context.Context, envelope protocol.Envelope) {
	if err := c.enqueuePeer(ctx, envelope); err != nil {
		c.logger.Warn("failed to enqueue reply", "type", string(envelope.Type), "error", err)
	}
}

func (c *Client) handleFileRequest(ctx context.Context, envelope *protocol.Envelope) {
	var payload protocol.FileRequestPayload
	if !c.decodeOrDrop(envelope, &payload) {
		return
	}

	var reply protocol.Envelope
	if c.config.Workspace == nil {
		reply = protocol.NewFileContent(payload.Path, "", "no workspace configured")
	} else if content, err := c.config.Workspace.ReadFile(payload.Path); err != nil {
		reply = protocol.NewFileContent(payload.Path, "", err.Error())
	} else {
		reply = protocol.NewFileContent(payload.Path, content, "")
	}
	c.reply(ctx, reply)
}

func (c *Client) handleUpdateCode(ctx context.Context, envelope *protocol.Envelope) {
	var payload protocol.UpdateCodePayload
	if !c.decodeOrDrop(envelope, &payload) {
		return
	}

	var reply protocol.Envelope
	if c.config.Workspace == nil {
		reply = protocol.NewUpdateCodeResult(payload.Path, false, "no workspace configured")
	} else if err := c.config.Workspace.WriteFile(payload.Path, payload.Content); err != nil {
		reply = protocol.NewUpdateCodeResult(payload.Path, false, err.Error())
	} else {
		reply = protocol.NewUpdateCodeResult(payload.Path, true, "")
	}
	c.reply(ctx, reply)
}

func (c *Client) handleExecuteCommand(ctx context.Context, envelope *protocol.Envelope) {
	var payload protocol.ExecuteCommandPayload
	if !c.decodeOrDrop(envelope, &payload) {
		return
	}

	var reply protocol.Envelope
	if c.config.Workspace == nil {
		reply = protocol.NewCommandResult(payload.Command, "", false, "no workspace configured")
	} else if output, err := c.config.Workspace.RunCommand(ctx, payload.Command); err != nil {
		// The output still travels with the failure: a failing
		// command's stderr is usually the interesting part.
		reply = protocol.NewCommandResult(payload.Command, output, false, err.Error())
	} else {
		reply = protocol.NewCommandResult(payload.Command, output, true, "")
	}
	c.reply(ctx, reply)
}

func (c *Client) handleRPCInvoke(ctx context.Context, envelope *protocol.Envelope) {
	var payload protocol.RPCInvokePayload
	if !c.decodeOrDrop(envelope, &payload) {
		return
	}

	c.observerMu.Lock()
	handler := c.rpcHandlers[payload.Method]
	c.observerMu.Unlock()

	if handler == nil {
		c.reply(ctx, protocol.NewRPCResponse(payload.ID, nil,
			fmt.Sprintf("unsupported method: %s", payload.Method)))
		return
	}

	result, err := handler(ctx, payload.Params)
	if err != nil {
		c.reply(ctx, protocol.NewRPCResponse(payload.ID, nil, err.Error()))
		return
	}
	if result == nil {
		result = json.RawMessage("null")
	}
	c.reply(ctx, protocol.NewRPCResponse(payload.ID, result, ""))
}

// --- notification envelopes: fan out to observers, no reply ---

func (c *Client) notifyText(envelope *protocol.Envelope) {
	var payload protocol.TextPayload
	if !c.decodeOrDrop(envelope, &payload) {
		return
	}

	c.observerMu.Lock()
	handlers := make([]func(string), len(c.textHandlers))
	copy(handlers, c.textHandlers)
	c.observerMu.Unlock()

	for _, handler := range handlers {
		handler(payload.Content)
	}
}

func (c *Client) notifyFileChanged(envelope *protocol.Envelope) {
	var payload protocol.FileChangedPayload
	if !c.decodeOrDrop(envelope, &payload) {
		return
	}

	c.observerMu.Lock()
	handlers := make([]func(string, string), len(c.fileHandlers))
	copy(handlers, c.fileHandlers)
	c.observerMu.Unlock()

	for _, handler := range handlers {
		handler(payload.Path, payload.Content)
	}
}
