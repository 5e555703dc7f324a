// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned synchronously when a call is made
	// while the client is disconnected. Nothing is enqueued.
	ErrNotConnected = errors.New("messaging: not connected to relay")

	// ErrDuplicateKey is returned when a correlated call is made while
	// another call with the same correlation key is still in flight.
	ErrDuplicateKey = errors.New("messaging: correlation key already in flight")

	// ErrTimeout is the rejection cause when no matching reply arrives
	// within the call's deadline.
	ErrTimeout = errors.New("messaging: request timed out")

	// ErrClosed rejects callers of a closed client.
	ErrClosed = errors.New("messaging: client closed")
)

// RemoteError is a failure reported by the peer inside a reply
// envelope's error field: the peer's collaborator call failed, not the
// transport.
type RemoteError struct {
	// Op is the bridge operation that failed (getFile, updateFile,
	// executeCommand, invoke).
	Op string
	// Message is the peer's error text.
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("messaging: remote %s failed: %s", e.Op, e.Message)
}

// RelayError is a non-200 response from the relay itself.
type RelayError struct {
	StatusCode int
	Body       string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("messaging: relay returned %d: %s", e.StatusCode, e.Body)
}
