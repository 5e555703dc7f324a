// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol defines the wire types exchanged through the bridge
// relay: the [Envelope] that moves through a party's mailbox, the message
// type taxonomy, and the typed payloads carried by each message type.
//
// An Envelope is immutable once enqueued. Its Timestamp is assigned by the
// relay at enqueue time, not by the sender: the relay is the ordering
// authority for each mailbox. The payload is carried as raw JSON and
// decoded by the receiver against the payload struct matching the type.
//
// Request/reply pairs correlate on a field of the payload rather than a
// transport-level ID: file operations correlate on the path, command
// execution on the command string, and generic RPC invokes on an explicit
// id. Constructors exist for every message type so that call sites never
// hand-build payload JSON.
package protocol
