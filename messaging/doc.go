// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging implements the per-party polling client: the piece
// that gives each bridge endpoint a synchronous-feeling API over the
// relay's pull-based mailboxes.
//
// A [Client] connects with a single liveness probe, then polls on a
// fixed interval. Each tick is a cheap count-only check, followed by a
// drain only when the relay reports pending envelopes. Drained
// envelopes dispatch in arrival order: replies resolve the pending
// entry for their correlation key, requests run against the configured
// [Workspace] collaborator and answer back through the relay, and
// notifications fan out to registered observers. Ticks never overlap;
// the poll loop, reconnect supervision, and dispatch all share one
// goroutine.
//
// Correlated calls (GetFile, UpdateFile, ExecuteCommand, Invoke)
// enqueue a request to the peer's mailbox and register a pending entry
// keyed by the reply's correlation field (path, command string, or RPC
// id), guarded by a per-call timeout. At most one entry per key may be
// in flight: a second call with the same key fails immediately with
// [ErrDuplicateKey] rather than silently displacing the first caller's
// waiter. A reply with no matching entry (late, duplicate, or already
// timed out) is dropped silently; that is not an error condition.
//
// When a poll tick fails the client flips to disconnected and the
// reconnect supervisor takes over: one probe at a time, exponential
// backoff between probes (ReconnectDelay doubling up to
// ReconnectMaxDelay), optionally capped by ReconnectMaxAttempts.
// Callers with pending entries learn of an outage only through their
// own timeout.
package messaging
