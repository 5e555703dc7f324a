// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay implements the bridge intermediary: one FIFO mailbox
// per party, plus the HTTP surface both parties poll.
//
// Each mailbox is an append-only log with a drain cursor. Enqueue
// appends and stamps the envelope with the relay's clock; the relay,
// not the sender, is the ordering authority. Drain atomically returns
// everything at or past the cursor and advances it, so an envelope is
// delivered exactly once to its party and an enqueue racing a drain
// lands in the next drain rather than being lost. There is no capacity
// bound and no persistence: mailboxes live for the process lifetime.
//
// The HTTP surface exposes enqueue, a cheap count-only check, the
// side-effecting drain, and a liveness endpoint reporting uptime and
// queue depths. Clients are expected to check before draining so the
// common idle tick costs a count, not a payload.
package relay
