// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/jefedeoro/Claude-Cline-Bridge/lib/clock"
	"github.com/jefedeoro/Claude-Cline-Bridge/protocol"
)

// pendingKey builds the correlation key for a reply type and its
// correlation field (path for file ops, command string for execution,
// id for generic RPC). Namespacing by reply type keeps a getFile and an
// updateFile on the same path from colliding.
func pendingKey(replyType protocol.MessageType, field string) string {
	return string(replyType) + ":" + field
}

// outcome is the single eventual result of a correlated call.
type outcome struct {
	value any
	err   error
}

// pendingEntry tracks one outstanding correlated call.
type pendingEntry struct {
	// done receives exactly one outcome. Buffered so resolution never
	// blocks on a caller that already gave up.
	done  chan outcome
	timer *clock.Timer
}

// pendingTable maps correlation keys to pending entries, scoped to one
// client. Entries are destroyed on resolution, rejection, or timeout,
// whichever fires first; destruction is idempotent, so a timer firing
// after resolution is a harmless no-op.
type pendingTable struct {
	clk clock.Clock

	mu      sync.Mutex
	entries map[string]*pendingEntry
}

func newPendingTable(clk clock.Clock) *pendingTable {
	return &pendingTable{
		clk:     clk,
		entries: make(map[string]*pendingEntry),
	}
}

// register creates a pending entry for key, armed with a timeout.
// Returns ErrDuplicateKey if an entry with the same key is in flight;
// duplicate keys are rejected strictly rather than displacing the
// earlier caller's waiter.
func (p *pendingTable) register(key string, timeout time.Duration) (<-chan outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}

	entry := &pendingEntry{done: make(chan outcome, 1)}
	entry.timer = p.clk.AfterFunc(timeout, func() {
		p.reject(key, fmt.Errorf("%w after %v: %s", ErrTimeout, timeout, key))
	})
	p.entries[key] = entry
	return entry.done, nil
}

// resolve completes the entry for key with a success value. Returns
// false (a no-op) if the key is absent, as for a late or duplicate reply.
func (p *pendingTable) resolve(key string, value any) bool {
	entry := p.take(key)
	if entry == nil {
		return false
	}
	entry.done <- outcome{value: value}
	return true
}

// reject completes the entry for key with an error. Returns false if
// the key is absent.
func (p *pendingTable) reject(key string, err error) bool {
	entry := p.take(key)
	if entry == nil {
		return false
	}
	entry.done <- outcome{err: err}
	return true
}

// cancel removes the entry for key without delivering an outcome. Used
// when the request envelope never made it to the relay.
func (p *pendingTable) cancel(key string) {
	p.take(key)
}

// rejectAll completes every entry with err. Used on client close so no
// caller is left waiting.
func (p *pendingTable) rejectAll(err error) {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[string]*pendingEntry)
	p.mu.Unlock()

	for _, entry := range entries {
		entry.timer.Stop()
		entry.done <- outcome{err: err}
	}
}

// size returns the number of in-flight entries.
func (p *pendingTable) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// take removes and returns the entry for key, stopping its timer. The
// stop may race a timer that is already firing; the firing timer then
// finds the key absent and does nothing.
func (p *pendingTable) take(key string) *pendingEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[key]
	if !ok {
		return nil
	}
	delete(p.entries, key)
	entry.timer.Stop()
	return entry
}
