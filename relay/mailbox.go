// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"sync"

	"github.com/jefedeoro/Claude-Cline-Bridge/lib/clock"
	"github.com/jefedeoro/Claude-Cline-Bridge/protocol"
)

// ErrUnknownParty is returned for a party other than the two bridge
// endpoints.
var ErrUnknownParty = errors.New("relay: unknown party")

// mailbox is an append-only envelope log with a drain cursor. Entries
// before the cursor have been delivered; drain hands out everything at
// or past it. Once fully drained the log is compacted so memory does
// not grow with total traffic, only with the undrained backlog.
type mailbox struct {
	log    []protocol.Envelope
	cursor int
}

func (m *mailbox) enqueue(envelope protocol.Envelope) {
	m.log = append(m.log, envelope)
}

func (m *mailbox) drain() []protocol.Envelope {
	pending := m.log[m.cursor:]
	if len(pending) == 0 {
		return nil
	}
	drained := make([]protocol.Envelope, len(pending))
	copy(drained, pending)
	m.cursor = len(m.log)
	m.compact()
	return drained
}

func (m *mailbox) depth() int {
	return len(m.log) - m.cursor
}

func (m *mailbox) compact() {
	if m.cursor == len(m.log) {
		m.log = m.log[:0]
		m.cursor = 0
	}
}

// Store owns the two mailboxes. A single mutex serializes enqueue and
// drain across both parties, which makes drain's read-then-advance
// atomic with respect to concurrent enqueues: an envelope enqueued
// during a drain appears in the next drain, never in neither.
type Store struct {
	mu    sync.Mutex
	clock clock.Clock
	boxes map[protocol.Party]*mailbox
}

// NewStore creates a store with one empty mailbox per party. The clock
// stamps envelopes at enqueue time; pass clock.Real() outside tests.
func NewStore(clk clock.Clock) *Store {
	return &Store{
		clock: clk,
		boxes: map[protocol.Party]*mailbox{
			protocol.PartyClaude: {},
			protocol.PartyCline:  {},
		},
	}
}

// Enqueue appends the envelope to the party's mailbox, stamping it with
// the store's clock. It never applies backpressure; unbounded growth is
// accepted. Returns the stamped envelope.
func (s *Store) Enqueue(party protocol.Party, envelope protocol.Envelope) (protocol.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	box, ok := s.boxes[party]
	if !ok {
		return protocol.Envelope{}, ErrUnknownParty
	}
	envelope.Timestamp = s.clock.Now()
	box.enqueue(envelope)
	return envelope, nil
}

// Drain atomically returns the party's pending envelopes in enqueue
// order and marks them delivered. Returns nil when the mailbox is
// empty.
func (s *Store) Drain(party protocol.Party) ([]protocol.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	box, ok := s.boxes[party]
	if !ok {
		return nil, ErrUnknownParty
	}
	return box.drain(), nil
}

// Depth returns the number of undrained envelopes for the party
// without mutating the mailbox.
func (s *Store) Depth(party protocol.Party) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	box, ok := s.boxes[party]
	if !ok {
		return 0, ErrUnknownParty
	}
	return box.depth(), nil
}

// Depths returns the undrained count for both parties.
func (s *Store) Depths() map[protocol.Party]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	depths := make(map[protocol.Party]int, len(s.boxes))
	for party, box := range s.boxes {
		depths[party] = box.depth()
	}
	return depths
}
