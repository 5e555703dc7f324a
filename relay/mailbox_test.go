// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jefedeoro/Claude-Cline-Bridge/lib/clock"
	"github.com/jefedeoro/Claude-Cline-Bridge/protocol"
)

func TestEnqueueStampsTimestamp(t *testing.T) {
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewStore(fake)

	stamped, err := store.Enqueue(protocol.PartyCline, protocol.NewText("hello"))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if !stamped.Timestamp.Equal(fake.Now()) {
		t.Errorf("timestamp = %v, want %v", stamped.Timestamp, fake.Now())
	}
}

func TestDrainReturnsFIFOAndClears(t *testing.T) {
	store := NewStore(clock.Real())

	for i := 0; i < 5; i++ {
		if _, err := store.Enqueue(protocol.PartyClaude, protocol.NewText(fmt.Sprintf("m%d", i))); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	drained, err := store.Drain(protocol.PartyClaude)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(drained) != 5 {
		t.Fatalf("drained %d envelopes, want 5", len(drained))
	}
	for i, envelope := range drained {
		var payload protocol.TextPayload
		if err := envelope.DecodePayload(&payload); err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		if payload.Content != fmt.Sprintf("m%d", i) {
			t.Errorf("position %d = %q", i, payload.Content)
		}
	}

	second, err := store.Drain(protocol.PartyClaude)
	if err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second drain returned %d envelopes, want 0", len(second))
	}
}

func TestDepthDoesNotMutate(t *testing.T) {
	store := NewStore(clock.Real())
	store.Enqueue(protocol.PartyCline, protocol.NewText("a"))
	store.Enqueue(protocol.PartyCline, protocol.NewText("b"))

	for n := 0; n < 3; n++ {
		depth, err := store.Depth(protocol.PartyCline)
		if err != nil {
			t.Fatalf("depth: %v", err)
		}
		if depth != 2 {
			t.Errorf("depth = %d, want 2", depth)
		}
	}
}

func TestUnknownParty(t *testing.T) {
	store := NewStore(clock.Real())
	if _, err := store.Enqueue(protocol.Party("nobody"), protocol.NewText("x")); err != ErrUnknownParty {
		t.Errorf("enqueue error = %v, want ErrUnknownParty", err)
	}
	if _, err := store.Drain(protocol.Party("nobody")); err != ErrUnknownParty {
		t.Errorf("drain error = %v, want ErrUnknownParty", err)
	}
}

func TestMailboxesAreIndependent(t *testing.T) {
	store := NewStore(clock.Real())
	store.Enqueue(protocol.PartyClaude, protocol.NewText("for claude"))

	drained, _ := store.Drain(protocol.PartyCline)
	if len(drained) != 0 {
		t.Errorf("cline mailbox should be empty, got %d", len(drained))
	}
	depth, _ := store.Depth(protocol.PartyClaude)
	if depth != 1 {
		t.Errorf("claude depth = %d, want 1", depth)
	}
}

// TestConcurrentEnqueueDrainLosesNothing interleaves enqueues with
// drains from another goroutine and verifies the concatenation of all
// drained sequences equals the enqueue sequence: no loss, no
// duplication, order preserved.
func TestConcurrentEnqueueDrainLosesNothing(t *testing.T) {
	store := NewStore(clock.Real())
	const total = 2000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			store.Enqueue(protocol.PartyCline, protocol.NewText(fmt.Sprintf("%d", i)))
		}
	}()

	var received []protocol.Envelope
	for len(received) < total {
		drained, err := store.Drain(protocol.PartyCline)
		if err != nil {
			t.Fatalf("drain: %v", err)
		}
		received = append(received, drained...)
	}
	wg.Wait()

	// One final drain: the producer is done, nothing may remain.
	leftover, _ := store.Drain(protocol.PartyCline)
	received = append(received, leftover...)

	if len(received) != total {
		t.Fatalf("received %d envelopes, want %d", len(received), total)
	}
	for i, envelope := range received {
		var payload protocol.TextPayload
		if err := envelope.DecodePayload(&payload); err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		if payload.Content != fmt.Sprintf("%d", i) {
			t.Fatalf("position %d = %q, want %d", i, payload.Content, i)
		}
	}
}
