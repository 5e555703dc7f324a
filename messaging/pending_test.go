// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"testing"
	"time"

	"github.com/jefedeoro/Claude-Cline-Bridge/lib/clock"
	"github.com/jefedeoro/Claude-Cline-Bridge/protocol"
)

func TestPendingResolveDeliversValue(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	table := newPendingTable(fake)

	key := pendingKey(protocol.TypeFileContent, "a.txt")
	waiter, err := table.register(key, 30*time.Second)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if !table.resolve(key, "contents") {
		t.Fatal("resolve should find the entry")
	}
	result := <-waiter
	if result.err != nil || result.value != "contents" {
		t.Errorf("outcome = %+v", result)
	}
	if table.size() != 0 {
		t.Errorf("size = %d after resolve", table.size())
	}
}

func TestPendingDuplicateKeyRejected(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	table := newPendingTable(fake)

	key := pendingKey(protocol.TypeCommandResult, "make test")
	if _, err := table.register(key, time.Minute); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := table.register(key, time.Minute); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("second register error = %v, want ErrDuplicateKey", err)
	}
}

func TestPendingTimeoutRejects(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	table := newPendingTable(fake)

	key := pendingKey(protocol.TypeFileContent, "slow.txt")
	waiter, err := table.register(key, 30*time.Second)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	fake.Advance(29 * time.Second)
	select {
	case <-waiter:
		t.Fatal("entry timed out early")
	default:
	}

	fake.Advance(2 * time.Second)
	result := <-waiter
	if !errors.Is(result.err, ErrTimeout) {
		t.Errorf("outcome error = %v, want ErrTimeout", result.err)
	}
	if table.size() != 0 {
		t.Errorf("size = %d after timeout", table.size())
	}
}

func TestPendingTimeoutDoesNotTouchOtherEntries(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	table := newPendingTable(fake)

	shortKey := pendingKey(protocol.TypeFileContent, "short.txt")
	longKey := pendingKey(protocol.TypeFileContent, "long.txt")
	shortWaiter, _ := table.register(shortKey, 10*time.Second)
	longWaiter, _ := table.register(longKey, 60*time.Second)

	fake.Advance(15 * time.Second)

	if result := <-shortWaiter; !errors.Is(result.err, ErrTimeout) {
		t.Errorf("short entry error = %v", result.err)
	}
	select {
	case <-longWaiter:
		t.Fatal("long entry should still be pending")
	default:
	}
	if !table.resolve(longKey, "ok") {
		t.Error("long entry should still resolve")
	}
}

func TestPendingResolveThenTimeoutIsIdempotent(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	table := newPendingTable(fake)

	key := pendingKey(protocol.TypeUpdateCodeResult, "a.txt")
	waiter, _ := table.register(key, 5*time.Second)

	if !table.resolve(key, nil) {
		t.Fatal("resolve failed")
	}
	// The timer may still fire; a resolved entry must ignore it.
	fake.Advance(time.Minute)

	result := <-waiter
	if result.err != nil {
		t.Errorf("outcome = %+v, want success", result)
	}
	select {
	case extra := <-waiter:
		t.Fatalf("second outcome delivered: %+v", extra)
	default:
	}
}

func TestPendingRejectAbsentKeyIsNoOp(t *testing.T) {
	table := newPendingTable(clock.Fake(time.Unix(0, 0)))
	if table.reject("nope", errors.New("x")) {
		t.Error("reject of absent key should return false")
	}
	if table.resolve("nope", 1) {
		t.Error("resolve of absent key should return false")
	}
}

func TestPendingRejectAll(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	table := newPendingTable(fake)

	first, _ := table.register("k1", time.Minute)
	second, _ := table.register("k2", time.Minute)

	table.rejectAll(ErrClosed)

	for _, waiter := range []<-chan outcome{first, second} {
		result := <-waiter
		if !errors.Is(result.err, ErrClosed) {
			t.Errorf("outcome error = %v, want ErrClosed", result.err)
		}
	}
	if table.size() != 0 {
		t.Errorf("size = %d", table.size())
	}
}
