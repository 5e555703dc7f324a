// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so that poll
// intervals, correlation timeouts, and reconnect backoff can be tested
// deterministically. Production code injects Real(); tests inject
// Fake() and drive time with Advance.
package clock

import "time"

// Clock abstracts the time operations the bridge uses. Every component
// that schedules work (poll ticks, pending-entry timeouts, reconnect
// probes) holds a Clock instead of calling the time package directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after d
	// elapses. Equivalent to time.After.
	After(d time.Duration) <-chan time.Time

	// AfterFunc waits for d, then calls f in its own goroutine (real)
	// or synchronously during Advance (fake). The returned Timer
	// cancels the pending call with Stop.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker returns a Ticker delivering ticks on C every d.
	// Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a scheduled one-shot event created by AfterFunc.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the timer from firing. Returns true if the call stops
// the timer, false if it already fired or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Ticker delivers periodic ticks on C. The channel has capacity 1; if
// the consumer falls behind, ticks are dropped rather than queued.
type Ticker struct {
	C <-chan time.Time

	stopFunc func()
}

// Stop turns the ticker off. It does not close C.
func (t *Ticker) Stop() { t.stopFunc() }
