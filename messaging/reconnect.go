// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "context"

// run is the client's single logical timeline: the poll ticker, every
// dispatch, and the reconnect supervisor all execute here. A tick must
// return before the next tick body runs, so ticks never overlap, and
// because reconnection happens inline there is never more than one
// probe in flight.
func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	ticker := c.clk.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := c.tick(ctx)
			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}

			// First failure while connected: flip to disconnected
			// immediately, then hand control to the supervisor.
			c.setState(StateDisconnected)
			c.logger.Warn("poll tick failed, reconnect supervisor engaged", "error", err)

			if !c.reconnect(ctx) {
				if ctx.Err() == nil {
					c.logger.Error("reconnect attempts exhausted, polling stopped",
						"max_attempts", c.config.ReconnectMaxAttempts)
				}
				return
			}
		}
	}
}

// reconnect drives Disconnected → Reconnecting → Connected with
// exponential backoff between probes. Exactly one probe is scheduled
// at a time. Returns false when ctx is cancelled or the attempt
// ceiling is reached; the client is then left disconnected.
func (c *Client) reconnect(ctx context.Context) bool {
	delay := c.config.ReconnectDelay
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return false
		case <-c.clk.After(delay):
		}

		c.setState(StateReconnecting)
		attempts++

		if err := c.probe(ctx); err != nil {
			// Probe failure: back to disconnected, reschedule with a
			// doubled (capped) delay.
			c.setState(StateDisconnected)

			if c.config.ReconnectMaxAttempts > 0 && attempts >= c.config.ReconnectMaxAttempts {
				return false
			}

			delay *= 2
			if delay > c.config.ReconnectMaxDelay {
				delay = c.config.ReconnectMaxDelay
			}
			c.logger.Warn("reconnect probe failed",
				"attempt", attempts,
				"next_delay", delay,
				"error", err,
			)
			continue
		}

		c.setState(StateConnected)
		c.logger.Info("reconnected to relay", "attempts", attempts)
		return true
	}
}
