// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"context"
	"testing"
)

// testContext returns a context cancelled during test cleanup, matching the
// behavior of (*testing.T).Context on toolchains that provide it.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
