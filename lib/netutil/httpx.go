// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body helpers shared by the
// relay and the polling client. All JSON response reads are capped at
// MaxResponseSize so a misbehaving endpoint cannot exhaust memory.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON body reads: 64 MB. Drained mailboxes can
// carry whole files, so the limit is generous; it exists only to stop
// a pathological response from exhausting memory.
const MaxResponseSize int64 = 64 << 20

// DecodeBody reads a JSON body (up to MaxResponseSize bytes) and
// decodes it into v.
func DecodeBody(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	return nil
}

// ErrorBody reads an HTTP error response body for use in diagnostic
// messages. Read errors are ignored; a partial body is still useful.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
