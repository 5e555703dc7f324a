// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package stdio serves the bridge to a peer driven over a raw byte
// stream instead of HTTP. Each frame (Content-Length framing, package
// framing) carries one JSON request or response record keyed by a
// method field.
//
// Three methods are recognized: initialize (server identity and
// capability advertisement, followed by an asynchronous capability
// notification frame), list_tools (the capability list, synchronous),
// and call_tool (dispatches to a named bridge capability and returns a
// text-wrapped result). Any other method is answered with a
// method-not-found error response carrying a fixed distinguishing
// code; nothing a peer sends can crash the frame loop.
//
// The advertised capability catalog is opaque configuration: it is
// loaded at startup from a JSONC file (comments and trailing commas
// tolerated) or falls back to the built-in catalog. Tool dispatch
// recognizes the built-in tool names regardless of what the catalog
// advertises.
package stdio
