// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package framing implements the length-delimited envelope framing used
// on the byte-stream transport. A frame is the header "Content-Length:
// <n>" followed by a blank line (CRLF CRLF) and exactly n payload
// bytes, where n is the UTF-8 byte length of the payload.
//
// The [Decoder] accumulates arbitrarily-chunked input: a partial header
// or partial body is never decoded early, and several complete frames
// arriving in one chunk all decode in a single Feed call. An incomplete
// header is not an error; the decoder waits for more bytes. Only
// length text that can never parse raises an error.
package framing

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

const (
	headerPrefix    = "Content-Length: "
	headerDelimiter = "\r\n\r\n"
)

// Encode frames the payload.
func Encode(payload []byte) []byte {
	frame := make([]byte, 0, len(headerPrefix)+len(headerDelimiter)+20+len(payload))
	frame = append(frame, headerPrefix...)
	frame = strconv.AppendInt(frame, int64(len(payload)), 10)
	frame = append(frame, headerDelimiter...)
	frame = append(frame, payload...)
	return frame
}

// EncodeTo writes one framed payload to w.
func EncodeTo(w io.Writer, payload []byte) error {
	if _, err := w.Write(Encode(payload)); err != nil {
		return fmt.Errorf("framing: writing frame: %w", err)
	}
	return nil
}

// Decoder extracts framed payloads from an incrementally-filled buffer.
// The zero value is ready to use. Not safe for concurrent use.
type Decoder struct {
	buffer bytes.Buffer
}

// Feed appends data to the internal buffer and returns every payload
// that is now complete, in arrival order. A nil slice means no frame
// completed yet. A returned error indicates the declared length was
// unparseable; the decoder's buffer is left as-is and subsequent feeds
// will keep failing, so callers should treat it as fatal for the
// stream.
func (d *Decoder) Feed(data []byte) ([][]byte, error) {
	d.buffer.Write(data)

	var payloads [][]byte
	for {
		payload, complete, err := d.next()
		if err != nil {
			return payloads, err
		}
		if !complete {
			return payloads, nil
		}
		payloads = append(payloads, payload)
	}
}

// Buffered returns the number of bytes held for an incomplete frame.
func (d *Decoder) Buffered() int { return d.buffer.Len() }

// next extracts one frame from the front of the buffer if complete.
func (d *Decoder) next() ([]byte, bool, error) {
	contents := d.buffer.Bytes()

	headerEnd := bytes.Index(contents, []byte(headerDelimiter))
	if headerEnd < 0 {
		// Header not fully arrived. Not an error; wait for more.
		return nil, false, nil
	}

	header := contents[:headerEnd]
	prefixIndex := bytes.Index(header, []byte(headerPrefix))
	if prefixIndex < 0 {
		return nil, false, fmt.Errorf("framing: header %q has no Content-Length", header)
	}
	lengthText := string(header[prefixIndex+len(headerPrefix):])

	length, err := strconv.Atoi(lengthText)
	if err != nil || length < 0 {
		return nil, false, fmt.Errorf("framing: invalid Content-Length %q", lengthText)
	}

	bodyStart := headerEnd + len(headerDelimiter)
	if len(contents) < bodyStart+length {
		// Body not fully arrived.
		return nil, false, nil
	}

	payload := make([]byte, length)
	copy(payload, contents[bodyStart:bodyStart+length])
	d.buffer.Next(bodyStart + length)
	return payload, true, nil
}
