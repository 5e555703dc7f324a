// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/json"
	"testing"
)

func TestPartyPeer(t *testing.T) {
	if PartyClaude.Peer() != PartyCline {
		t.Errorf("PartyClaude.Peer() = %q, want %q", PartyClaude.Peer(), PartyCline)
	}
	if PartyCline.Peer() != PartyClaude {
		t.Errorf("PartyCline.Peer() = %q, want %q", PartyCline.Peer(), PartyClaude)
	}
}

func TestPartyValid(t *testing.T) {
	if !PartyClaude.Valid() || !PartyCline.Valid() {
		t.Error("known parties must be valid")
	}
	if Party("observer").Valid() {
		t.Error("unknown party must be invalid")
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	envelope := NewUpdateCode("src/main.go", "package main\n")

	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Envelope
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != TypeUpdateCode {
		t.Fatalf("type = %q, want %q", decoded.Type, TypeUpdateCode)
	}

	var payload UpdateCodePayload
	if err := decoded.DecodePayload(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Path != "src/main.go" || payload.Content != "package main\n" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestDecodePayloadEmpty(t *testing.T) {
	envelope := Envelope{Type: TypeText}
	var payload TextPayload
	if err := envelope.DecodePayload(&payload); err == nil {
		t.Error("expected error for missing payload")
	}
}

func TestReplyConstructorsCarryError(t *testing.T) {
	envelope := NewCommandResult("make test", "", false, "exit status 2")
	var payload CommandResultPayload
	if err := envelope.DecodePayload(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Success {
		t.Error("success should be false")
	}
	if payload.Error != "exit status 2" {
		t.Errorf("error = %q", payload.Error)
	}
}

func TestTimestampOmittedUntilAssigned(t *testing.T) {
	data, err := json.Marshal(NewText("hi"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := fields["timestamp"]; present {
		t.Error("unassigned timestamp should not be serialized")
	}
}
