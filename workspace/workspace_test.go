// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"strings"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	local := &Local{Root: t.TempDir()}

	if err := local.WriteFile("nested/dir/a.txt", "hello"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	content, err := local.ReadFile("nested/dir/a.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if content != "hello" {
		t.Errorf("content = %q", content)
	}
}

func TestReadMissingFile(t *testing.T) {
	local := &Local{Root: t.TempDir()}
	if _, err := local.ReadFile("nope.txt"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRunCommandCapturesOutput(t *testing.T) {
	local := &Local{Root: t.TempDir()}

	output, err := local.RunCommand(testContext(t), "echo bridged")
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if output != "bridged" {
		t.Errorf("output = %q", output)
	}
}

func TestRunCommandFailureKeepsOutput(t *testing.T) {
	local := &Local{Root: t.TempDir()}

	output, err := local.RunCommand(testContext(t), "echo partial; exit 3")
	if err == nil {
		t.Fatal("expected exit error")
	}
	if !strings.Contains(output, "partial") {
		t.Errorf("failure output = %q, want the command's output preserved", output)
	}
}

func TestRunCommandUsesRootAsWorkingDirectory(t *testing.T) {
	root := t.TempDir()
	local := &Local{Root: root}

	if err := local.WriteFile("marker.txt", "x"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	output, err := local.RunCommand(testContext(t), "ls")
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if !strings.Contains(output, "marker.txt") {
		t.Errorf("ls output = %q", output)
	}
}
