// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package workspace provides the local collaborator a bridge party
// uses to satisfy its peer's requests: file reads and writes rooted at
// a directory, and shell command execution. It implements
// messaging.Workspace.
package workspace

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Local is a Workspace rooted at a directory. Relative request paths
// resolve under Root; absolute paths are used as-is. Commands run
// through the shell with Root as the working directory.
type Local struct {
	// Root is the workspace directory. Required.
	Root string

	// Shell is the command interpreter. Defaults to "sh".
	Shell string
}

// resolve maps a request path onto the filesystem.
func (l *Local) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.Root, path)
}

// ReadFile returns the content of the file at path.
func (l *Local) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(l.resolve(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile stores content at path, creating parent directories as
// needed.
func (l *Local) WriteFile(path, content string) error {
	target := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, []byte(content), 0o644)
}

// RunCommand executes command through the shell and returns its
// combined stdout and stderr. On failure the output is returned
// alongside the error; a failing command's output is usually the
// diagnostic.
func (l *Local) RunCommand(ctx context.Context, command string) (string, error) {
	shell := l.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = l.Root
	output, err := cmd.CombinedOutput()
	text := strings.TrimRight(string(output), "\n")
	if err != nil {
		return text, fmt.Errorf("command %q: %w", command, err)
	}
	return text, nil
}
