// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package stdio

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tools.jsonc")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing catalog fixture: %v", err)
	}
	return path
}

func TestLoadCatalogToleratesCommentsAndTrailingCommas(t *testing.T) {
	path := writeCatalog(t, `
// Catalog for a review-only deployment.
[
  {
    "name": "get_file",
    "description": "Read a file", // no write access here
    "inputSchema": {"type": "object"},
  },
]
`)

	tools, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(tools) != 1 {
		t.Fatalf("tools = %d, want 1", len(tools))
	}
	if tools[0].Name != "get_file" {
		t.Errorf("name = %q", tools[0].Name)
	}
	if !json.Valid(tools[0].InputSchema) {
		t.Errorf("schema is not valid JSON: %s", tools[0].InputSchema)
	}
}

func TestLoadCatalogRejectsNamelessTool(t *testing.T) {
	path := writeCatalog(t, `[{"description": "who am I"}]`)
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected error for a tool with no name")
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Fatal("expected error for a missing catalog file")
	}
}

func TestDefaultToolsCoverDispatcher(t *testing.T) {
	names := map[string]bool{}
	for _, tool := range DefaultTools() {
		names[tool.Name] = true
		if !json.Valid(tool.InputSchema) {
			t.Errorf("tool %s has invalid schema", tool.Name)
		}
	}
	for _, want := range []string{toolSendMessage, toolGetFile, toolUpdateFile, toolExecuteCommand} {
		if !names[want] {
			t.Errorf("default catalog missing %s", want)
		}
	}
}
