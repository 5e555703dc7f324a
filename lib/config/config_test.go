// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Relay.Listen != "127.0.0.1:3042" {
		t.Errorf("relay.listen = %q", cfg.Relay.Listen)
	}
	if cfg.Client.PollIntervalMS != 2000 {
		t.Errorf("poll_interval_ms = %d", cfg.Client.PollIntervalMS)
	}
	if cfg.Client.ReconnectMaxAttempts != 0 {
		t.Errorf("reconnect_max_attempts = %d, want 0 (retry forever)", cfg.Client.ReconnectMaxAttempts)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresBridgeConfig(t *testing.T) {
	origConfig := os.Getenv("BRIDGE_CONFIG")
	defer os.Setenv("BRIDGE_CONFIG", origConfig)
	os.Unsetenv("BRIDGE_CONFIG")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when BRIDGE_CONFIG not set, got nil")
	}
}

func TestLoad_WithBridgeConfig(t *testing.T) {
	origConfig := os.Getenv("BRIDGE_CONFIG")
	defer os.Setenv("BRIDGE_CONFIG", origConfig)

	path := writeConfig(t, `
relay:
  listen: 0.0.0.0:9000
client:
  party: claude
`)
	os.Setenv("BRIDGE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Relay.Listen != "0.0.0.0:9000" {
		t.Errorf("relay.listen = %q", cfg.Relay.Listen)
	}
	if cfg.Client.Party != "claude" {
		t.Errorf("client.party = %q", cfg.Client.Party)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
client:
  relay_url: http://relay.internal:3042
  party: cline
  poll_interval_ms: 500
  reconnect_max_attempts: 12
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Client.RelayURL != "http://relay.internal:3042" {
		t.Errorf("relay_url = %q", cfg.Client.RelayURL)
	}
	if cfg.Client.PollIntervalMS != 500 {
		t.Errorf("poll_interval_ms = %d", cfg.Client.PollIntervalMS)
	}
	if cfg.Client.ReconnectMaxAttempts != 12 {
		t.Errorf("reconnect_max_attempts = %d", cfg.Client.ReconnectMaxAttempts)
	}

	// Untouched fields keep their defaults.
	if cfg.Client.FileTimeoutMS != 30000 {
		t.Errorf("file_timeout_ms = %d, want default 30000", cfg.Client.FileTimeoutMS)
	}
	if cfg.Relay.Listen != "127.0.0.1:3042" {
		t.Errorf("relay.listen = %q, want default", cfg.Relay.Listen)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid with party set",
			modify: func(c *Config) {
				c.Client.Party = "cline"
			},
			wantErr: false,
		},
		{
			name: "unknown party",
			modify: func(c *Config) {
				c.Client.Party = "copilot"
			},
			wantErr: true,
		},
		{
			name: "empty listen address",
			modify: func(c *Config) {
				c.Relay.Listen = ""
			},
			wantErr: true,
		},
		{
			name: "zero poll interval",
			modify: func(c *Config) {
				c.Client.PollIntervalMS = 0
			},
			wantErr: true,
		},
		{
			name: "negative attempt ceiling",
			modify: func(c *Config) {
				c.Client.ReconnectMaxAttempts = -1
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	client := ClientConfig{
		PollIntervalMS:      250,
		FileTimeoutMS:       1000,
		CommandTimeoutMS:    2000,
		RPCTimeoutMS:        1500,
		ReconnectDelayMS:    100,
		ReconnectMaxDelayMS: 800,
	}

	if got := client.PollInterval(); got != 250*time.Millisecond {
		t.Errorf("PollInterval() = %v", got)
	}
	if got := client.FileTimeout(); got != time.Second {
		t.Errorf("FileTimeout() = %v", got)
	}
	if got := client.CommandTimeout(); got != 2*time.Second {
		t.Errorf("CommandTimeout() = %v", got)
	}
	if got := client.RPCTimeout(); got != 1500*time.Millisecond {
		t.Errorf("RPCTimeout() = %v", got)
	}
	if got := client.ReconnectDelay(); got != 100*time.Millisecond {
		t.Errorf("ReconnectDelay() = %v", got)
	}
	if got := client.ReconnectMaxDelay(); got != 800*time.Millisecond {
		t.Errorf("ReconnectMaxDelay() = %v", got)
	}
}
