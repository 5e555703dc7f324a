// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for bridge components.
//
// Configuration is loaded from a single YAML file specified by:
//   - BRIDGE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. The file is the single
// source of truth; environment variables do not override its values.
// Interval and timeout fields are in milliseconds.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the bridge.
type Config struct {
	// Relay configures the relay server (bridge-relay).
	Relay RelayConfig `yaml:"relay"`

	// Client configures a party client (bridge-party, bridge-stdio).
	Client ClientConfig `yaml:"client"`

	// Stdio configures the stream tool server (bridge-stdio).
	Stdio StdioConfig `yaml:"stdio"`
}

// RelayConfig configures the relay server.
type RelayConfig struct {
	// Listen is the address the relay binds. Default: 127.0.0.1:3042.
	Listen string `yaml:"listen"`
}

// ClientConfig configures a party client.
type ClientConfig struct {
	// RelayURL is the base URL of the relay. Default: http://127.0.0.1:3042.
	RelayURL string `yaml:"relay_url"`

	// Party is the identity this client polls as: "claude" or "cline".
	Party string `yaml:"party"`

	// WorkspaceRoot is the directory served to the peer. Relative
	// request paths resolve against it. Default: the working directory.
	WorkspaceRoot string `yaml:"workspace_root"`

	// PollIntervalMS is the mailbox polling interval. Default: 2000.
	PollIntervalMS int `yaml:"poll_interval_ms"`

	// FileTimeoutMS bounds file request/update round trips. Default: 30000.
	FileTimeoutMS int `yaml:"file_timeout_ms"`

	// CommandTimeoutMS bounds remote command round trips. Default: 60000.
	CommandTimeoutMS int `yaml:"command_timeout_ms"`

	// RPCTimeoutMS bounds RPC invocations. Default: 30000.
	RPCTimeoutMS int `yaml:"rpc_timeout_ms"`

	// ReconnectDelayMS is the first reconnection delay after the relay
	// becomes unreachable. Doubles per failed probe. Default: 5000.
	ReconnectDelayMS int `yaml:"reconnect_delay_ms"`

	// ReconnectMaxDelayMS caps the reconnection delay. Default: 60000.
	ReconnectMaxDelayMS int `yaml:"reconnect_max_delay_ms"`

	// ReconnectMaxAttempts bounds consecutive failed probes before the
	// client gives up. 0 means retry forever. Default: 0.
	ReconnectMaxAttempts int `yaml:"reconnect_max_attempts"`
}

// StdioConfig configures the stream tool server.
type StdioConfig struct {
	// CatalogFile is a JSONC file holding the advertised tool catalog.
	// Empty means the built-in catalog.
	CatalogFile string `yaml:"catalog_file"`

	// ServerName and ServerVersion identify the server in the
	// initialize reply. Defaults: claude-cline-bridge / dev.
	ServerName    string `yaml:"server_name"`
	ServerVersion string `yaml:"server_version"`
}

// Default returns the default configuration. These defaults are the
// base the config file is merged over.
func Default() *Config {
	workingDir, _ := os.Getwd()

	return &Config{
		Relay: RelayConfig{
			Listen: "127.0.0.1:3042",
		},
		Client: ClientConfig{
			RelayURL:            "http://127.0.0.1:3042",
			WorkspaceRoot:       workingDir,
			PollIntervalMS:      2000,
			FileTimeoutMS:       30000,
			CommandTimeoutMS:    60000,
			RPCTimeoutMS:        30000,
			ReconnectDelayMS:    5000,
			ReconnectMaxDelayMS: 60000,
		},
		Stdio: StdioConfig{
			ServerName:    "claude-cline-bridge",
			ServerVersion: "dev",
		},
	}
}

// Load loads configuration from the BRIDGE_CONFIG environment variable.
//
// There are no fallbacks - if BRIDGE_CONFIG is not set, this fails.
// Commands that take a --config flag call LoadFile directly.
func Load() (*Config, error) {
	configPath := os.Getenv("BRIDGE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("BRIDGE_CONFIG environment variable not set; " +
			"set it to the path of your bridge.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merged over
// Default().
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Relay.Listen == "" {
		errs = append(errs, fmt.Errorf("relay.listen is required"))
	}
	if c.Client.RelayURL == "" {
		errs = append(errs, fmt.Errorf("client.relay_url is required"))
	}
	if c.Client.Party != "" && c.Client.Party != "claude" && c.Client.Party != "cline" {
		errs = append(errs, fmt.Errorf("client.party must be claude or cline, got %q", c.Client.Party))
	}

	intervals := []struct {
		name  string
		value int
	}{
		{"client.poll_interval_ms", c.Client.PollIntervalMS},
		{"client.file_timeout_ms", c.Client.FileTimeoutMS},
		{"client.command_timeout_ms", c.Client.CommandTimeoutMS},
		{"client.rpc_timeout_ms", c.Client.RPCTimeoutMS},
		{"client.reconnect_delay_ms", c.Client.ReconnectDelayMS},
		{"client.reconnect_max_delay_ms", c.Client.ReconnectMaxDelayMS},
	}
	for _, interval := range intervals {
		if interval.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", interval.name, interval.value))
		}
	}
	if c.Client.ReconnectMaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("client.reconnect_max_attempts must be >= 0, got %d", c.Client.ReconnectMaxAttempts))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// PollInterval returns the polling interval as a duration.
func (c *ClientConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// FileTimeout returns the file round-trip timeout as a duration.
func (c *ClientConfig) FileTimeout() time.Duration {
	return time.Duration(c.FileTimeoutMS) * time.Millisecond
}

// CommandTimeout returns the command round-trip timeout as a duration.
func (c *ClientConfig) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutMS) * time.Millisecond
}

// RPCTimeout returns the RPC round-trip timeout as a duration.
func (c *ClientConfig) RPCTimeout() time.Duration {
	return time.Duration(c.RPCTimeoutMS) * time.Millisecond
}

// ReconnectDelay returns the initial reconnection delay as a duration.
func (c *ClientConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMS) * time.Millisecond
}

// ReconnectMaxDelay returns the reconnection delay cap as a duration.
func (c *ClientConfig) ReconnectMaxDelay() time.Duration {
	return time.Duration(c.ReconnectMaxDelayMS) * time.Millisecond
}
