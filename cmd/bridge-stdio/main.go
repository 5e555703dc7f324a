// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// bridge-stdio serves the bridge's tools over stdin/stdout using
// Content-Length framed JSON records, for hosts that embed the bridge
// as a subprocess. stdout carries only frames; all logging goes to
// stderr. Behind the stream it runs a normal party client against the
// relay, so tool calls reach the peer's workspace.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/jefedeoro/Claude-Cline-Bridge/lib/config"
	"github.com/jefedeoro/Claude-Cline-Bridge/messaging"
	"github.com/jefedeoro/Claude-Cline-Bridge/protocol"
	"github.com/jefedeoro/Claude-Cline-Bridge/stdio"
	"github.com/jefedeoro/Claude-Cline-Bridge/workspace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bridge-stdio: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var partyName string
	var relayURL string
	var catalogPath string
	var verbose bool

	flagSet := pflag.NewFlagSet("bridge-stdio", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to bridge.yaml (default: $BRIDGE_CONFIG)")
	flagSet.StringVar(&partyName, "party", "claude", "identity to poll as: claude or cline")
	flagSet.StringVar(&relayURL, "relay", "", "relay base URL (overrides config)")
	flagSet.StringVar(&catalogPath, "catalog", "", "JSONC tool catalog file (overrides config)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if partyName != "" {
		cfg.Client.Party = partyName
	}
	if relayURL != "" {
		cfg.Client.RelayURL = relayURL
	}
	if catalogPath != "" {
		cfg.Stdio.CatalogFile = catalogPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(verbose)

	tools := stdio.DefaultTools()
	if cfg.Stdio.CatalogFile != "" {
		tools, err = stdio.LoadCatalog(cfg.Stdio.CatalogFile)
		if err != nil {
			return err
		}
	}

	client, err := messaging.NewClient(messaging.ClientConfig{
		RelayURL:             cfg.Client.RelayURL,
		Party:                protocol.Party(cfg.Client.Party),
		Workspace:            &workspace.Local{Root: cfg.Client.WorkspaceRoot},
		Logger:               logger,
		PollInterval:         cfg.Client.PollInterval(),
		FileTimeout:          cfg.Client.FileTimeout(),
		CommandTimeout:       cfg.Client.CommandTimeout(),
		RPCTimeout:           cfg.Client.RPCTimeout(),
		ReconnectDelay:       cfg.Client.ReconnectDelay(),
		ReconnectMaxDelay:    cfg.Client.ReconnectMaxDelay(),
		ReconnectMaxAttempts: cfg.Client.ReconnectMaxAttempts,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	server := &stdio.Server{
		Bridge:  client,
		Tools:   tools,
		Name:    cfg.Stdio.ServerName,
		Version: cfg.Stdio.ServerVersion,
		Logger:  logger,
	}
	return server.Run(ctx, os.Stdin, os.Stdout)
}

// loadConfig loads the file named by --config, then BRIDGE_CONFIG,
// then falls back to built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("BRIDGE_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
