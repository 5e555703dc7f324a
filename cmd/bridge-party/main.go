// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// bridge-party runs one side of the bridge as a foreground process.
// It polls the relay as the named party, serves the peer's file and
// command requests out of a local workspace directory, prints incoming
// chat messages to stdout, and sends each stdin line to the peer as a
// chat message.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/jefedeoro/Claude-Cline-Bridge/lib/config"
	"github.com/jefedeoro/Claude-Cline-Bridge/messaging"
	"github.com/jefedeoro/Claude-Cline-Bridge/protocol"
	"github.com/jefedeoro/Claude-Cline-Bridge/workspace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bridge-party: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var partyName string
	var relayURL string
	var workspaceRoot string
	var verbose bool

	flagSet := pflag.NewFlagSet("bridge-party", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to bridge.yaml (default: $BRIDGE_CONFIG)")
	flagSet.StringVar(&partyName, "party", "", "identity to poll as: claude or cline (overrides config)")
	flagSet.StringVar(&relayURL, "relay", "", "relay base URL (overrides config)")
	flagSet.StringVar(&workspaceRoot, "workspace", "", "directory served to the peer (overrides config)")
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
	if workspaceRoot != "" {
		cfg.Client.WorkspaceRoot = workspaceRoot
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Client.Party == "" {
		return fmt.Errorf("--party is required (claude or cline)")
	}

	logger := newLogger(verbose)
	party := protocol.Party(cfg.Client.Party)

	client, err := messaging.NewClient(messaging.ClientConfig{
		RelayURL:             cfg.Client.RelayURL,
		Party:                party,
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

	client.OnText(func(content string) {
		fmt.Printf("[%s] %s\n", party.Peer(), content)
	})
	client.OnFileChanged(func(path, content string) {
		logger.Info("peer changed file", "path", path, "bytes", len(content))
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()
	logger.Info("connected", "party", party, "relay", cfg.Client.RelayURL,
		"workspace", cfg.Client.WorkspaceRoot)

	// Each stdin line becomes a chat message to the peer. EOF leaves
	// the client polling until a signal arrives.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				<-ctx.Done()
				return nil
			}
			if line == "" {
				continue
			}
			if err := client.SendMessage(ctx, line); err != nil {
				if errors.Is(err, messaging.ErrNotConnected) {
					fmt.Fprintln(os.Stderr, "not connected; message dropped")
					continue
				}
				return err
			}
		}
	}
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
