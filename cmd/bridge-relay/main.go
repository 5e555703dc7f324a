// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// bridge-relay is the message relay both parties poll. It holds one
// FIFO mailbox per party and serves the enqueue/check/drain HTTP
// surface plus a health endpoint. State lives in memory; restarting
// the relay drops undelivered messages.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/jefedeoro/Claude-Cline-Bridge/lib/clock"
	"github.com/jefedeoro/Claude-Cline-Bridge/lib/config"
	"github.com/jefedeoro/Claude-Cline-Bridge/relay"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bridge-relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var listenAddr string
	var verbose bool

	flagSet := pflag.NewFlagSet("bridge-relay", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to bridge.yaml (default: $BRIDGE_CONFIG)")
	flagSet.StringVar(&listenAddr, "listen", "", "address to bind (overrides config)")
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
	if listenAddr != "" {
		cfg.Relay.Listen = listenAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(verbose)

	server := &relay.Server{
		ListenAddr: cfg.Relay.Listen,
		Store:      relay.NewStore(clock.Real()),
		Logger:     logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return err
	}
	logger.Info("relay listening", "addr", server.Addr())

	<-ctx.Done()
	logger.Info("shutting down")
	server.Stop()
	return nil
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
