// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jefedeoro/Claude-Cline-Bridge/lib/netutil"
	"github.com/jefedeoro/Claude-Cline-Bridge/protocol"
)

// Server exposes a Store over HTTP.
type Server struct {
	// ListenAddr is the TCP address to listen on (e.g. "127.0.0.1:7070").
	ListenAddr string

	// Store holds the mailboxes. Required.
	Store *Store

	// Logger receives structured log output. If nil, slog.Default() is
	// used. Per-request events are logged at Debug level; lifecycle
	// events at Info.
	Logger *slog.Logger

	listener   net.Listener
	httpServer *http.Server
	started    time.Time
	done       chan struct{}
}

// EnqueueResponse is the body returned by POST /enqueue/{party}.
type EnqueueResponse struct {
	Accepted bool `json:"accepted"`
}

// CheckResponse is the body returned by GET /check/{party}.
type CheckResponse struct {
	PendingCount int  `json:"pendingCount"`
	HasUpdates   bool `json:"hasUpdates"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds float64        `json:"uptimeSeconds"`
	QueueDepths   map[string]int `json:"queueDepths"`
}

// errorResponse is the JSON body for all error statuses.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Start binds the listener and begins serving. It returns once the
// listener is accepting, or an error if binding fails. The server runs
// in the background until Stop is called or the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.ListenAddr == "" {
		return fmt.Errorf("relay: ListenAddr is required")
	}
	if s.Store == nil {
		return fmt.Errorf("relay: Store is required")
	}

	listener, err := net.Listen("tcp", s.ListenAddr)
	if err != nil {
		return fmt.Errorf("relay: failed to listen on %s: %w", s.ListenAddr, err)
	}
	s.listener = listener
	s.started = time.Now()
	s.done = make(chan struct{})
	s.httpServer = &http.Server{Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		s.httpServer.Close()
	}()
	go func() {
		defer close(s.done)
		if serveErr := s.httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger().Error("relay serve failed", "error", serveErr)
		}
	}()

	s.logger().Info("relay started", "listen_addr", listener.Addr().String())
	return nil
}

// Handler returns the relay's HTTP routes. Useful for mounting the
// relay inside another server or an httptest.Server; Start uses it
// internally.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/enqueue/", s.handleEnqueue)
	mux.HandleFunc("/check/", s.handleCheck)
	mux.HandleFunc("/drain/", s.handleDrain)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Addr returns the listener's address, useful when binding to port 0.
// Returns nil if the server has not been started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down and waits for the serve loop to exit.
func (s *Server) Stop() {
	if s.httpServer != nil {
		s.httpServer.Close()
	}
	if s.done != nil {
		<-s.done
	}
}

// partyFromPath extracts and validates the party segment after prefix.
func partyFromPath(path, prefix string) (protocol.Party, error) {
	party := protocol.Party(strings.TrimPrefix(path, prefix))
	if !party.Valid() {
		return "", ErrUnknownParty
	}
	return party, nil
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "enqueue requires POST")
		return
	}
	party, err := partyFromPath(r.URL.Path, "/enqueue/")
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var envelope protocol.Envelope
	if err := netutil.DecodeBody(r.Body, &envelope); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed envelope: %v", err))
		return
	}
	if envelope.Type == "" {
		writeError(w, http.StatusBadRequest, "envelope has no type")
		return
	}

	stamped, err := s.Store.Enqueue(party, envelope)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	s.logger().Debug("envelope enqueued",
		"party", string(party),
		"type", string(stamped.Type),
	)
	writeJSON(w, http.StatusOK, EnqueueResponse{Accepted: true})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "check requires GET")
		return
	}
	party, err := partyFromPath(r.URL.Path, "/check/")
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	depth, err := s.Store.Depth(party)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CheckResponse{
		PendingCount: depth,
		HasUpdates:   depth > 0,
	})
}

func (s *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "drain requires GET")
		return
	}
	party, err := partyFromPath(r.URL.Path, "/drain/")
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	envelopes, err := s.Store.Drain(party)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if envelopes == nil {
		envelopes = []protocol.Envelope{}
	}

	if len(envelopes) > 0 {
		s.logger().Debug("mailbox drained",
			"party", string(party),
			"count", len(envelopes),
		)
	}
	writeJSON(w, http.StatusOK, envelopes)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "health requires GET")
		return
	}

	depths := s.Store.Depths()
	queueDepths := make(map[string]int, len(depths))
	for party, depth := range depths {
		queueDepths[string(party)] = depth
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(s.started).Seconds(),
		QueueDepths:   queueDepths,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encode failures at this point mean the connection is gone; there
	// is nothing useful left to do with the request.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
