// Copyright 2026 The Claude-Cline-Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jefedeoro/Claude-Cline-Bridge/lib/clock"
	"github.com/jefedeoro/Claude-Cline-Bridge/lib/netutil"
	"github.com/jefedeoro/Claude-Cline-Bridge/protocol"
)

// Default timing values. PollInterval matches the reference cadence of
// the bridge protocol; file and command timeouts bound the correlated
// call kinds separately because command execution is legitimately slow.
const (
	DefaultPollInterval      = 2 * time.Second
	DefaultFileTimeout       = 30 * time.Second
	DefaultCommandTimeout    = 60 * time.Second
	DefaultRPCTimeout        = 30 * time.Second
	DefaultReconnectDelay    = 5 * time.Second
	DefaultReconnectMaxDelay = 60 * time.Second
)

// Workspace is the collaborator a client uses to satisfy requests from
// its peer. Implementations live outside this package; failures are
// reported back to the peer inside the reply envelope, never raised
// into the poll loop.
type Workspace interface {
	// ReadFile returns the content of the file at path.
	ReadFile(path string) (string, error)
	// WriteFile stores content at path.
	WriteFile(path, content string) error
	// RunCommand executes command and returns its combined output.
	RunCommand(ctx context.Context, command string) (string, error)
}

// RPCHandler answers one generic RPC method. The returned raw message
// becomes the rpcResponse result; an error becomes its error field.
type RPCHandler func(ctx context.Context, params json.RawMessage) (json.RawMessage, error)

// ConnState is the client's connection state.
type ConnState int

const (
	// StateDisconnected means the last probe or poll tick failed (or
	// Connect has not succeeded yet).
	StateDisconnected ConnState = iota
	// StateConnected means the poll loop is running normally.
	StateConnected
	// StateReconnecting means a reconnect probe is in flight.
	StateReconnecting
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// ClientConfig configures a polling client.
type ClientConfig struct {
	// RelayURL is the base URL of the bridge relay
	// (e.g. "http://localhost:7070"). Required.
	RelayURL string

	// Party is the endpoint this client represents. Required.
	Party protocol.Party

	// Workspace satisfies inbound file and command requests. If nil,
	// every inbound request is answered with a structured failure.
	Workspace Workspace

	// HTTPClient is used for all relay requests. If nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// Clock drives the poll ticker, correlation timeouts, and
	// reconnect backoff. If nil, clock.Real() is used.
	Clock clock.Clock

	// PollInterval is the poll cadence. Defaults to 2 s.
	PollInterval time.Duration

	// FileTimeout bounds GetFile and UpdateFile. Defaults to 30 s.
	FileTimeout time.Duration

	// CommandTimeout bounds ExecuteCommand. Defaults to 60 s.
	CommandTimeout time.Duration

	// RPCTimeout bounds Invoke. Defaults to 30 s.
	RPCTimeout time.Duration

	// ReconnectDelay is the first reconnect backoff. It doubles after
	// each failed probe up to ReconnectMaxDelay. Defaults to 5 s.
	ReconnectDelay time.Duration

	// ReconnectMaxDelay caps the backoff. Defaults to 60 s.
	ReconnectMaxDelay time.Duration

	// ReconnectMaxAttempts stops reconnecting after this many failed
	// probes. Zero means retry forever.
	ReconnectMaxAttempts int
}

// withDefaults returns the config with zero fields filled in.
func (c ClientConfig) withDefaults() ClientConfig {
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.FileTimeout <= 0 {
		c.FileTimeout = DefaultFileTimeout
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.RPCTimeout <= 0 {
		c.RPCTimeout = DefaultRPCTimeout
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.ReconnectMaxDelay <= 0 {
		c.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	return c
}

// Client is one party's polling client. Create with NewClient, start
// with Connect, release with Close.
type Client struct {
	config     ClientConfig
	relayURL   string
	party      protocol.Party
	httpClient *http.Client
	logger     *slog.Logger
	clk        clock.Clock

	pending *pendingTable

	observerMu   sync.Mutex
	textHandlers []func(content string)
	fileHandlers []func(path, content string)
	rpcHandlers  map[string]RPCHandler

	stateMu sync.Mutex
	state   ConnState
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewClient validates the config and creates a disconnected client.
// It performs no network I/O; call Connect to probe the relay and
// start polling.
func NewClient(config ClientConfig) (*Client, error) {
	if config.RelayURL == "" {
		return nil, fmt.Errorf("messaging: RelayURL is required")
	}
	if !config.Party.Valid() {
		return nil, fmt.Errorf("messaging: invalid party %q (want %q or %q)",
			string(config.Party), string(protocol.PartyClaude), string(protocol.PartyCline))
	}
	config = config.withDefaults()

	return &Client{
		config:      config,
		relayURL:    strings.TrimRight(config.RelayURL, "/"),
		party:       config.Party,
		httpClient:  config.HTTPClient,
		logger:      config.Logger.With("party", string(config.Party)),
		clk:         config.Clock,
		pending:     newPendingTable(config.Clock),
		rpcHandlers: make(map[string]RPCHandler),
	}, nil
}

// Connect probes the relay's health endpoint once. On success the
// client transitions to connected and the poll loop starts, running
// until ctx is cancelled or Close is called. On failure the client
// stays disconnected and the error describes where the relay was
// expected and how to start it; the caller decides whether that is
// fatal.
func (c *Client) Connect(ctx context.Context) error {
	c.stateMu.Lock()
	if c.closed {
		c.stateMu.Unlock()
		return ErrClosed
	}
	if c.done != nil {
		c.stateMu.Unlock()
		return fmt.Errorf("messaging: Connect called twice")
	}
	c.stateMu.Unlock()

	if err := c.probe(ctx); err != nil {
		return fmt.Errorf("messaging: relay not reachable at %s "+
			"(start it with `bridge-relay --listen <addr>` and point RelayURL at it): %w",
			c.relayURL, err)
	}

	loopCtx, cancel := context.WithCancel(ctx)

	c.stateMu.Lock()
	c.state = StateConnected
	c.cancel = cancel
	c.done = make(chan struct{})
	c.stateMu.Unlock()

	go c.run(loopCtx)

	c.logger.Info("connected to relay", "relay_url", c.relayURL)
	return nil
}

// Close stops the poll loop and rejects every pending entry with
// ErrClosed so no caller is left waiting. Safe to call on a client
// that never connected.
func (c *Client) Close() {
	c.stateMu.Lock()
	if c.closed {
		c.stateMu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancel
	done := c.done
	c.state = StateDisconnected
	c.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	c.pending.rejectAll(ErrClosed)
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// Connected reports whether the client is currently connected.
func (c *Client) Connected() bool { return c.State() == StateConnected }

func (c *Client) setState(state ConnState) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()
}

// OnText registers an observer for inbound chat messages. Observers
// run on the poll goroutine; keep them fast.
func (c *Client) OnText(handler func(content string)) {
	c.observerMu.Lock()
	defer c.observerMu.Unlock()
	c.textHandlers = append(c.textHandlers, handler)
}

// OnFileChanged registers an observer for unsolicited file change
// notifications.
func (c *Client) OnFileChanged(handler func(path, content string)) {
	c.observerMu.Lock()
	defer c.observerMu.Unlock()
	c.fileHandlers = append(c.fileHandlers, handler)
}

// HandleRPC registers the handler for a generic RPC method name.
// Inbound rpcInvoke envelopes for an unregistered method are answered
// with an unsupported-method error.
func (c *Client) HandleRPC(method string, handler RPCHandler) {
	c.observerMu.Lock()
	defer c.observerMu.Unlock()
	c.rpcHandlers[method] = handler
}

// GetFile asks the peer to read a file. Correlated by path; bounded by
// FileTimeout. A peer-side read failure is returned as a *RemoteError.
func (c *Client) GetFile(ctx context.Context, path string) (string, error) {
	value, err := c.call(ctx, protocol.NewFileRequest(path),
		pendingKey(protocol.TypeFileContent, path), c.config.FileTimeout)
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// UpdateFile asks the peer to write content to path. Correlated by
// path; bounded by FileTimeout.
func (c *Client) UpdateFile(ctx context.Context, path, content string) error {
	_, err := c.call(ctx, protocol.NewUpdateCode(path, content),
		pendingKey(protocol.TypeUpdateCodeResult, path), c.config.FileTimeout)
	return err
}

// ExecuteCommand asks the peer to run a command and returns its
// output. Correlated by the command string; bounded by CommandTimeout.
func (c *Client) ExecuteCommand(ctx context.Context, command string) (string, error) {
	value, err := c.call(ctx, protocol.NewExecuteCommand(command),
		pendingKey(protocol.TypeCommandResult, command), c.config.CommandTimeout)
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// Invoke makes a generic correlated call. The correlation id is a
// fresh UUID, so concurrent invokes of the same method never collide.
// params may be any JSON-encodable value or nil.
func (c *Client) Invoke(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var rawParams json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("messaging: encoding %s params: %w", method, err)
		}
		rawParams = data
	}

	id := uuid.NewString()
	value, err := c.call(ctx, protocol.NewRPCInvoke(method, id, rawParams),
		pendingKey(protocol.TypeRPCResponse, id), c.config.RPCTimeout)
	if err != nil {
		return nil, err
	}
	result, _ := value.(json.RawMessage)
	return result, nil
}

// SendMessage enqueues a chat message to the peer. Fire-and-forget:
// it resolves as soon as the relay accepts the envelope.
func (c *Client) SendMessage(ctx context.Context, content string) error {
	return c.sendNotification(ctx, protocol.NewText(content))
}

// SendFile pushes a whole file to the peer without asking it to apply
// anything. The peer sees it as a fileChanged notification.
func (c *Client) SendFile(ctx context.Context, path, content string) error {
	return c.sendNotification(ctx, protocol.NewFileChanged(path, content))
}

// NotifyFileChanged tells the peer that path now holds content.
// Fire-and-forget.
func (c *Client) NotifyFileChanged(ctx context.Context, path, content string) error {
	return c.sendNotification(ctx, protocol.NewFileChanged(path, content))
}

func (c *Client) sendNotification(ctx context.Context, envelope protocol.Envelope) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	return c.enqueuePeer(ctx, envelope)
}

// call enqueues a correlated request and waits for its single eventual
// outcome: the matching reply, a timeout, or ctx cancellation.
func (c *Client) call(ctx context.Context, request protocol.Envelope, key string, timeout time.Duration) (any, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}

	waiter, err := c.pending.register(key, timeout)
	if err != nil {
		return nil, err
	}

	if err := c.enqueuePeer(ctx, request); err != nil {
		c.pending.cancel(key)
		return nil, err
	}

	select {
	case result := <-waiter:
		return result.value, result.err
	case <-ctx.Done():
		// Destroy the entry so a reply arriving later is a clean
		// silent drop rather than a leak.
		c.pending.cancel(key)
		return nil, ctx.Err()
	}
}

// --- relay HTTP transport ---

// checkResponse mirrors the relay's /check body.
type checkResponse struct {
	PendingCount int  `json:"pendingCount"`
	HasUpdates   bool `json:"hasUpdates"`
}

// enqueueResponse mirrors the relay's /enqueue body.
type enqueueResponse struct {
	Accepted bool `json:"accepted"`
}

// probe performs the liveness handshake against the relay.
func (c *Client) probe(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodGet, "/health", nil, nil)
}

// enqueuePeer posts an envelope to the peer's mailbox.
func (c *Client) enqueuePeer(ctx context.Context, envelope protocol.Envelope) error {
	var response enqueueResponse
	path := "/enqueue/" + string(c.party.Peer())
	if err := c.doRequest(ctx, http.MethodPost, path, envelope, &response); err != nil {
		return err
	}
	if !response.Accepted {
		return fmt.Errorf("messaging: relay did not accept %s envelope", envelope.Type)
	}
	return nil
}

// check asks the relay whether this party's mailbox has pending
// envelopes, without draining.
func (c *Client) check(ctx context.Context) (checkResponse, error) {
	var response checkResponse
	err := c.doRequest(ctx, http.MethodGet, "/check/"+string(c.party), nil, &response)
	return response, err
}

// drainMailbox drains this party's mailbox.
func (c *Client) drainMailbox(ctx context.Context) ([]protocol.Envelope, error) {
	var envelopes []protocol.Envelope
	err := c.doRequest(ctx, http.MethodGet, "/drain/"+string(c.party), nil, &envelopes)
	return envelopes, err
}

// doRequest performs one relay round-trip. Non-200 statuses become a
// *RelayError carrying the response body for diagnostics.
func (c *Client) doRequest(ctx context.Context, method, path string, requestBody, out any) error {
	var bodyReader *bytes.Reader
	if requestBody != nil {
		data, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("messaging: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.relayURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("messaging: building %s %s: %w", method, path, err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("messaging: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return &RelayError{
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body),
		}
	}
	if out == nil {
		return nil
	}
	if err := netutil.DecodeBody(response.Body, out); err != nil {
		return fmt.Errorf("messaging: %s %s: %w", method, path, err)
	}
	return nil
}
