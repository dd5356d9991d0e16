// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package channel implements the live chat connection to the portal.
//
// A Channel is a persistent bidirectional websocket scoped to one open
// conversation view. It moves through CONNECTING, OPEN and CLOSED, with
// FAILED as a terminal state on transport error. A failed channel is
// never redialed; the user gets a fresh channel by reopening the view.
package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/carelinkhq/carelink-tui/internal/logging"
	"github.com/carelinkhq/carelink-tui/internal/model"
	"github.com/carelinkhq/carelink-tui/internal/session"
)

// ErrChannelFailure marks a transport-level failure of the live
// channel. A failed channel is terminal; callers that want a live
// connection again open a new conversation view.
var ErrChannelFailure = errors.New("live channel failure")

// =============================================================================
// STATE
// =============================================================================

// State is the channel lifecycle state.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// Events are the callbacks the channel fires from its read goroutine.
// The chat view forwards each one into the UI event loop, so handlers
// must not block. After Close returns no further events are delivered.
type Events struct {
	// OnMessage delivers one well-formed inbound frame, in receipt order.
	OnMessage func(model.Message)
	// OnProtocolError reports a malformed frame. The frame is dropped
	// and the channel stays open.
	OnProtocolError func(err error)
	// OnFailure reports a transport error. The channel is FAILED and
	// delivers nothing further.
	OnFailure func(err error)
	// OnClosed reports a close, whether view-initiated or server-initiated.
	OnClosed func()
}

// outboundEnvelope is the wire format for a user-initiated send.
type outboundEnvelope struct {
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}

// =============================================================================
// CHANNEL
// =============================================================================

// Channel is one live connection. Exactly one exists per open
// conversation view; Close must be called on every exit path.
type Channel struct {
	mu     sync.Mutex
	state  State
	conn   *websocket.Conn
	events Events
	logger *zap.Logger

	closeOnce sync.Once
	// closing marks a deliberate teardown so the read goroutine can
	// tell it apart from a transport failure.
	closing bool
}

// Dial opens the live channel for a conversation. It requires a valid
// credential; without one no connection attempt is made and
// session.ErrNoCredential is returned. The bearer token travels in the
// Authorization header, the counterpart in the query string.
//
// On handshake success the channel is OPEN and its read loop is
// running. On handshake failure the returned channel is FAILED.
func Dial(wsBaseURL string, cred *session.Credential, counterpartID string, events Events) (*Channel, error) {
	ch := &Channel{
		state:  StateConnecting,
		events: events,
		logger: logging.L().Named("channel"),
	}

	if cred == nil || cred.Token == "" {
		ch.state = StateFailed
		return ch, session.ErrNoCredential
	}

	endpoint, err := url.Parse(wsBaseURL)
	if err != nil {
		ch.state = StateFailed
		return ch, fmt.Errorf("invalid channel endpoint: %w", err)
	}
	endpoint.Path = "/ws/chat"
	q := endpoint.Query()
	q.Set("peer", counterpartID)
	endpoint.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cred.Token)

	conn, resp, err := websocket.DefaultDialer.Dial(endpoint.String(), header)
	if err != nil {
		ch.state = StateFailed
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return ch, fmt.Errorf("%w: channel handshake rejected", session.ErrNoCredential)
		}
		ch.logger.Warn("channel handshake failed", zap.Error(err))
		return ch, fmt.Errorf("channel handshake failed: %w", err)
	}

	ch.conn = conn
	ch.state = StateOpen
	ch.logger.Info("channel open", zap.String("peer", counterpartID))

	go ch.readPump()
	return ch, nil
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send writes one outbound message envelope. The write happens only
// when the trimmed body is non-empty and the channel is OPEN; anything
// else is a silent no-op, reported by the false return and a log line.
func (c *Channel) Send(receiverID, body string) bool {
	if strings.TrimSpace(body) == "" {
		c.logger.Debug("send suppressed: empty body")
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		c.logger.Debug("send suppressed: channel not open", zap.Stringer("state", c.state))
		return false
	}

	env := outboundEnvelope{ReceiverID: receiverID, Message: body}
	if err := c.conn.WriteJSON(env); err != nil {
		c.failLocked(err)
		return false
	}
	return true
}

// Close tears the channel down. It is idempotent and safe from any
// goroutine; the view calls it on every exit path. A channel that has
// already FAILED stays FAILED.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closing = true
		conn := c.conn
		if c.state == StateConnecting || c.state == StateOpen {
			c.state = StateClosed
		}
		c.mu.Unlock()

		if conn != nil {
			// Best effort; the server treats a dropped socket the same.
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		}
		c.logger.Info("channel closed")
	})
}

// =============================================================================
// READ LOOP
// =============================================================================

func (c *Channel) readPump() {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		var msg model.Message
		if decodeErr := json.Unmarshal(raw, &msg); decodeErr != nil || msg.ID == "" {
			if decodeErr == nil {
				decodeErr = errors.New("frame missing message id")
			}
			c.logger.Warn("dropped malformed frame", zap.Error(decodeErr))
			if c.teardownBegan() {
				return
			}
			if c.events.OnProtocolError != nil {
				c.events.OnProtocolError(decodeErr)
			}
			continue
		}

		if c.teardownBegan() {
			return
		}
		if c.events.OnMessage != nil {
			c.events.OnMessage(msg)
		}
	}
}

// handleReadError resolves a read loop exit into CLOSED or FAILED.
// A deliberate Close and a server-initiated close both end in CLOSED;
// everything else is a transport failure.
func (c *Channel) handleReadError(err error) {
	c.mu.Lock()
	deliberate := c.closing
	c.mu.Unlock()

	if deliberate {
		// Close() already set the state and notified nobody; teardown
		// means the view is gone, so no event fires.
		return
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
		c.logger.Info("channel closed by server")
		if c.events.OnClosed != nil {
			c.events.OnClosed()
		}
		return
	}

	c.mu.Lock()
	c.failLocked(err)
	c.mu.Unlock()
	if c.events.OnFailure != nil {
		c.events.OnFailure(fmt.Errorf("%w: %v", ErrChannelFailure, err))
	}
}

// failLocked moves the channel to FAILED. Caller holds c.mu.
func (c *Channel) failLocked(err error) {
	if c.state == StateFailed || c.state == StateClosed {
		return
	}
	c.state = StateFailed
	c.logger.Warn("channel failed", zap.Error(err))
}

func (c *Channel) teardownBegan() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}
