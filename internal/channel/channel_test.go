// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package channel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelinkhq/carelink-tui/internal/model"
	"github.com/carelinkhq/carelink-tui/internal/session"
)

var upgrader = websocket.Upgrader{}

// chatServer is a scripted websocket endpoint standing in for the
// portal. The script runs once a client connects.
func chatServer(t *testing.T, script func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		script(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testCred() *session.Credential {
	return &session.Credential{
		Token:     "test-token",
		UserID:    "u-1",
		Role:      model.RolePatient,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func frame(id string) []byte {
	raw, _ := json.Marshal(model.Message{
		ID:         id,
		SenderID:   "n-9",
		SenderName: "Priya Nair",
		SenderRole: model.RoleNurse,
		Body:       "hello",
		Timestamp:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	})
	return raw
}

func recvMsg(t *testing.T, ch <-chan model.Message) model.Message {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound message")
		return model.Message{}
	}
}

func recvSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestDialWithoutCredential(t *testing.T) {
	dialed := false
	srv := chatServer(t, func(conn *websocket.Conn) { dialed = true })

	ch, err := Dial(wsURL(srv), nil, "n-9", Events{})
	require.ErrorIs(t, err, session.ErrNoCredential)
	assert.Equal(t, StateFailed, ch.State())
	assert.False(t, dialed, "no connection attempt may be made without a credential")

	ch2, err := Dial(wsURL(srv), &session.Credential{}, "n-9", Events{})
	require.ErrorIs(t, err, session.ErrNoCredential)
	assert.Equal(t, StateFailed, ch2.State())
}

func TestDialRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	ch, err := Dial(wsURL(srv), testCred(), "n-9", Events{})
	require.ErrorIs(t, err, session.ErrNoCredential)
	assert.Equal(t, StateFailed, ch.State())
}

func TestInboundFramesInReceiptOrder(t *testing.T) {
	srv := chatServer(t, func(conn *websocket.Conn) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame("m-1")))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame("m-2")))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame("m-3")))
		time.Sleep(500 * time.Millisecond)
	})

	inbound := make(chan model.Message, 8)
	ch, err := Dial(wsURL(srv), testCred(), "n-9", Events{
		OnMessage: func(m model.Message) { inbound <- m },
	})
	require.NoError(t, err)
	defer ch.Close()
	assert.Equal(t, StateOpen, ch.State())

	for _, want := range []string{"m-1", "m-2", "m-3"} {
		if got := recvMsg(t, inbound); got.ID != want {
			t.Fatalf("frame order: got %s, want %s", got.ID, want)
		}
	}
}

func TestMalformedFrameDroppedChannelStaysOpen(t *testing.T) {
	srv := chatServer(t, func(conn *websocket.Conn) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"no id"}`)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame("m-1")))
		time.Sleep(500 * time.Millisecond)
	})

	inbound := make(chan model.Message, 8)
	protoErrs := make(chan struct{}, 8)
	ch, err := Dial(wsURL(srv), testCred(), "n-9", Events{
		OnMessage:       func(m model.Message) { inbound <- m },
		OnProtocolError: func(error) { protoErrs <- struct{}{} },
	})
	require.NoError(t, err)
	defer ch.Close()

	recvSignal(t, protoErrs, "first protocol error")
	recvSignal(t, protoErrs, "second protocol error")

	// The good frame still arrives and the channel is still OPEN.
	got := recvMsg(t, inbound)
	assert.Equal(t, "m-1", got.ID)
	assert.Equal(t, StateOpen, ch.State())
}

func TestSendWritesEnvelope(t *testing.T) {
	received := make(chan outboundEnvelope, 1)
	srv := chatServer(t, func(conn *websocket.Conn) {
		var env outboundEnvelope
		if err := conn.ReadJSON(&env); err == nil {
			received <- env
		}
	})

	ch, err := Dial(wsURL(srv), testCred(), "n-9", Events{})
	require.NoError(t, err)
	defer ch.Close()

	require.True(t, ch.Send("n-9", "hello there"))

	select {
	case env := <-received:
		assert.Equal(t, "n-9", env.ReceiverID)
		assert.Equal(t, "hello there", env.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the envelope")
	}
}

func TestSendSuppressedForBlankBody(t *testing.T) {
	frames := make(chan struct{}, 4)
	srv := chatServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			frames <- struct{}{}
		}
	})

	ch, err := Dial(wsURL(srv), testCred(), "n-9", Events{})
	require.NoError(t, err)
	defer ch.Close()

	assert.False(t, ch.Send("n-9", ""))
	assert.False(t, ch.Send("n-9", "   "))
	assert.False(t, ch.Send("n-9", "\n\t "))

	select {
	case <-frames:
		t.Fatal("blank send produced an outbound frame")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSendSuppressedWhenNotOpen(t *testing.T) {
	srv := chatServer(t, func(conn *websocket.Conn) {
		time.Sleep(time.Second)
	})

	ch, err := Dial(wsURL(srv), testCred(), "n-9", Events{})
	require.NoError(t, err)
	ch.Close()

	assert.Equal(t, StateClosed, ch.State())
	assert.False(t, ch.Send("n-9", "late message"))
}

func TestServerCloseLandsInClosed(t *testing.T) {
	srv := chatServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
	})

	closed := make(chan struct{}, 1)
	ch, err := Dial(wsURL(srv), testCred(), "n-9", Events{
		OnClosed: func() { closed <- struct{}{} },
	})
	require.NoError(t, err)

	recvSignal(t, closed, "close notification")
	assert.Equal(t, StateClosed, ch.State())
}

func TestAbruptDropFailsChannel(t *testing.T) {
	srv := chatServer(t, func(conn *websocket.Conn) {
		// Drop the socket without a close handshake.
		_ = conn.UnderlyingConn().Close()
	})

	failed := make(chan error, 1)
	ch, err := Dial(wsURL(srv), testCred(), "n-9", Events{
		OnFailure: func(err error) { failed <- err },
	})
	require.NoError(t, err)

	select {
	case ferr := <-failed:
		assert.ErrorIs(t, ferr, ErrChannelFailure)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for failure notification")
	}
	assert.Equal(t, StateFailed, ch.State())
	assert.False(t, ch.Send("n-9", "after failure"), "sends must stay suppressed once FAILED")

	// FAILED is terminal; a later Close must not resurrect or reclassify it.
	ch.Close()
	assert.Equal(t, StateFailed, ch.State())
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := chatServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	closed := make(chan struct{}, 4)
	ch, err := Dial(wsURL(srv), testCred(), "n-9", Events{
		OnClosed: func() { closed <- struct{}{} },
	})
	require.NoError(t, err)

	ch.Close()
	ch.Close()
	ch.Close()
	assert.Equal(t, StateClosed, ch.State())

	// Deliberate teardown notifies nobody: the view is already gone.
	select {
	case <-closed:
		t.Fatal("OnClosed fired for a view-initiated close")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNoEventsAfterClose(t *testing.T) {
	release := make(chan struct{})
	srv := chatServer(t, func(conn *websocket.Conn) {
		<-release
		_ = conn.WriteMessage(websocket.TextMessage, frame("late"))
		time.Sleep(300 * time.Millisecond)
	})

	inbound := make(chan model.Message, 4)
	ch, err := Dial(wsURL(srv), testCred(), "n-9", Events{
		OnMessage: func(m model.Message) { inbound <- m },
	})
	require.NoError(t, err)

	ch.Close()
	close(release)

	select {
	case m := <-inbound:
		t.Fatalf("message %q delivered after teardown", m.ID)
	case <-time.After(500 * time.Millisecond):
	}
}
