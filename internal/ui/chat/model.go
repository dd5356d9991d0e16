// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/carelinkhq/carelink-tui/internal/api"
	"github.com/carelinkhq/carelink-tui/internal/channel"
	"github.com/carelinkhq/carelink-tui/internal/logging"
	"github.com/carelinkhq/carelink-tui/internal/model"
	"github.com/carelinkhq/carelink-tui/internal/session"
	"github.com/carelinkhq/carelink-tui/internal/ui/components"
	"github.com/carelinkhq/carelink-tui/internal/ui/styles"
)

// fetchTimeout bounds the two history-loader requests. The live
// channel deliberately has no establishment timeout.
const fetchTimeout = 15 * time.Second

// liveChannel is what the view needs from the live connection. It is
// satisfied by *channel.Channel; tests substitute a fake.
type liveChannel interface {
	State() channel.State
	Send(receiverID, body string) bool
	Close()
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Params configures a conversation view.
type Params struct {
	Theme     *styles.Theme
	Client    *api.Client
	WSBaseURL string
	Locale    string

	// Cred is the signed-in user's credential, passed in explicitly.
	Cred *session.Credential

	// Counterpart seeds the header with whatever the caller already
	// knows (at least the ID); the profile fetch fills in the rest.
	Counterpart model.Counterpart

	// Relay pushes messages from channel goroutines into the program's
	// event loop (tea.Program.Send).
	Relay func(tea.Msg)
}

// Model is the Bubble Tea model for one open conversation. Exactly one
// live channel belongs to it; the root model calls Teardown on every
// path that leaves the view.
type Model struct {
	theme  *styles.Theme
	width  int
	height int

	client    *api.Client
	wsBaseURL string
	cred      *session.Credential
	relay     func(tea.Msg)

	counterpart    model.Counterpart
	profileLoaded  bool
	transcript     *model.Transcript
	labeler        model.DateLabeler
	showTimestamps bool

	ch       liveChannel
	dialing  bool
	tornDown bool

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	toasts   *components.ToastManager

	logger *zap.Logger
}

// New creates a conversation view for the given counterpart.
func New(p Params) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	return Model{
		theme:          p.Theme,
		client:         p.Client,
		wsBaseURL:      p.WSBaseURL,
		cred:           p.Cred,
		relay:          p.Relay,
		counterpart:    p.Counterpart,
		transcript:     model.NewTranscript(),
		labeler:        model.NewDateLabeler(time.Now(), p.Locale),
		showTimestamps: true,
		dialing:        true,
		viewport:       vp,
		input:          ti,
		spinner:        sp,
		toasts:         components.NewToastManager(p.Theme),
		logger:         logging.L().Named("chat"),
	}
}

// SetShowTimestamps toggles per-message time display.
func (m *Model) SetShowTimestamps(v bool) {
	m.showTimestamps = v
}

// ChannelState reports the live channel state for display.
func (m Model) ChannelState() channel.State {
	if m.ch != nil {
		return m.ch.State()
	}
	if m.dialing {
		return channel.StateConnecting
	}
	return channel.StateFailed
}

// Teardown releases the live channel. Called on every exit path from
// the view; safe to call more than once.
func (m *Model) Teardown() {
	m.tornDown = true
	if m.ch != nil {
		m.ch.Close()
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the two loader fetches and the channel dial. With no
// usable credential nothing is started at all; the view immediately
// reports Unauthenticated and the root redirects to login.
func (m Model) Init() tea.Cmd {
	if !m.cred.Valid(time.Now()) {
		return func() tea.Msg { return UnauthenticatedMsg{} }
	}
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.loadProfile(),
		m.loadHistory(),
		m.dial(),
	)
}

// loadProfile fetches the counterpart profile. Independent of the
// history fetch; one failing never blocks the other.
func (m Model) loadProfile() tea.Cmd {
	client, cred, id := m.client, m.cred, m.counterpart.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		cp, err := client.CounterpartProfile(ctx, cred, id)
		return ProfileLoadedMsg{Counterpart: cp, Err: err}
	}
}

// loadHistory fetches the prior messages once.
func (m Model) loadHistory() tea.Cmd {
	client, cred, id := m.client, m.cred, m.counterpart.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		msgs, err := client.MessageHistory(ctx, cred, id)
		return HistoryLoadedMsg{Messages: msgs, Err: err}
	}
}

// dial opens the live channel. Channel goroutine events are relayed
// into the program loop so all transcript mutation stays on it.
func (m Model) dial() tea.Cmd {
	wsBaseURL, cred, peer, relay := m.wsBaseURL, m.cred, m.counterpart.ID, m.relay
	return func() tea.Msg {
		ch, err := channel.Dial(wsBaseURL, cred, peer, channel.Events{
			OnMessage:       func(msg model.Message) { relay(InboundFrameMsg{Message: msg}) },
			OnProtocolError: func(err error) { relay(FrameDroppedMsg{Err: err}) },
			OnFailure:       func(err error) { relay(ChannelFailedMsg{Err: err}) },
			OnClosed:        func() { relay(ChannelClosedMsg{}) },
		})
		return ChannelReadyMsg{Ch: ch, Err: err}
	}
}

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.tornDown {
		// Teardown began; nothing may mutate the transcript anymore.
		// A dial that finishes after teardown still hands over a live
		// connection, and this is its only exit path: close it here or
		// leak it along with its read pump.
		if ready, ok := msg.(ChannelReadyMsg); ok && ready.Ch != nil {
			ready.Ch.Close()
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-6, 3)
		m.input.Width = max(msg.Width-6, 10)
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return ExitMsg{} }
		case "enter":
			m.submit()
			return m, nil
		}

	case ProfileLoadedMsg:
		return m.handleProfileLoaded(msg)

	case HistoryLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case ChannelReadyMsg:
		return m.handleChannelReady(msg)

	case InboundFrameMsg:
		m.transcript.AppendLive(msg.Message)
		m.refreshViewport()
		return m, nil

	case FrameDroppedMsg:
		// Already logged by the channel; the conversation carries on.
		return m, nil

	case ChannelFailedMsg:
		m.logger.Warn("live channel failed", zap.Error(msg.Err))
		cmd := m.toasts.Push(components.NewWarningToast("Connection lost. Reopen the conversation to reconnect."))
		return m, cmd

	case ChannelClosedMsg:
		return m, nil

	case components.ToastExpiredMsg:
		m.toasts.Sweep(time.Now())
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleProfileLoaded(msg ProfileLoadedMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		if api.IsUnauthenticated(msg.Err) {
			return m, func() tea.Msg { return UnauthenticatedMsg{} }
		}
		// Non-fatal: keep the seeded header values as placeholders.
		m.logger.Warn("profile fetch failed", zap.Error(msg.Err))
		cmd := m.toasts.Push(components.NewErrorToast("Could not load the nurse's profile."))
		return m, cmd
	}
	m.counterpart = *msg.Counterpart
	m.profileLoaded = true
	return m, nil
}

func (m Model) handleHistoryLoaded(msg HistoryLoadedMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		if api.IsUnauthenticated(msg.Err) {
			return m, func() tea.Msg { return UnauthenticatedMsg{} }
		}
		m.logger.Warn("history fetch failed", zap.Error(msg.Err))
		// Empty backfill; live frames still append after it.
		m.transcript.SetHistory(nil)
		m.refreshViewport()
		text := "Could not reach the portal for earlier messages."
		if api.IsLoadError(msg.Err) {
			text = "The portal could not return earlier messages. Try again later."
		}
		cmd := m.toasts.Push(components.NewErrorToast(text))
		return m, cmd
	}
	m.transcript.SetHistory(msg.Messages)
	m.refreshViewport()
	return m, nil
}

func (m Model) handleChannelReady(msg ChannelReadyMsg) (Model, tea.Cmd) {
	m.dialing = false
	m.ch = msg.Ch
	if msg.Err != nil {
		if api.IsUnauthenticated(msg.Err) || isNoCredential(msg.Err) {
			return m, func() tea.Msg { return UnauthenticatedMsg{} }
		}
		m.logger.Warn("channel dial failed", zap.Error(msg.Err))
		cmd := m.toasts.Push(components.NewWarningToast("Live connection unavailable. Messages will not update."))
		return m, cmd
	}
	return m, nil
}

// submit hands the composed text to the channel. The channel enforces
// the preconditions (non-blank body, state OPEN); a suppressed send is
// a silent no-op and the draft is kept.
func (m *Model) submit() {
	if m.ch == nil {
		m.logger.Debug("send suppressed: no channel")
		return
	}
	if m.ch.Send(m.counterpart.ID, m.input.Value()) {
		// No local echo: the message shows up when the server sends it
		// back through the channel like any other frame.
		m.input.Reset()
	}
}

func isNoCredential(err error) bool {
	return errors.Is(err, session.ErrNoCredential)
}
