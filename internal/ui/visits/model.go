// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package visits shows the signed-in patient's scheduled visits and
// opens a conversation with the assigned nurse.
package visits

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/carelinkhq/carelink-tui/internal/api"
	"github.com/carelinkhq/carelink-tui/internal/logging"
	"github.com/carelinkhq/carelink-tui/internal/model"
	"github.com/carelinkhq/carelink-tui/internal/session"
	"github.com/carelinkhq/carelink-tui/internal/ui/styles"
)

const fetchTimeout = 15 * time.Second

// =============================================================================
// MESSAGES
// =============================================================================

// VisitsLoadedMsg delivers the visit listing fetch result.
type VisitsLoadedMsg struct {
	Visits []model.Visit
	Err    error
}

// OpenConversationMsg asks the root model to open a chat with the
// selected visit's nurse.
type OpenConversationMsg struct {
	Counterpart model.Counterpart
}

// UnauthenticatedMsg asks the root model to redirect to sign-in.
type UnauthenticatedMsg struct{}

// SignOutMsg asks the root model to clear the session and sign out.
type SignOutMsg struct{}

// =============================================================================
// MODEL
// =============================================================================

// Model is the visit listing screen.
type Model struct {
	theme  *styles.Theme
	client *api.Client
	cred   *session.Credential
	logger *zap.Logger

	visits  []model.Visit
	cursor  int
	loading bool
	errText string

	spinner spinner.Model
	width   int
	height  int
}

// New creates the visit listing for the signed-in user.
func New(theme *styles.Theme, client *api.Client, cred *session.Credential) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	return Model{
		theme:   theme,
		client:  client,
		cred:    cred,
		logger:  logging.L().Named("visits"),
		loading: true,
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd {
	if !m.cred.Valid(time.Now()) {
		return func() tea.Msg { return UnauthenticatedMsg{} }
	}
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m Model) load() tea.Cmd {
	client, cred := m.client, m.cred
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		visits, err := client.Visits(ctx, cred)
		return VisitsLoadedMsg{Visits: visits, Err: err}
	}
}

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case VisitsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			if api.IsUnauthenticated(msg.Err) {
				return m, func() tea.Msg { return UnauthenticatedMsg{} }
			}
			m.logger.Warn("visit listing fetch failed", zap.Error(msg.Err))
			m.errText = "Could not load your visits. Press r to retry."
			return m, nil
		}
		m.visits = msg.Visits
		if m.cursor >= len(m.visits) {
			m.cursor = 0
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.visits)-1 {
				m.cursor++
			}
		case "r":
			if !m.loading {
				m.loading = true
				m.errText = ""
				return m, tea.Batch(m.spinner.Tick, m.load())
			}
		case "enter":
			if v, ok := m.selected(); ok {
				nurse := v.Nurse
				return m, func() tea.Msg { return OpenConversationMsg{Counterpart: nurse} }
			}
		case "ctrl+o":
			return m, func() tea.Msg { return SignOutMsg{} }
		}
	}
	return m, nil
}

func (m Model) selected() (model.Visit, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visits) {
		return model.Visit{}, false
	}
	return m.visits[m.cursor], true
}
