// CareLink TUI - a terminal client for the CareLink care portal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/carelinkhq/carelink-tui/internal/api"
	"github.com/carelinkhq/carelink-tui/internal/config"
	"github.com/carelinkhq/carelink-tui/internal/logging"
	"github.com/carelinkhq/carelink-tui/internal/session"
	"github.com/carelinkhq/carelink-tui/internal/ui/auth"
	"github.com/carelinkhq/carelink-tui/internal/ui/chat"
	"github.com/carelinkhq/carelink-tui/internal/ui/styles"
	"github.com/carelinkhq/carelink-tui/internal/ui/visits"
)

// Version information (set at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference so channel goroutines can push events into
// the update loop.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

// relay forwards a message from any goroutine into the program loop.
func relay(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	cfg := config.Global()

	if _, err := logging.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open log file: %v\n", err)
	}
	defer logging.Sync()

	theme := styles.NewTheme()

	client := api.NewClient(&api.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: time.Duration(cfg.API.TimeoutSecs) * time.Second,
	})

	store, err := session.NewStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not initialize session store: %v\n", err)
		os.Exit(1)
	}

	m := NewAppModel(theme, client, store, cfg)

	p := tea.NewProgram(m, tea.WithAltScreen())

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running carelink: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// State represents the current application screen.
type State int

const (
	StateLogin State = iota
	StateVisits
	StateChat
)

// AppModel is the root Bubble Tea model. It owns the screen switch and
// makes sure the chat's live channel is torn down on every path that
// leaves the conversation.
type AppModel struct {
	state State

	theme  *styles.Theme
	client *api.Client
	store  *session.Store
	config *config.Config
	logger *zap.Logger

	cred *session.Credential

	authModel   auth.Model
	visitsModel visits.Model
	chatModel   chat.Model

	width  int
	height int
}

// NewAppModel creates the root model. A stored credential that is
// still valid skips the sign-in screen.
func NewAppModel(theme *styles.Theme, client *api.Client, store *session.Store, cfg *config.Config) *AppModel {
	m := &AppModel{
		state:     StateLogin,
		theme:     theme,
		client:    client,
		store:     store,
		config:    cfg,
		logger:    logging.L().Named("app"),
		authModel: auth.New(theme, client),
	}

	cred, err := store.Load()
	switch {
	case err == nil:
		m.cred = cred
		m.visitsModel = visits.New(theme, client, cred)
		m.state = StateVisits
	case errors.Is(err, session.ErrNoCredential):
		// Fresh start; sign in.
	default:
		m.logger.Warn("session restore failed", zap.Error(err))
	}
	return m
}

// Init initializes the active screen.
func (m *AppModel) Init() tea.Cmd {
	if m.state == StateVisits {
		return m.visitsModel.Init()
	}
	return m.authModel.Init()
}

// Update handles messages and screen transitions.
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Every screen tracks its own size.
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.authModel, cmd = m.authModel.Update(msg)
		cmds = append(cmds, cmd)
		m.visitsModel, cmd = m.visitsModel.Update(msg)
		cmds = append(cmds, cmd)
		if m.state == StateChat {
			m.chatModel, cmd = m.chatModel.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}

	case auth.SignedInMsg:
		return m.handleSignedIn(msg)

	case visits.OpenConversationMsg:
		return m.openConversation(msg)

	case visits.SignOutMsg:
		return m.redirectToLogin()

	case visits.UnauthenticatedMsg:
		return m.redirectToLogin()

	case chat.UnauthenticatedMsg:
		return m.redirectToLogin()

	case chat.ExitMsg:
		return m.leaveConversation()
	}

	return m.forward(msg)
}

// forward routes a message to the active screen.
func (m *AppModel) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.state {
	case StateLogin:
		m.authModel, cmd = m.authModel.Update(msg)
	case StateVisits:
		m.visitsModel, cmd = m.visitsModel.Update(msg)
	case StateChat:
		m.chatModel, cmd = m.chatModel.Update(msg)
	}
	return m, cmd
}

// View renders the active screen.
func (m *AppModel) View() string {
	switch m.state {
	case StateVisits:
		return m.visitsModel.View()
	case StateChat:
		return m.chatModel.View()
	default:
		return m.authModel.View()
	}
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func (m *AppModel) handleSignedIn(msg auth.SignedInMsg) (tea.Model, tea.Cmd) {
	m.cred = msg.Cred
	if err := m.store.Save(msg.Cred); err != nil {
		// Session just won't survive a restart.
		m.logger.Warn("could not persist session", zap.Error(err))
	}
	m.logger.Info("signed in", zap.String("user", msg.Cred.UserID))

	m.visitsModel = visits.New(m.theme, m.client, m.cred)
	m.state = StateVisits
	return m, tea.Batch(
		m.visitsModel.Init(),
		m.resize(),
	)
}

func (m *AppModel) openConversation(msg visits.OpenConversationMsg) (tea.Model, tea.Cmd) {
	m.chatModel = chat.New(chat.Params{
		Theme:       m.theme,
		Client:      m.client,
		WSBaseURL:   m.config.API.WSBaseURL,
		Locale:      m.config.UI.Locale,
		Cred:        m.cred,
		Counterpart: msg.Counterpart,
		Relay:       relay,
	})
	m.chatModel.SetShowTimestamps(m.config.UI.ShowTimestamps)
	m.state = StateChat
	return m, tea.Batch(
		m.chatModel.Init(),
		m.resize(),
	)
}

// leaveConversation returns to the visit list, releasing the live
// channel first.
func (m *AppModel) leaveConversation() (tea.Model, tea.Cmd) {
	if m.state == StateChat {
		m.chatModel.Teardown()
	}
	m.visitsModel = visits.New(m.theme, m.client, m.cred)
	m.state = StateVisits
	return m, tea.Batch(
		m.visitsModel.Init(),
		m.resize(),
	)
}

// redirectToLogin drops the stale session and shows the sign-in form.
// There is no background retry; the user signs in again.
func (m *AppModel) redirectToLogin() (tea.Model, tea.Cmd) {
	if m.state == StateChat {
		m.chatModel.Teardown()
	}
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("could not clear session", zap.Error(err))
	}
	m.cred = nil
	m.authModel = auth.New(m.theme, m.client)
	m.state = StateLogin
	return m, tea.Batch(
		m.authModel.Init(),
		m.resize(),
	)
}

func (m *AppModel) quit() (tea.Model, tea.Cmd) {
	if m.state == StateChat {
		m.chatModel.Teardown()
	}
	return m, tea.Quit
}

// resize replays the last known window size to a screen that was
// created after the real WindowSizeMsg arrived.
func (m *AppModel) resize() tea.Cmd {
	if m.width == 0 && m.height == 0 {
		return nil
	}
	width, height := m.width, m.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: width, Height: height}
	}
}
