// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth provides the sign-in, registration and password reset
// forms. A successful sign-in hands the parsed credential to the root
// model; everything token-related lives in the session package.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/carelinkhq/carelink-tui/internal/api"
	"github.com/carelinkhq/carelink-tui/internal/logging"
	"github.com/carelinkhq/carelink-tui/internal/model"
	"github.com/carelinkhq/carelink-tui/internal/session"
	"github.com/carelinkhq/carelink-tui/internal/ui/styles"
)

const requestTimeout = 15 * time.Second

// Mode selects which form is on screen.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
	ModeReset
)

// =============================================================================
// MESSAGES
// =============================================================================

// SignedInMsg carries the credential of a successful sign-in to the
// root model.
type SignedInMsg struct {
	Cred *session.Credential
}

// registeredMsg reports the outcome of a registration attempt.
type registeredMsg struct {
	err error
}

// resetRequestedMsg reports the outcome of a password reset request.
type resetRequestedMsg struct {
	err error
}

// loginResultMsg reports the outcome of a login attempt.
type loginResultMsg struct {
	cred *session.Credential
	err  error
}

// =============================================================================
// MODEL
// =============================================================================

type field struct {
	label string
	input textinput.Model
}

// Model is the authentication screen.
type Model struct {
	theme  *styles.Theme
	client *api.Client
	logger *zap.Logger

	mode       Mode
	fields     []field
	focus      int
	submitting bool
	errText    string
	infoText   string

	width  int
	height int
}

// New creates the authentication screen in login mode.
func New(theme *styles.Theme, client *api.Client) Model {
	m := Model{
		theme:  theme,
		client: client,
		logger: logging.L().Named("auth"),
	}
	m.setMode(ModeLogin)
	return m
}

func newField(label, placeholder string, secret bool) field {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
	}
	return field{label: label, input: ti}
}

// setMode swaps the form fields for the chosen mode.
func (m *Model) setMode(mode Mode) {
	m.mode = mode
	m.focus = 0
	m.errText = ""
	m.infoText = ""
	m.submitting = false

	switch mode {
	case ModeRegister:
		m.fields = []field{
			newField("Full name", "Pat Doe", false),
			newField("Email", "you@example.com", false),
			newField("Phone", "+1 555 000 0000", false),
			newField("Password", "", true),
		}
	case ModeReset:
		m.fields = []field{
			newField("Email", "you@example.com", false),
		}
	default:
		m.fields = []field{
			newField("Email", "you@example.com", false),
			newField("Password", "", true),
		}
	}
	m.fields[0].input.Focus()
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.moveFocus(1)
			return m, nil
		case "shift+tab", "up":
			m.moveFocus(-1)
			return m, nil
		case "enter":
			if m.focus < len(m.fields)-1 {
				m.moveFocus(1)
				return m, nil
			}
			return m.submit()
		case "ctrl+r":
			if m.mode == ModeLogin {
				m.setMode(ModeRegister)
			} else {
				m.setMode(ModeLogin)
			}
			return m, nil
		case "ctrl+p":
			if m.mode == ModeLogin {
				m.setMode(ModeReset)
			} else {
				m.setMode(ModeLogin)
			}
			return m, nil
		}

	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errText = loginErrorText(msg.err)
			return m, nil
		}
		cred := msg.cred
		return m, func() tea.Msg { return SignedInMsg{Cred: cred} }

	case registeredMsg:
		m.submitting = false
		if msg.err != nil {
			m.errText = requestErrorText(msg.err, "Registration failed.")
			return m, nil
		}
		m.setMode(ModeLogin)
		m.infoText = "Account created. Sign in to continue."
		return m, nil

	case resetRequestedMsg:
		m.submitting = false
		if msg.err != nil {
			m.errText = requestErrorText(msg.err, "Could not request a reset.")
			return m, nil
		}
		m.setMode(ModeLogin)
		m.infoText = "Check your email for reset instructions."
		return m, nil
	}

	var cmd tea.Cmd
	m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
	return m, cmd
}

func (m *Model) moveFocus(delta int) {
	m.fields[m.focus].input.Blur()
	m.focus = (m.focus + delta + len(m.fields)) % len(m.fields)
	m.fields[m.focus].input.Focus()
}

func (m *Model) value(i int) string {
	return strings.TrimSpace(m.fields[i].input.Value())
}

// submit validates the visible form and fires the matching request.
func (m Model) submit() (Model, tea.Cmd) {
	switch m.mode {
	case ModeRegister:
		name, email, phone := m.value(0), m.value(1), m.value(2)
		password := m.fields[3].input.Value()
		if name == "" || email == "" || password == "" {
			m.errText = "Name, email and password are required."
			return m, nil
		}
		m.submitting = true
		m.errText = ""
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			err := client.Register(ctx, api.RegistrationForm{
				Name:     name,
				Email:    email,
				Phone:    phone,
				Password: password,
				Role:     model.RolePatient,
			})
			return registeredMsg{err: err}
		}

	case ModeReset:
		email := m.value(0)
		if email == "" {
			m.errText = "Enter the email on your account."
			return m, nil
		}
		m.submitting = true
		m.errText = ""
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return resetRequestedMsg{err: client.RequestPasswordReset(ctx, email)}
		}

	default:
		email := m.value(0)
		password := m.fields[1].input.Value()
		if email == "" || password == "" {
			m.errText = "Email and password are required."
			return m, nil
		}
		m.submitting = true
		m.errText = ""
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			token, err := client.Login(ctx, email, password)
			if err != nil {
				return loginResultMsg{err: err}
			}
			cred, err := session.FromToken(token)
			if err != nil {
				return loginResultMsg{err: err}
			}
			return loginResultMsg{cred: cred}
		}
	}
}

func loginErrorText(err error) string {
	if api.IsUnauthenticated(err) {
		return "Email or password is incorrect."
	}
	return requestErrorText(err, "Sign-in failed.")
}

func requestErrorText(err error, fallback string) string {
	var cerr *api.ClientError
	if errors.As(err, &cerr) && cerr.Message != "" {
		return cerr.Message
	}
	return fallback
}
