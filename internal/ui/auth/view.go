// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) title() string {
	switch m.mode {
	case ModeRegister:
		return "Create your CareLink account"
	case ModeReset:
		return "Reset your password"
	default:
		return "Sign in to CareLink"
	}
}

func (m Model) hint() string {
	switch m.mode {
	case ModeRegister:
		return "enter submit · ctrl+r back to sign in"
	case ModeReset:
		return "enter submit · ctrl+p back to sign in"
	default:
		return "enter submit · ctrl+r register · ctrl+p forgot password"
	}
}

// View renders the active form centered in the window.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.HeaderTitle.Render(m.title()))
	b.WriteString("\n\n")

	for i, f := range m.fields {
		label := m.theme.FormLabel
		if i == m.focus {
			label = m.theme.FormLabelFocus
		}
		b.WriteString(label.Render(f.label))
		b.WriteString("\n")
		b.WriteString(f.input.View())
		b.WriteString("\n")
	}

	if m.submitting {
		b.WriteString("\n")
		b.WriteString(m.theme.FormHint.Render("Working..."))
	}
	if m.errText != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.FormError.Render(m.errText))
	}
	if m.infoText != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.FormHint.Render(m.infoText))
	}

	b.WriteString("\n\n")
	b.WriteString(m.theme.FormHint.Render(m.hint()))

	box := m.theme.FormBox.Render(b.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
