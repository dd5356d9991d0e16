// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/carelinkhq/carelink-tui/internal/channel"
	"github.com/carelinkhq/carelink-tui/internal/ui/styles"
)

// Shortcut is one key hint shown in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// ChannelStateLabel renders the live channel state with its color.
func ChannelStateLabel(theme *styles.Theme, state channel.State) string {
	switch state {
	case channel.StateOpen:
		return theme.ChannelOpen.Render("connected")
	case channel.StateConnecting:
		return theme.ChannelConnecting.Render("connecting...")
	case channel.StateFailed:
		return theme.ChannelFailed.Render("connection lost")
	default:
		return theme.ChannelClosed.Render("offline")
	}
}

// StatusBar renders a one-line bar: left content, then right-aligned
// key hints, truncated to the given width.
func StatusBar(theme *styles.Theme, width int, left string, shortcuts []Shortcut) string {
	var hints string
	for i, s := range shortcuts {
		if i > 0 {
			hints += "  "
		}
		hints += theme.ShortcutKey.Render(s.Key) + " " + theme.ShortcutDesc.Render(s.Desc)
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if gap < 1 {
		gap = 1
	}
	line := left + lipgloss.NewStyle().Width(gap).Render("") + hints
	return theme.StatusBar.MaxWidth(width).Render(line)
}
