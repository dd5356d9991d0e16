// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package visits

import (
	"fmt"
	"strings"

	"github.com/carelinkhq/carelink-tui/internal/model"
	"github.com/carelinkhq/carelink-tui/internal/ui/components"
	"github.com/carelinkhq/carelink-tui/internal/util"
)

// View renders the visit listing.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Header.Render("CareLink — Your Visits"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.theme.ListMeta.Render(m.spinner.View() + " Loading visits..."))
	case m.errText != "":
		b.WriteString(m.theme.FormError.Render(m.errText))
	case len(m.visits) == 0:
		b.WriteString(m.theme.ListMeta.Render("No visits scheduled."))
	default:
		for i, v := range m.visits {
			b.WriteString(m.renderVisit(v, i == m.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(components.StatusBar(m.theme, m.width, "", []components.Shortcut{
		{Key: "enter", Desc: "message nurse"},
		{Key: "r", Desc: "refresh"},
		{Key: "ctrl+o", Desc: "sign out"},
		{Key: "ctrl+c", Desc: "quit"},
	}))
	return b.String()
}

func (m Model) renderVisit(v model.Visit, selected bool) string {
	style := m.theme.ListItem
	if selected {
		style = m.theme.ListItemSelected
	}

	when := v.ScheduledAt.Local().Format("Mon 2 Jan 15:04")
	line := fmt.Sprintf("%s  %s", when, v.Nurse.Name)
	if v.Nurse.Specialization != "" {
		line += "  (" + v.Nurse.Specialization + ")"
	}
	if m.width > 20 {
		line = util.TruncateWidth(line, m.width-20)
	}

	meta := m.theme.ListMeta.Render(statusLabel(v.Status))
	badge := components.AvatarBadge(m.theme, &v.Nurse)
	return badge + " " + style.Render(line) + " " + meta
}

func statusLabel(s model.VisitStatus) string {
	switch s {
	case model.VisitCompleted:
		return "completed"
	case model.VisitCancelled:
		return "cancelled"
	default:
		return "scheduled"
	}
}
