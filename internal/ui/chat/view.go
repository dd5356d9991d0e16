// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/carelinkhq/carelink-tui/internal/model"
	"github.com/carelinkhq/carelink-tui/internal/ui/components"
)

// bubbleGutter keeps the far edge of an aligned bubble off the
// terminal border.
const bubbleGutter = 4

// View renders the conversation.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.theme.InputContainer.Width(max(m.width-2, 20)).Render(m.input.View()))
	b.WriteString("\n")
	left := components.ChannelStateLabel(m.theme, m.ChannelState())
	if n := m.transcript.UnreadFrom(m.counterpart.ID); n > 0 {
		left += m.theme.MessageMeta.Render(fmt.Sprintf("  %d unread", n))
	}
	b.WriteString(components.StatusBar(m.theme, m.width, left,
		[]components.Shortcut{
			{Key: "enter", Desc: "send"},
			{Key: "esc", Desc: "back"},
		}))

	if toasts := m.toasts.View(); toasts != "" {
		b.WriteString("\n")
		b.WriteString(toasts)
	}
	return b.String()
}

func (m Model) renderHeader() string {
	badge := components.AvatarBadge(m.theme, &m.counterpart)
	name := m.counterpart.Name
	if name == "" {
		name = "Loading..."
	}
	title := m.theme.HeaderTitle.Render(name)
	var sub string
	if m.counterpart.Specialization != "" {
		sub = m.theme.HeaderSubtitle.Render(m.counterpart.Specialization)
	}
	avail := components.Availability(m.theme, &m.counterpart)

	parts := []string{badge, " ", title}
	if sub != "" {
		parts = append(parts, "  ", sub)
	}
	parts = append(parts, "  ", avail)
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

// refreshViewport re-renders the transcript into the viewport and
// pins the scroll position to the newest message.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// renderTranscript renders the date-grouped transcript. Groups follow
// arrival order, so reading the rendered output top to bottom walks
// the transcript exactly as it was received.
func (m Model) renderTranscript() string {
	msgs := m.transcript.Messages()
	if len(msgs) == 0 {
		if m.transcript.HistoryLoaded() {
			return m.theme.MessageMeta.Render("No messages yet. Say hello!")
		}
		return m.theme.MessageMeta.Render(m.spinner.View() + " Loading conversation...")
	}

	width := max(m.viewport.Width, 20)

	// A divider separates the HTTP backfill from frames that arrived
	// live, so reopening a busy conversation shows where to pick up.
	divider := m.transcript.HistoryLen()
	markDivider := divider > 0 && divider < len(msgs)

	var b strings.Builder
	rendered := 0
	for _, group := range model.GroupByDate(msgs, m.labeler) {
		b.WriteString(m.theme.DateHeading.Width(width).Render(group.Label))
		b.WriteString("\n")
		for _, msg := range group.Messages {
			if markDivider && rendered == divider {
				b.WriteString(m.theme.DateHeading.Width(width).Render("New messages"))
				b.WriteString("\n")
			}
			b.WriteString(m.renderMessage(msg, width))
			b.WriteString("\n")
			rendered++
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderMessage renders one bubble. The viewer's own messages hug the
// right edge; the counterpart's hug the left. Bodies render verbatim,
// whitespace and all.
func (m Model) renderMessage(msg model.Message, width int) string {
	own := msg.SentBy(m.cred.Role)

	style := m.theme.NurseBubble
	if msg.SenderRole == model.RolePatient {
		style = m.theme.PatientBubble
	}

	maxBubble := max(width*3/4, 16)
	bubble := style.MaxWidth(maxBubble).Render(msg.Body)

	var meta string
	if m.showTimestamps && !msg.Timestamp.IsZero() {
		meta = m.theme.MessageMeta.Render(msg.Timestamp.Local().Format("15:04"))
	}

	block := bubble
	if meta != "" {
		metaLine := meta
		if own {
			pad := lipgloss.Width(bubble) - lipgloss.Width(meta)
			if pad > 0 {
				metaLine = strings.Repeat(" ", pad) + meta
			}
		}
		block = fmt.Sprintf("%s\n%s", bubble, metaLine)
	}

	if own {
		margin := width - lipgloss.Width(bubble) - bubbleGutter
		if margin > 0 {
			return lipgloss.NewStyle().MarginLeft(margin).Render(block)
		}
	}
	return block
}
