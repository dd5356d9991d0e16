// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the TUI.
//
// This file defines all Bubble Tea message types used by the chat
// interface. Messages are organized into the following categories:
//   - Loading: counterpart profile and message history results
//   - Channel: dial results, inbound frames, failure and close events
//   - Navigation: exits back to the login or visits views
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"github.com/carelinkhq/carelink-tui/internal/channel"
	"github.com/carelinkhq/carelink-tui/internal/model"
)

// =============================================================================
// LOADING MESSAGES
// =============================================================================

// ProfileLoadedMsg delivers the counterpart profile fetch result. On
// error the view keeps its placeholder header; the error is shown as a
// toast, never as a modal.
type ProfileLoadedMsg struct {
	Counterpart *model.Counterpart
	Err         error
}

// HistoryLoadedMsg delivers the message history fetch result. On error
// the transcript backfill is empty; live frames still append.
type HistoryLoadedMsg struct {
	Messages []model.Message
	Err      error
}

// =============================================================================
// CHANNEL MESSAGES
// =============================================================================

// ChannelReadyMsg reports the dial outcome. On success Ch is OPEN with
// its read loop running; on failure Ch is FAILED and Err says why.
type ChannelReadyMsg struct {
	Ch  *channel.Channel
	Err error
}

// InboundFrameMsg carries one well-formed frame off the live channel.
// Frames arrive in receipt order and are appended unconditionally.
type InboundFrameMsg struct {
	Message model.Message
}

// FrameDroppedMsg reports a malformed frame. The channel stays open;
// nothing is shown to the user.
type FrameDroppedMsg struct {
	Err error
}

// ChannelFailedMsg reports a transport failure. The channel is FAILED
// for good; sends stay suppressed until the view is reopened.
type ChannelFailedMsg struct {
	Err error
}

// ChannelClosedMsg reports a server-initiated close.
type ChannelClosedMsg struct{}

// =============================================================================
// NAVIGATION MESSAGES
// =============================================================================

// UnauthenticatedMsg tells the root model to drop to the login view.
// Emitted when the credential is absent at open or rejected mid-fetch.
type UnauthenticatedMsg struct{}

// ExitMsg tells the root model the user is navigating away; the root
// tears this view down.
type ExitMsg struct{}
