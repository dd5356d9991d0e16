// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the domain types for the care portal client.
//
// This package defines the types shared across the API client, the live
// channel and the UI: messages, counterparts, visits, the per-view
// transcript store and the date grouper used to render day headings.
//
// # Key Types
//
//   - Message: one chat message as carried on the wire
//   - Counterpart: the person on the other side of a conversation
//   - Transcript: append-only, arrival-ordered message store for one view
//   - DateGroup / GroupByDate: partition of a transcript by calendar day
//   - Visit: a scheduled appointment
//
// # Usage
//
// Build a transcript for a freshly opened conversation:
//
//	t := model.NewTranscript()
//	t.SetHistory(history)
//	t.AppendLive(frame)
//
// Group for rendering:
//
//	labeler := model.NewDateLabeler(time.Now(), cfg.Locale)
//	groups := model.GroupByDate(t.Messages(), labeler)
package model
