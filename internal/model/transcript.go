// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Transcript is the append-only message store backing one open
// conversation view. Messages are kept strictly in arrival order:
// history first, then live frames in receipt order. The store never
// deduplicates by ID and never re-sorts by timestamp, so a burst of
// frames carrying stale timestamps still lands at the end. The
// transcript lives and dies with the view; closing the conversation
// discards it.
type Transcript struct {
	messages   []Message
	historyLen int
	historySet bool
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// SetHistory installs the backfill fetched over HTTP, preserving the
// order the server returned. It applies at most once per transcript;
// later calls are ignored so a straggling history response can never
// clobber live frames that already arrived.
func (t *Transcript) SetHistory(msgs []Message) {
	if t.historySet {
		return
	}
	t.historySet = true
	t.historyLen = len(msgs)
	if len(msgs) == 0 {
		return
	}
	merged := make([]Message, 0, len(msgs)+len(t.messages))
	merged = append(merged, msgs...)
	merged = append(merged, t.messages...)
	t.messages = merged
}

// AppendLive adds one inbound frame at the end of the transcript.
func (t *Transcript) AppendLive(msg Message) {
	t.messages = append(t.messages, msg)
}

// Messages returns the transcript in order. The returned slice is a
// copy; callers may hold it across appends.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages currently held.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// HistoryLen returns how many of the leading messages came from the
// history backfill. Zero until SetHistory has run.
func (t *Transcript) HistoryLen() int {
	return t.historyLen
}

// HistoryLoaded reports whether SetHistory has been applied.
func (t *Transcript) HistoryLoaded() bool {
	return t.historySet
}

// UnreadFrom counts messages from the given sender that are not yet
// marked read. The flag is carried from the wire as-is; the client
// never writes it back.
func (t *Transcript) UnreadFrom(senderID string) int {
	n := 0
	for i := range t.messages {
		if t.messages[i].SenderID == senderID && !t.messages[i].Read {
			n++
		}
	}
	return n
}
