// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

func msgAt(id string, ts time.Time) Message {
	return Message{
		ID:         id,
		SenderID:   "nurse-1",
		SenderName: "Priya Nair",
		SenderRole: RoleNurse,
		Body:       "body " + id,
		Timestamp:  ts,
	}
}

func TestTranscriptHistoryThenLive(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	history := []Message{
		msgAt("h1", base),
		msgAt("h2", base.Add(time.Minute)),
		msgAt("h3", base.Add(2*time.Minute)),
	}

	tr := NewTranscript()
	tr.SetHistory(history)

	live := []Message{
		msgAt("l1", base.Add(3*time.Minute)),
		msgAt("l2", base.Add(4*time.Minute)),
	}
	for _, m := range live {
		tr.AppendLive(m)
	}

	if got, want := tr.Len(), len(history)+len(live); got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	msgs := tr.Messages()
	for i, h := range history {
		if msgs[i].ID != h.ID {
			t.Errorf("messages[%d].ID = %q, want history entry %q", i, msgs[i].ID, h.ID)
		}
	}
	for i, l := range live {
		if msgs[len(history)+i].ID != l.ID {
			t.Errorf("live entry %d = %q, want %q", i, msgs[len(history)+i].ID, l.ID)
		}
	}
}

func TestTranscriptNoTimestampResort(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTranscript()
	tr.SetHistory([]Message{msgAt("h1", base.Add(time.Hour))})

	// Live frame carries an older timestamp; it still lands at the end.
	tr.AppendLive(msgAt("l1", base))

	msgs := tr.Messages()
	if msgs[0].ID != "h1" || msgs[1].ID != "l1" {
		t.Fatalf("order = [%s %s], want [h1 l1]", msgs[0].ID, msgs[1].ID)
	}
	if !msgs[1].Timestamp.Before(msgs[0].Timestamp) {
		t.Fatalf("expected %v before %v; arrival order is the contract", msgs[1].Timestamp, msgs[0].Timestamp)
	}
}

func TestTranscriptDuplicateIDsBothKept(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTranscript()
	tr.SetHistory(nil)

	frame := msgAt("dup", base)
	tr.AppendLive(frame)
	tr.AppendLive(frame)

	if tr.Len() != 2 {
		t.Fatalf("Len() = %d after duplicate delivery, want 2", tr.Len())
	}
}

func TestTranscriptSetHistoryAppliesOnce(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTranscript()
	tr.SetHistory([]Message{msgAt("h1", base)})
	tr.AppendLive(msgAt("l1", base.Add(time.Minute)))

	// A second, straggling history response must be ignored.
	tr.SetHistory([]Message{msgAt("h9", base), msgAt("h10", base)})

	if tr.Len() != 2 {
		t.Fatalf("Len() = %d after repeated SetHistory, want 2", tr.Len())
	}
	if tr.HistoryLen() != 1 {
		t.Fatalf("HistoryLen() = %d, want 1", tr.HistoryLen())
	}
}

func TestTranscriptHistoryAfterEarlyFrames(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTranscript()

	// The channel can outrace the history fetch; the backfill still
	// occupies the transcript prefix.
	tr.AppendLive(msgAt("l1", base.Add(time.Minute)))
	tr.SetHistory([]Message{msgAt("h1", base)})

	msgs := tr.Messages()
	if len(msgs) != 2 || msgs[0].ID != "h1" || msgs[1].ID != "l1" {
		t.Fatalf("unexpected order %+v", ids(msgs))
	}
}

func TestTranscriptMessagesIsACopy(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTranscript()
	tr.SetHistory([]Message{msgAt("h1", base)})

	snapshot := tr.Messages()
	tr.AppendLive(msgAt("l1", base))

	if len(snapshot) != 1 {
		t.Fatalf("snapshot grew to %d entries after append", len(snapshot))
	}
}

func TestTranscriptUnreadFrom(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTranscript()
	read := msgAt("h1", base)
	read.Read = true
	tr.SetHistory([]Message{read, msgAt("h2", base)})
	tr.AppendLive(msgAt("l1", base))

	if got := tr.UnreadFrom("nurse-1"); got != 2 {
		t.Fatalf("UnreadFrom = %d, want 2", got)
	}
	if got := tr.UnreadFrom("someone-else"); got != 0 {
		t.Fatalf("UnreadFrom(other) = %d, want 0", got)
	}
}

func ids(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}
