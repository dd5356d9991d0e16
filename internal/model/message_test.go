// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRoleDisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RolePatient, "Patient"},
		{RoleNurse, "Nurse"},
		{Role("ADMIN"), "ADMIN"},
	}
	for _, tt := range tests {
		if got := tt.role.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestRoleValid(t *testing.T) {
	if !RolePatient.Valid() || !RoleNurse.Valid() {
		t.Fatal("known roles should be valid")
	}
	if Role("doctor").Valid() {
		t.Fatal("unknown role should not be valid")
	}
}

func TestMessageSentBy(t *testing.T) {
	m := Message{SenderRole: RoleNurse}
	if !m.SentBy(RoleNurse) {
		t.Fatal("nurse message should read as nurse-sent")
	}
	if m.SentBy(RolePatient) {
		t.Fatal("nurse message should not read as patient-sent")
	}
}

func TestMessageWireFormat(t *testing.T) {
	raw := `{
		"id": "m-1",
		"senderId": "u-2",
		"senderName": "Priya Nair",
		"senderRole": "NURSE",
		"message": "line one\n  line two",
		"timestamp": "2024-01-01T10:00:00Z",
		"read": false
	}`
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.ID != "m-1" || m.SenderRole != RoleNurse {
		t.Fatalf("unexpected message %+v", m)
	}
	if m.Body != "line one\n  line two" {
		t.Fatalf("body whitespace not preserved: %q", m.Body)
	}
	if !m.Timestamp.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("timestamp = %v", m.Timestamp)
	}
}

func TestCounterpartInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Priya Nair", "PN"},
		{"Priya Anne Nair", "PN"},
		{"priya", "P"},
		{"", "?"},
		{"  ", "?"},
	}
	for _, tt := range tests {
		c := Counterpart{Name: tt.name}
		if got := c.Initials(); got != tt.want {
			t.Errorf("Initials(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
