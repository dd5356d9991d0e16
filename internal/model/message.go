// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts, messages,
// counterparts and visits.
package model

import (
	"strings"
	"time"
)

// Role identifies which side of a conversation a sender belongs to.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleNurse   Role = "NURSE"
)

// DisplayName returns a human-readable label for the role.
func (r Role) DisplayName() string {
	switch r {
	case RolePatient:
		return "Patient"
	case RoleNurse:
		return "Nurse"
	default:
		return string(r)
	}
}

// Valid reports whether the role is one of the two known roles.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleNurse
}

// Message is a single chat message as carried on the wire. The body is
// plain text: it is rendered with whitespace preserved and is never
// interpreted as markup.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	SenderRole Role      `json:"senderRole"`
	Body       string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Read       bool      `json:"read"`
}

// SentBy reports whether the message was authored by the side the given
// role represents. Rendering alignment keys off the sender's role, not
// off author identity.
func (m *Message) SentBy(r Role) bool {
	return m.SenderRole == r
}

// Counterpart is the person on the other side of a conversation. It is
// loaded once per view and treated as immutable until the view is
// reopened.
type Counterpart struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	AvatarRef      string `json:"avatar"`
	AvailableNow   bool   `json:"availableNow"`
}

// Initials derives a one- or two-letter badge from the counterpart's
// name, used when AvatarRef is empty.
func (c *Counterpart) Initials() string {
	fields := strings.Fields(c.Name)
	switch len(fields) {
	case 0:
		return "?"
	case 1:
		return strings.ToUpper(firstRune(fields[0]))
	default:
		return strings.ToUpper(firstRune(fields[0]) + firstRune(fields[len(fields)-1]))
	}
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// VisitStatus is the lifecycle state of a scheduled visit.
type VisitStatus string

const (
	VisitScheduled VisitStatus = "SCHEDULED"
	VisitCompleted VisitStatus = "COMPLETED"
	VisitCancelled VisitStatus = "CANCELLED"
)

// Visit is a scheduled appointment between a patient and a nurse.
type Visit struct {
	ID          string      `json:"id"`
	Nurse       Counterpart `json:"nurse"`
	ScheduledAt time.Time   `json:"scheduledAt"`
	Status      VisitStatus `json:"status"`
	Notes       string      `json:"notes"`
}
