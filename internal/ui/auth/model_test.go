// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/carelinkhq/carelink-tui/internal/api"
	"github.com/carelinkhq/carelink-tui/internal/model"
	"github.com/carelinkhq/carelink-tui/internal/session"
	"github.com/carelinkhq/carelink-tui/internal/ui/styles"
)

func newTestAuth() Model {
	return New(styles.NewTheme(), api.NewClient(&api.ClientConfig{BaseURL: "http://example.invalid"}))
}

func TestModeSwitching(t *testing.T) {
	m := newTestAuth()
	if m.mode != ModeLogin || len(m.fields) != 2 {
		t.Fatalf("initial mode = %v with %d fields", m.mode, len(m.fields))
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.mode != ModeRegister || len(m.fields) != 4 {
		t.Fatalf("after ctrl+r: mode = %v with %d fields", m.mode, len(m.fields))
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.mode != ModeLogin {
		t.Fatalf("ctrl+r did not return to login: %v", m.mode)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	if m.mode != ModeReset || len(m.fields) != 1 {
		t.Fatalf("after ctrl+p: mode = %v with %d fields", m.mode, len(m.fields))
	}
}

func TestSubmitRequiresFields(t *testing.T) {
	m := newTestAuth()
	m.focus = len(m.fields) - 1

	m, cmd := m.submit()
	if cmd != nil {
		t.Fatal("empty form should not fire a request")
	}
	if m.errText == "" {
		t.Error("empty form produced no error text")
	}
}

func TestLoginResultSuccess(t *testing.T) {
	m := newTestAuth()
	m.submitting = true

	cred := &session.Credential{Token: "tok", UserID: "u1"}
	m, cmd := m.Update(loginResultMsg{cred: cred})

	if m.submitting {
		t.Error("submitting flag not cleared")
	}
	if cmd == nil {
		t.Fatal("success produced no command")
	}
	out, ok := cmd().(SignedInMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want SignedInMsg", cmd())
	}
	if out.Cred != cred {
		t.Error("credential not forwarded to root")
	}
}

func TestLoginResultRejected(t *testing.T) {
	m := newTestAuth()
	m.submitting = true

	m, cmd := m.Update(loginResultMsg{err: api.ErrUnauthenticated})
	if cmd != nil {
		t.Fatal("rejection should not emit a command")
	}
	if !strings.Contains(m.errText, "incorrect") {
		t.Errorf("errText = %q", m.errText)
	}
}

func TestRegistrationSuccessReturnsToLogin(t *testing.T) {
	m := newTestAuth()
	m.setMode(ModeRegister)
	m.submitting = true

	m, _ = m.Update(registeredMsg{})
	if m.mode != ModeLogin {
		t.Errorf("mode = %v, want login", m.mode)
	}
	if m.infoText == "" {
		t.Error("no confirmation shown")
	}
}

// Sign-up from this client always enrolls a patient, and the role must
// go over the wire in its canonical spelling so the portal's own
// validation accepts it.
func TestRegistrationSendsCanonicalRole(t *testing.T) {
	var got api.RegistrationForm
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode registration body: %v", err)
		}
		fmt.Fprint(w, `{"success":true}`)
	}))
	t.Cleanup(srv.Close)

	m := New(styles.NewTheme(), api.NewClient(&api.ClientConfig{BaseURL: srv.URL}))
	m.setMode(ModeRegister)
	m.fields[0].input.SetValue("Pat Doe")
	m.fields[1].input.SetValue("pat@example.com")
	m.fields[3].input.SetValue("hunter2hunter2")
	m.focus = len(m.fields) - 1

	m, cmd := m.submit()
	if cmd == nil {
		t.Fatal("complete form fired no request")
	}
	if msg, ok := cmd().(registeredMsg); !ok || msg.err != nil {
		t.Fatalf("registration failed: %+v", msg)
	}

	if got.Role != model.RolePatient {
		t.Errorf("role on the wire = %q, want %q", got.Role, model.RolePatient)
	}
	if !got.Role.Valid() {
		t.Errorf("role %q rejected by its own enum", got.Role)
	}
}

func TestFocusWraps(t *testing.T) {
	m := newTestAuth()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != 1 {
		t.Fatalf("focus = %d, want 1", m.focus)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != 0 {
		t.Fatalf("focus = %d, want 0 (wrap)", m.focus)
	}
}
