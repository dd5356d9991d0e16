// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides shared UI widgets for the carelink TUI.
//
// Toasts are non-blocking corner notifications that auto-dismiss. Load
// failures surface here so the chat view can keep working with empty
// placeholders underneath.
package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/carelinkhq/carelink-tui/internal/ui/styles"
)

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	// ToastKindInfo is an informational toast
	ToastKindInfo ToastKind = iota
	// ToastKindError is an error toast
	ToastKindError
	// ToastKindWarning is a warning toast
	ToastKindWarning
)

// DefaultToastDuration is the auto-dismiss duration for info toasts.
const DefaultToastDuration = 4 * time.Second

// ErrorToastDuration is the auto-dismiss duration for error toasts.
const ErrorToastDuration = 8 * time.Second

// Toast is one non-blocking notification.
type Toast struct {
	ID        string
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// NewErrorToast creates an error toast.
func NewErrorToast(message string) Toast {
	return Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      ToastKindError,
		CreatedAt: time.Now(),
		Duration:  ErrorToastDuration,
	}
}

// NewInfoToast creates an informational toast.
func NewInfoToast(message string) Toast {
	return Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      ToastKindInfo,
		CreatedAt: time.Now(),
		Duration:  DefaultToastDuration,
	}
}

// NewWarningToast creates a warning toast.
func NewWarningToast(message string) Toast {
	return Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      ToastKindWarning,
		CreatedAt: time.Now(),
		Duration:  DefaultToastDuration,
	}
}

// Expired reports whether the toast should be dismissed.
func (t Toast) Expired(now time.Time) bool {
	return now.After(t.CreatedAt.Add(t.Duration))
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastExpiredMsg asks the manager to sweep expired toasts.
type ToastExpiredMsg struct{}

// ToastManager owns the active toasts. It is embedded in view models
// and driven entirely from the update loop; no locking needed.
type ToastManager struct {
	toasts []Toast
	theme  *styles.Theme
}

// NewToastManager creates an empty manager.
func NewToastManager(theme *styles.Theme) *ToastManager {
	return &ToastManager{theme: theme}
}

// Push adds a toast and schedules its expiry sweep.
func (m *ToastManager) Push(t Toast) tea.Cmd {
	m.toasts = append(m.toasts, t)
	return tea.Tick(t.Duration, func(time.Time) tea.Msg {
		return ToastExpiredMsg{}
	})
}

// Sweep drops expired toasts.
func (m *ToastManager) Sweep(now time.Time) {
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.Expired(now) {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

// Active returns the live toasts, oldest first.
func (m *ToastManager) Active() []Toast {
	return m.toasts
}

// View renders the toast stack, one per line.
func (m *ToastManager) View() string {
	if len(m.toasts) == 0 {
		return ""
	}
	var out string
	for i, t := range m.toasts {
		if i > 0 {
			out += "\n"
		}
		switch t.Kind {
		case ToastKindError:
			out += m.theme.ToastError.Render(styles.StatusIndicators.Error + " " + t.Message)
		case ToastKindWarning:
			out += m.theme.ToastInfo.Render(styles.StatusIndicators.Warning + " " + t.Message)
		default:
			out += m.theme.ToastInfo.Render(styles.StatusIndicators.Info + " " + t.Message)
		}
	}
	return out
}
