// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/carelinkhq/carelink-tui/internal/model"
	"github.com/carelinkhq/carelink-tui/internal/ui/styles"
)

// AvatarBadge renders a counterpart's avatar slot. A terminal cannot
// show the image itself, so a present avatarRef still renders as the
// initials badge; the ref only matters to the web portal. The badge is
// therefore always initials, which doubles as the fallback the portal
// uses when no avatar was uploaded.
func AvatarBadge(theme *styles.Theme, c *model.Counterpart) string {
	return theme.AvatarBadge.Render(c.Initials())
}

// Availability renders the counterpart's presence marker.
func Availability(theme *styles.Theme, c *model.Counterpart) string {
	if c.AvailableNow {
		return theme.AvailableNow.Render(styles.StatusIndicators.Active + " available now")
	}
	return theme.AvailableLater.Render("away")
}
