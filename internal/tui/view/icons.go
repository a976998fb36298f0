package view

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Icon constants
const (
	IconCheck     = "✔"
	IconCross     = "✖"
	IconWarning   = "⚠"
	IconHourglass = "⏳"
	IconPlay      = "▶"
	IconStop      = "⏹"
	IconPause     = "⏸"
	IconLink      = "🔗"
	IconScroll    = "📜"
	IconInfo      = "ℹ"
	IconCube      = "▣"
)

// SafeIcon appends enough spaces after icon that wide glyphs do not
// swallow the following character.
func SafeIcon(icon string) string {
	spaces := 1
	if runewidth.StringWidth(icon) >= 2 {
		spaces = 2
	}
	return icon + strings.Repeat(" ", spaces)
}

// IconText formats an icon followed by text.
func IconText(icon, text string) string {
	return SafeIcon(icon) + text
}

// statusIcon picks the icon shown next to a cube or workspace status.
func statusIcon(status string) string {
	switch status {
	case "running":
		return IconPlay
	case "stopped":
		return IconStop
	case "paused":
		return IconPause
	case "deploying":
		return IconHourglass
	case "partial":
		return IconWarning
	case "error":
		return IconCross
	default:
		return IconInfo
	}
}

// truncate shortens s to at most width cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// pad truncates or right-pads s to exactly width cells.
func pad(s string, width int) string {
	return runewidth.FillRight(truncate(s, width), width)
}
