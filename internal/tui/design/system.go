// Package design holds the colors, spacing and base styles of the
// dashboard.
package design

import (
	"github.com/charmbracelet/lipgloss"
)

// Spacing units
const (
	SpaceNone = 0
	SpaceXS   = 1
	SpaceSM   = 2
	SpaceMD   = 3

	MinPanelHeight = 6
	MinPanelWidth  = 20
)

// Color Palette - Semantic colors with consistent light/dark mode support
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}

	ColorSuccess = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#3B82F6"}

	ColorBackground  = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#0F0F0F"}
	ColorSurface     = lipgloss.AdaptiveColor{Light: "#F9FAFB", Dark: "#1A1A1A"}
	ColorSurfaceAlt  = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#262626"}
	ColorBorder      = lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#404040"}
	ColorBorderFocus = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}

	ColorText          = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}
	ColorTextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	ColorTextTertiary  = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}

	ColorHighlight = lipgloss.AdaptiveColor{Light: "#EEF2FF", Dark: "#312E81"}
)

// Text styles
var (
	TextStyle          = lipgloss.NewStyle().Foreground(ColorText)
	TextSecondaryStyle = lipgloss.NewStyle().Foreground(ColorTextSecondary)
	TextTertiaryStyle  = lipgloss.NewStyle().Foreground(ColorTextTertiary)
	TextSuccessStyle   = lipgloss.NewStyle().Foreground(ColorSuccess)
	TextErrorStyle     = lipgloss.NewStyle().Foreground(ColorError)
	TextWarningStyle   = lipgloss.NewStyle().Foreground(ColorWarning)
	TextInfoStyle      = lipgloss.NewStyle().Foreground(ColorInfo)
)

// Component styles
var (
	AppStyle = lipgloss.NewStyle().Padding(0, SpaceXS)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, SpaceXS)

	PanelFocusedStyle = PanelStyle.
				BorderForeground(ColorBorderFocus)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Background(ColorSurface).
			Foreground(ColorText).
			Padding(0, SpaceSM)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorTextSecondary)

	SelectedRowStyle = lipgloss.NewStyle().
				Background(ColorHighlight).
				Foreground(ColorText).
				Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorSurfaceAlt).
			Foreground(ColorText).
			Padding(0, SpaceXS)

	StatusBarSuccessStyle = StatusBarStyle.
				Background(ColorSuccess).
				Foreground(ColorBackground)

	StatusBarErrorStyle = StatusBarStyle.
				Background(ColorError).
				Foreground(ColorBackground)

	StatusBarWarningStyle = StatusBarStyle.
				Background(ColorWarning).
				Foreground(ColorBackground)

	OverlayStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorBorderFocus).
			Padding(SpaceXS, SpaceSM)

	KeyStyle  = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	QuitStyle = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
)

// GetStateStyle returns the text style for a workspace, cube or log
// session state.
func GetStateStyle(state string) lipgloss.Style {
	switch state {
	case "running", "open":
		return TextSuccessStyle
	case "error", "erroring":
		return TextErrorStyle
	case "deploying", "partial", "connecting", "paused":
		return TextWarningStyle
	case "stopped", "closed":
		return TextSecondaryStyle
	default:
		return TextStyle
	}
}

// CenterHorizontal pads content to sit in the middle of width.
func CenterHorizontal(width int, content string) string {
	contentWidth := lipgloss.Width(content)
	if contentWidth >= width {
		return content
	}
	padding := (width - contentWidth) / 2
	return lipgloss.NewStyle().
		PaddingLeft(padding).
		Width(width).
		Render(content)
}

// Initialize sets up the design system
func Initialize(isDarkMode bool) {
	lipgloss.SetHasDarkBackground(isDarkMode)
}
