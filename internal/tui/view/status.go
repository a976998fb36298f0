package view

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"cubectl/internal/tui/design"
	"cubectl/internal/tui/model"
)

func renderStatusBar(m *model.Model, width int) string {
	style := design.StatusBarStyle
	switch m.StatusBarMessageType {
	case model.StatusBarSuccess:
		style = design.StatusBarSuccessStyle
	case model.StatusBarError:
		style = design.StatusBarErrorStyle
	case model.StatusBarWarning:
		style = design.StatusBarWarningStyle
	}

	left := IconText(IconCheck, "idle")
	if m.IsLoading() {
		left = m.Spinner.View() + " working"
	}

	center := m.StatusBarMessage
	if center == "" {
		center = m.Help.ShortHelpView(m.Keys.ShortHelp())
		style = design.StatusBarStyle
	}

	right := m.BackendURL
	if m.LogPanelVisible {
		right = fmt.Sprintf("logs: %s  %s", m.LogState, right)
	}

	leftW := lipgloss.Width(left) + 2
	rightW := lipgloss.Width(right) + 2
	centerW := width - leftW - rightW
	if centerW < 0 {
		right, rightW = "", 0
		centerW = max(width-leftW, 0)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		design.StatusBarStyle.Width(leftW).Render(left),
		style.Width(centerW).Render(truncate(center, centerW-2)),
		design.StatusBarStyle.Width(rightW).Render(right),
	)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
