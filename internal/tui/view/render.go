// Package view renders the dashboard model into a string.
package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cubectl/internal/session"
	"cubectl/internal/tui/design"
	"cubectl/internal/tui/model"
)

const (
	// minHeightForActivityLog is the terminal height below which the
	// activity log is hidden.
	minHeightForActivityLog = 30
	activityLogLines        = 5
)

// Render draws the whole screen.
func Render(m *model.Model) string {
	if m.CurrentAppMode == model.ModeQuitting {
		return design.TextSecondaryStyle.Render("Shutting down...")
	}
	if m.Width == 0 || m.Height == 0 {
		return design.TextSecondaryStyle.Render("Initializing... (waiting for window size)")
	}

	contentWidth := m.Width - design.AppStyle.GetHorizontalFrameSize()

	header := renderHeader(m, contentWidth)
	statusBar := renderStatusBar(m, contentWidth)

	var lower []string
	if m.LogPanelVisible {
		lower = append(lower, renderLogPanel(m, contentWidth))
	}
	if m.Height >= minHeightForActivityLog && len(m.ActivityLog) > 0 {
		lower = append(lower, renderActivityLog(m, contentWidth))
	}
	lowerView := lipgloss.JoinVertical(lipgloss.Left, lower...)

	bodyHeight := m.Height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if len(lower) > 0 {
		bodyHeight -= lipgloss.Height(lowerView)
	}
	if bodyHeight < design.MinPanelHeight {
		bodyHeight = design.MinPanelHeight
	}

	var body string
	switch m.CurrentAppMode {
	case model.ModeHelpOverlay:
		body = placeOverlay(contentWidth, bodyHeight, renderHelp(m, contentWidth))
	case model.ModeForm:
		body = placeOverlay(contentWidth, bodyHeight, renderForm(m))
	case model.ModeConfirm:
		body = placeOverlay(contentWidth, bodyHeight, renderConfirm(m))
	default:
		body = renderPage(m, contentWidth, bodyHeight)
	}

	parts := []string{header, body}
	if len(lower) > 0 {
		parts = append(parts, lowerView)
	}
	parts = append(parts, statusBar)
	return design.AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func renderPage(m *model.Model, width, height int) string {
	switch m.Page {
	case session.PageCubes:
		return renderCubesPage(m, width, height)
	case session.PageCubeDashboard:
		return renderCubeDashboard(m, width, height)
	default:
		return renderWorkspacePage(m, width, height)
	}
}

func renderHeader(m *model.Model, width int) string {
	crumbs := []string{"Workspaces"}
	if m.Page != session.PageWorkspaceDashboard {
		name := m.SelectedWorkspaceID
		if w, ok := m.Store.Workspace(m.SelectedWorkspaceID); ok {
			name = w.Name
		}
		crumbs = append(crumbs, name)
	}
	if m.Page == session.PageCubeDashboard && m.HasCube {
		crumbs = append(crumbs, m.Cube.Name)
	}

	title := "cubectl " + strings.Join(crumbs, " › ")
	totals := fmt.Sprintf("%d workspaces · %d cubes · %d running",
		m.Summary.TotalWorkspaces, m.Summary.TotalCubes, m.Summary.TotalRunningCubes)

	gap := width - lipgloss.Width(title) - lipgloss.Width(totals) - 2*design.SpaceSM
	if gap < 1 {
		gap = 1
	}
	line := title + strings.Repeat(" ", gap) + totals
	return design.HeaderStyle.Width(width).Render(truncate(line, width))
}

func renderActivityLog(m *model.Model, width int) string {
	lines := m.ActivityLog
	if len(lines) > activityLogLines {
		lines = lines[len(lines)-activityLogLines:]
	}
	inner := width - design.PanelStyle.GetHorizontalFrameSize()
	out := make([]string, 0, len(lines)+1)
	out = append(out, design.PanelTitleStyle.Render("Activity"))
	for _, l := range lines {
		out = append(out, design.TextSecondaryStyle.Render(truncate(l, inner)))
	}
	return design.PanelStyle.Width(width - 2).Render(strings.Join(out, "\n"))
}

func placeOverlay(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
