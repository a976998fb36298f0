package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cubectl/internal/store"
	"cubectl/internal/tui/design"
	"cubectl/internal/tui/model"
)

type column struct {
	title string
	width int
}

func renderRow(cols []column, cells []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = pad(cell, c.width)
	}
	return strings.Join(parts, " ")
}

func renderHeaderRow(cols []column) string {
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
	}
	return design.TableHeaderStyle.Render(renderRow(cols, titles))
}

// visibleWindow returns the [start, end) rows to draw so that cursor
// stays on screen.
func visibleWindow(cursor, total, rows int) (int, int) {
	if rows <= 0 || total <= rows {
		return 0, total
	}
	start := cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > total {
		start = total - rows
	}
	return start, start + rows
}

func panel(title string, width, height int, body string) string {
	content := design.PanelTitleStyle.Render(title) + "\n" + body
	return design.PanelFocusedStyle.
		Width(width - 2).
		Height(height - 2).
		Render(content)
}

func workspaceColumns(width int) []column {
	cols := []column{
		{"NAME", 20},
		{"STATUS", 12},
		{"CUBES", 9},
		{"CREATED", 11},
	}
	used := 0
	for _, c := range cols {
		used += c.width + 1
	}
	desc := width - used
	if desc < 10 {
		desc = 10
	}
	return append(cols, column{"DESCRIPTION", desc})
}

func workspaceCells(w store.Workspace) []string {
	status := string(w.Status())
	return []string{
		w.Name,
		IconText(statusIcon(status), status),
		fmt.Sprintf("%d/%d", w.RunningContainers, w.TotalContainers),
		w.CreatedDate(),
		w.Description,
	}
}

func renderWorkspacePage(m *model.Model, width, height int) string {
	inner := width - design.PanelFocusedStyle.GetHorizontalFrameSize()
	cols := workspaceColumns(inner)

	var lines []string
	lines = append(lines, renderHeaderRow(cols))
	switch {
	case len(m.Workspaces) == 0 && !m.Loaded:
		lines = append(lines, design.TextSecondaryStyle.Render(m.Spinner.View()+" Loading workspaces..."))
	case len(m.Workspaces) == 0:
		lines = append(lines, design.TextSecondaryStyle.Render("No workspaces yet. Press n to create one."))
	default:
		rows := height - 5
		start, end := visibleWindow(m.WorkspaceCursor, len(m.Workspaces), rows)
		for i := start; i < end; i++ {
			w := m.Workspaces[i]
			lines = append(lines, styleRow(renderRow(cols, workspaceCells(w)), i == m.WorkspaceCursor, string(w.Status()), w.LastError != ""))
		}
	}
	if w, ok := m.WorkspaceUnderCursor(); ok && w.LastError != "" {
		lines = append(lines, design.TextErrorStyle.Render(truncate(IconText(IconCross, w.LastError), inner)))
	}
	return panel("Workspaces", width, height, strings.Join(lines, "\n"))
}

func cubeColumns(width int) []column {
	cols := []column{
		{"NAME", 18},
		{"STATUS", 13},
		{"IP", 15},
	}
	used := 0
	for _, c := range cols {
		used += c.width + 1
	}
	img := width - used
	if img < 10 {
		img = 10
	}
	return append(cols, column{"IMAGE", img})
}

func cubeCells(c store.Cube) []string {
	status := string(c.Status)
	ip := c.IPAddress
	if ip == "" {
		ip = "N/A"
	}
	return []string{c.Name, IconText(statusIcon(status), status), ip, c.Image}
}

func renderCubesPage(m *model.Model, width, height int) string {
	inner := width - design.PanelFocusedStyle.GetHorizontalFrameSize()
	cols := cubeColumns(inner)

	title := "Cubes"
	if w, ok := m.Store.Workspace(m.SelectedWorkspaceID); ok {
		title = fmt.Sprintf("Cubes in %s (%d/%d running)", w.Name, w.RunningContainers, w.TotalContainers)
	}

	var lines []string
	lines = append(lines, renderHeaderRow(cols))
	if len(m.Cubes) == 0 {
		lines = append(lines, design.TextSecondaryStyle.Render("No cubes in this workspace. Press n to create one."))
	} else {
		rows := height - 5
		start, end := visibleWindow(m.CubeCursor, len(m.Cubes), rows)
		for i := start; i < end; i++ {
			c := m.Cubes[i]
			lines = append(lines, styleRow(renderRow(cols, cubeCells(c)), i == m.CubeCursor, string(c.Status), c.LastError != ""))
		}
	}
	if c, ok := m.CubeUnderCursor(); ok && c.LastError != "" {
		lines = append(lines, design.TextErrorStyle.Render(truncate(IconText(IconCross, c.LastError), inner)))
	}
	return panel(title, width, height, strings.Join(lines, "\n"))
}

func styleRow(row string, selected bool, status string, failed bool) string {
	if selected {
		return design.SelectedRowStyle.Render(row)
	}
	if failed {
		return design.TextErrorStyle.Render(row)
	}
	return design.GetStateStyle(status).Render(row)
}

// renderCubeDashboard shows the full configuration of the open cube.
func renderCubeDashboard(m *model.Model, width, height int) string {
	if !m.HasCube {
		return panel("Cube", width, height, design.TextSecondaryStyle.Render(m.Spinner.View()+" Loading cube..."))
	}
	c := m.Cube
	inner := width - design.PanelFocusedStyle.GetHorizontalFrameSize()
	label := func(s string) string { return design.TableHeaderStyle.Render(pad(s, 14)) }
	value := func(s string) string {
		if s == "" {
			s = "-"
		}
		return truncate(s, inner-15)
	}

	status := string(c.Status)
	lines := []string{
		label("Name") + " " + value(c.Name),
		label("Status") + " " + design.GetStateStyle(status).Render(IconText(statusIcon(status), status)),
		label("Image") + " " + value(c.Image),
		label("Service") + " " + value(c.ServiceName),
		label("IP address") + " " + value(c.IPAddress),
		label("Ports") + " " + value(strings.Join(c.Ports, ", ")),
		label("Networks") + " " + value(strings.Join(c.Networks, ", ")),
		label("Environment") + " " + value(strings.Join(c.EnvVars, ", ")),
		label("Volumes") + " " + value(formatVolumes(c.Volumes)),
		label("Labels") + " " + value(strings.Join(c.Labels, ", ")),
		label("Limits") + " " + value(formatLimits(c.ResourceLimits)),
	}
	if c.IsDevContainer() {
		url := c.CodeURL()
		if url == "" {
			url = "available once deployed"
		}
		lines = append(lines, label("Code")+" "+design.TextInfoStyle.Render(IconText(IconLink, url)))
	}
	if c.LastError != "" {
		lines = append(lines, "", design.TextErrorStyle.Render(truncate(IconText(IconCross, c.LastError), inner)))
	}
	if !c.Detailed {
		lines = append(lines, "", design.TextTertiaryStyle.Render("Loading full configuration..."))
	}
	body := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return panel(IconText(IconCube, c.Name), width, height, body)
}

func formatVolumes(v map[string]string) string {
	parts := make([]string, 0, len(v))
	for _, k := range sortedKeys(v) {
		parts = append(parts, k+":"+v[k])
	}
	return strings.Join(parts, ", ")
}

func formatLimits(l store.ResourceLimits) string {
	var parts []string
	if l.CPUs != "" {
		parts = append(parts, "cpus "+l.CPUs)
	}
	if l.Memory != "" {
		parts = append(parts, "memory "+l.Memory)
	}
	if l.Swap != "" {
		parts = append(parts, "swap "+l.Swap)
	}
	return strings.Join(parts, ", ")
}
