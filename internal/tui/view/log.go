package view

import (
	"fmt"
	"strings"

	"cubectl/internal/logstream"
	"cubectl/internal/tui/design"
	"cubectl/internal/tui/model"
)

// logPanelShare is the fraction of the screen height the log panel uses.
const logPanelShare = 3

// ResizeLogViewport fits the log viewport to the terminal.
func ResizeLogViewport(m *model.Model) {
	width := m.Width - design.AppStyle.GetHorizontalFrameSize() - design.PanelStyle.GetHorizontalFrameSize()
	height := m.Height/logPanelShare - design.PanelStyle.GetVerticalFrameSize() - 1
	if width < design.MinPanelWidth {
		width = design.MinPanelWidth
	}
	if height < 3 {
		height = 3
	}
	m.LogViewport.Width = width
	m.LogViewport.Height = height
	SetLogContent(m)
}

// SetLogContent copies the buffered lines into the viewport, following
// the tail unless the user scrolled up.
func SetLogContent(m *model.Model) {
	lines := make([]string, len(m.LogLines))
	for i, l := range m.LogLines {
		if m.LogViewport.Width > 0 {
			l = truncate(l, m.LogViewport.Width)
		}
		lines[i] = l
	}
	m.LogViewport.SetContent(strings.Join(lines, "\n"))
	if m.LogFollow {
		m.LogViewport.GotoBottom()
	}
}

func renderLogPanel(m *model.Model, width int) string {
	state := string(m.LogState)
	title := design.PanelTitleStyle.Render(IconText(IconScroll, "Logs")) + " " +
		design.GetStateStyle(state).Render(state)
	if m.LogDropped > 0 {
		title += design.TextTertiaryStyle.Render(fmt.Sprintf("  (%d older lines dropped)", m.LogDropped))
	}

	body := m.LogViewport.View()
	if len(m.LogLines) == 0 {
		switch m.LogState {
		case logstream.StateConnecting:
			body = design.TextSecondaryStyle.Render(m.Spinner.View() + " Connecting...")
		case logstream.StateClosed:
			msg := "Log stream closed."
			if m.Logs != nil && m.Logs.LastError() != nil {
				msg = "Log stream unavailable: " + m.Logs.LastError().Error()
			}
			body = design.TextSecondaryStyle.Render(msg)
		default:
			body = design.TextSecondaryStyle.Render("Waiting for log lines...")
		}
	}
	return design.PanelStyle.Width(width - 2).Render(title + "\n" + body)
}
