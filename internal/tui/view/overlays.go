package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cubectl/internal/tui/design"
	"cubectl/internal/tui/model"
)

func renderHelp(m *model.Model, width int) string {
	h := m.Help
	h.ShowAll = true
	h.Width = width - design.OverlayStyle.GetHorizontalFrameSize()
	content := design.PanelTitleStyle.Render("Key bindings") + "\n\n" +
		h.FullHelpView(m.Keys.FullHelp()) + "\n\n" +
		design.TextTertiaryStyle.Render("press ? or esc to close")
	return design.OverlayStyle.Render(content)
}

func renderForm(m *model.Model) string {
	f := m.Form
	if f == nil {
		return ""
	}
	labelWidth := 0
	for _, l := range f.Labels {
		if w := lipgloss.Width(l); w > labelWidth {
			labelWidth = w
		}
	}

	lines := []string{design.PanelTitleStyle.Render(f.Title), ""}
	for i, in := range f.Inputs {
		label := pad(f.Labels[i], labelWidth)
		if i == f.Focus {
			label = design.KeyStyle.Render(label)
		} else {
			label = design.TextSecondaryStyle.Render(label)
		}
		lines = append(lines, label+"  "+in.View())
	}
	if f.Err != "" {
		lines = append(lines, "", design.TextErrorStyle.Render(IconText(IconCross, f.Err)))
	}
	lines = append(lines, "", design.TextTertiaryStyle.Render("tab next · enter submit · esc cancel"))
	return design.OverlayStyle.Render(strings.Join(lines, "\n"))
}

func renderConfirm(m *model.Model) string {
	if m.Confirm == nil {
		return ""
	}
	content := design.TextWarningStyle.Render(IconText(IconWarning, m.Confirm.Prompt))
	return design.OverlayStyle.Render(content)
}
