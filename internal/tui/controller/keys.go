package controller

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"cubectl/internal/lifecycle"
	"cubectl/internal/orchestrator"
	"cubectl/internal/session"
	"cubectl/internal/tui/model"
	"cubectl/internal/tui/view"
)

func handleKeyMsg(m *model.Model, msg tea.KeyMsg) (*model.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return quit(m)
	}

	switch m.CurrentAppMode {
	case model.ModeForm:
		return handleFormKey(m, msg)
	case model.ModeConfirm:
		return handleConfirmKey(m, msg)
	case model.ModeHelpOverlay:
		if key.Matches(msg, m.Keys.Help) || key.Matches(msg, m.Keys.Back) {
			m.CurrentAppMode = m.LastAppMode
		}
		return m, nil
	}

	keys := m.Keys
	switch {
	case key.Matches(msg, keys.Quit):
		return quit(m)

	case key.Matches(msg, keys.Help):
		m.LastAppMode = m.CurrentAppMode
		m.CurrentAppMode = model.ModeHelpOverlay
		return m, nil

	case key.Matches(msg, keys.Up):
		moveCursor(m, -1)
		return m, nil

	case key.Matches(msg, keys.Down):
		moveCursor(m, 1)
		return m, nil

	case key.Matches(msg, keys.Enter):
		return m, drillIn(m)

	case key.Matches(msg, keys.Back):
		goBack(m)
		return m, nil

	case key.Matches(msg, keys.Refresh):
		return m, tea.Batch(refreshCurrentPage(m)...)

	case key.Matches(msg, keys.ToggleLog):
		m.LogPanelVisible = !m.LogPanelVisible
		if m.Logs != nil {
			m.Logs.SetVisible(m.Ctx, m.LogPanelVisible)
		}
		view.ResizeLogViewport(m)
		syncLogPanel(m)
		return m, nil

	case key.Matches(msg, keys.ClearLog):
		if m.Logs != nil {
			m.Logs.Clear()
		}
		syncLogPanel(m)
		return m, nil

	case key.Matches(msg, keys.CopyLogs):
		return m, copyLogs(m)

	case key.Matches(msg, keys.New):
		openCreateForm(m)
		return m, nil

	case key.Matches(msg, keys.Deploy):
		return m, startOnSelection(m, lifecycle.ActionDeploy)

	case key.Matches(msg, keys.Stop):
		return m, startOnSelection(m, lifecycle.ActionStop)

	case key.Matches(msg, keys.Redeploy):
		return m, startOnSelection(m, lifecycle.ActionRedeploy)

	case key.Matches(msg, keys.Delete):
		askDelete(m)
		return m, nil

	case key.Matches(msg, keys.StopAll):
		return m, stopAllCubes(m)

	case key.Matches(msg, keys.Edit):
		openEditForm(m)
		return m, nil

	case key.Matches(msg, keys.Commit):
		openCommitForm(m)
		return m, nil

	case key.Matches(msg, keys.Open):
		return m, openCodeURL(m)
	}

	if m.LogPanelVisible {
		switch msg.String() {
		case "pgup", "pgdown", "home", "end":
			var cmd tea.Cmd
			m.LogViewport, cmd = m.LogViewport.Update(msg)
			m.LogFollow = m.LogViewport.AtBottom()
			return m, cmd
		}
	}
	return m, nil
}

func quit(m *model.Model) (*model.Model, tea.Cmd) {
	m.CurrentAppMode = model.ModeQuitting
	m.QuitApp = true
	m.Shutdown()
	return m, tea.Quit
}

func moveCursor(m *model.Model, delta int) {
	switch m.Page {
	case session.PageWorkspaceDashboard:
		if len(m.Workspaces) == 0 {
			return
		}
		m.WorkspaceCursor = clamp(m.WorkspaceCursor+delta, len(m.Workspaces))
		m.SelectWorkspace(m.Workspaces[m.WorkspaceCursor].ID)
	case session.PageCubes:
		if len(m.Cubes) == 0 {
			return
		}
		m.CubeCursor = clamp(m.CubeCursor+delta, len(m.Cubes))
		m.SelectCube(m.Cubes[m.CubeCursor].ID)
	}
	m.SyncFromStore()
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func drillIn(m *model.Model) tea.Cmd {
	switch m.Page {
	case session.PageWorkspaceDashboard:
		w, ok := m.WorkspaceUnderCursor()
		if !ok {
			return nil
		}
		m.SelectWorkspace(w.ID)
		m.SetPage(session.PageCubes)
		m.SyncFromStore()
		if len(m.Cubes) > 0 && m.SelectedCubeID == "" {
			m.SelectCube(m.Cubes[0].ID)
		}
		return m.StartRefresh(model.RefreshCubes, w.ID)
	case session.PageCubes:
		c, ok := m.CubeUnderCursor()
		if !ok {
			return nil
		}
		m.SelectCube(c.ID)
		m.SetPage(session.PageCubeDashboard)
		m.SyncFromStore()
		return m.StartRefresh(model.RefreshCube, c.ID)
	}
	return nil
}

func goBack(m *model.Model) {
	switch m.Page {
	case session.PageCubeDashboard:
		m.SetPage(session.PageCubes)
	case session.PageCubes:
		m.SetPage(session.PageWorkspaceDashboard)
	}
	m.SyncFromStore()
}

// selectionTarget is the entity the page's actions apply to.
func selectionTarget(m *model.Model) (orchestrator.Target, string, bool) {
	if m.Page == session.PageWorkspaceDashboard {
		w, ok := m.WorkspaceUnderCursor()
		return orchestrator.Workspace(w.ID), w.Name, ok
	}
	c, ok := m.CubeUnderCursor()
	return orchestrator.Cube(c.ID), c.Name, ok
}

// startOnSelection applies the optimistic half of an action and returns
// the command that awaits the backend.
func startOnSelection(m *model.Model, action lifecycle.Action) tea.Cmd {
	target, _, ok := selectionTarget(m)
	if !ok {
		return nil
	}
	return startAction(m, target, action)
}

func startAction(m *model.Model, target orchestrator.Target, action lifecycle.Action) tea.Cmd {
	pending, err := m.Coordinator.Begin(target, action)
	if err != nil {
		return m.SetStatusMessage(err.Error(), model.StatusBarWarning, model.StatusMessageTTL)
	}
	m.Pending++
	m.SyncFromStore()
	return model.AwaitCmd(m.Ctx, pending)
}

func stopAllCubes(m *model.Model) tea.Cmd {
	if m.Page == session.PageCubeDashboard {
		return nil
	}
	wsID := m.SelectedWorkspaceID
	if m.Page == session.PageWorkspaceDashboard {
		w, ok := m.WorkspaceUnderCursor()
		if !ok {
			return nil
		}
		wsID = w.ID
	}
	if wsID == "" {
		return nil
	}
	c := m.Coordinator
	ctx := m.Ctx
	m.Pending++
	return model.RunCmd(orchestrator.Workspace(wsID), lifecycle.ActionStop, func() error {
		_, err := c.StopWorkspaceCubes(ctx, wsID)
		return err
	})
}

func askDelete(m *model.Model) {
	target, name, ok := selectionTarget(m)
	if !ok {
		return
	}
	m.Confirm = &model.Confirmation{
		Target: target,
		Action: lifecycle.ActionDelete,
		Prompt: fmt.Sprintf("Delete %s %q? (y/n)", target.Kind, name),
	}
	m.LastAppMode = m.CurrentAppMode
	m.CurrentAppMode = model.ModeConfirm
}

func handleConfirmKey(m *model.Model, msg tea.KeyMsg) (*model.Model, tea.Cmd) {
	confirm := m.Confirm
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		m.Confirm = nil
		m.CurrentAppMode = model.ModeDashboard
		if confirm == nil {
			return m, nil
		}
		return m, startAction(m, confirm.Target, confirm.Action)
	case "n", "esc", "q":
		m.Confirm = nil
		m.CurrentAppMode = model.ModeDashboard
	}
	return m, nil
}

func copyLogs(m *model.Model) tea.Cmd {
	lines := m.LogLines
	what := "Log stream"
	if !m.LogPanelVisible || len(lines) == 0 {
		lines = m.ActivityLog
		what = "Activity log"
	}
	if err := clipboard.WriteAll(strings.Join(lines, "\n")); err != nil {
		return m.SetStatusMessage("Copy logs failed: "+err.Error(), model.StatusBarError, model.StatusMessageTTL)
	}
	return m.SetStatusMessage(fmt.Sprintf("%s copied to clipboard (%d lines)", what, len(lines)), model.StatusBarSuccess, model.StatusMessageTTL)
}

func openCodeURL(m *model.Model) tea.Cmd {
	if m.Page == session.PageWorkspaceDashboard {
		return nil
	}
	c, ok := m.CubeUnderCursor()
	if !ok {
		return nil
	}
	if !c.IsDevContainer() {
		return m.SetStatusMessage(c.Name+" is not a dev container", model.StatusBarWarning, model.StatusMessageTTL)
	}
	url := c.CodeURL()
	if url == "" {
		return m.SetStatusMessage(c.Name+" has no address yet", model.StatusBarWarning, model.StatusMessageTTL)
	}
	return model.OpenURLCmd(url)
}
