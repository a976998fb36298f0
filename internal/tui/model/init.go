package model

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"cubectl/internal/session"
	"cubectl/pkg/logging"
)

// InitializeModel builds the dashboard model and restores the persisted
// selection.
func InitializeModel(ctx context.Context, deps Deps, logChannel <-chan logging.LogEntry) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := &Model{
		Ctx:             ctx,
		CurrentAppMode:  ModeDashboard,
		DebugMode:       deps.DebugMode,
		BackendURL:      deps.BackendURL,
		Coordinator:     deps.Coordinator,
		Store:           deps.Coordinator.Store(),
		Logs:            deps.Logs,
		Selection:       deps.Selection,
		RefreshInterval: deps.RefreshInterval,
		LogChannel:      logChannel,
		LogViewport:     viewport.New(0, 0),
		LogFollow:       true,
		Spinner:         s,
		Keys:            DefaultKeyMap(),
		Help:            help.New(),
	}
	m.restoreSelection()
	if m.Logs != nil {
		m.LogState = m.Logs.State()
	}
	return m
}

// restoreSelection applies the persisted page and ids. A page whose
// entity id is missing falls back to the nearest page that can render.
func (m *Model) restoreSelection() {
	if m.Selection == nil {
		m.Page = session.PageWorkspaceDashboard
		return
	}
	m.Page = m.Selection.Page()
	m.SelectedWorkspaceID = m.Selection.WorkspaceID()
	m.SelectedCubeID = m.Selection.ContainerID()

	switch m.Page {
	case session.PageImagesList:
		m.Page = session.PageWorkspaceDashboard
	case session.PageCubeDashboard:
		if m.SelectedCubeID == "" {
			m.Page = session.PageCubes
		}
	}
	if m.Page == session.PageCubes && m.SelectedWorkspaceID == "" {
		m.Page = session.PageWorkspaceDashboard
	}
}

// Init starts the listeners and the first load.
func (m *Model) Init() tea.Cmd {
	m.StoreSub = m.Store.Subscribe()
	cmds := []tea.Cmd{
		m.Spinner.Tick,
		ListenStoreCmd(m.StoreSub),
		ListenForLogEntriesCmd(m.LogChannel),
	}
	if m.Logs != nil {
		m.LogSignals, m.StopLogWatch = m.Logs.Watch()
		cmds = append(cmds, ListenLogStreamCmd(m.LogSignals))
	}
	cmds = append(cmds, m.StartRefresh(RefreshWorkspaces, ""))
	if m.Page == session.PageCubeDashboard {
		cmds = append(cmds, m.StartRefresh(RefreshCube, m.SelectedCubeID))
	}
	if m.RefreshInterval > 0 {
		cmds = append(cmds, RefreshTickCmd(m.RefreshInterval))
	}
	return tea.Batch(cmds...)
}

// Shutdown releases listeners and the log connection.
func (m *Model) Shutdown() {
	if m.StopLogWatch != nil {
		m.StopLogWatch()
		m.StopLogWatch = nil
	}
	if m.StoreSub != nil {
		m.Store.Unsubscribe(m.StoreSub)
		m.StoreSub = nil
	}
	if m.Logs != nil {
		m.Logs.Close()
	}
}
