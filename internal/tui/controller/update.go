package controller

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"cubectl/internal/backend"
	"cubectl/internal/orchestrator"
	"cubectl/internal/session"
	"cubectl/internal/store"
	"cubectl/internal/tui/model"
	"cubectl/internal/tui/view"
	"cubectl/pkg/logging"
)

const controllerSubsystem = "TUI"

// Update routes a message to its handler and returns the follow-up
// commands.
func Update(msg tea.Msg, m *model.Model) (*model.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		view.ResizeLogViewport(m)
		return m, nil

	case tea.KeyMsg:
		return handleKeyMsg(m, msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case model.StoreChangedMsg:
		m.SyncFromStore()
		cmds = append(cmds, model.ListenStoreCmd(m.StoreSub))
		if msg.Event.Kind == store.EventWorkspaceRemoved && msg.Event.EntityID == m.SelectedWorkspaceID {
			m.SelectWorkspace("")
			m.SetPage(session.PageWorkspaceDashboard)
			m.SyncFromStore()
		}

	case model.LogStreamChangedMsg:
		syncLogPanel(m)
		cmds = append(cmds, model.ListenLogStreamCmd(m.LogSignals))

	case model.NewLogEntryMsg:
		handleNewLogEntry(m, msg)
		cmds = append(cmds, model.ListenForLogEntriesCmd(m.LogChannel))

	case model.NoticeMsg:
		cmds = append(cmds, handleNotice(m, msg.Notice))

	case model.ActionDoneMsg:
		m.Pending--
		if m.Pending < 0 {
			m.Pending = 0
		}
		m.SyncFromStore()
		if msg.Err != nil && !backend.IsBackendFailure(msg.Err) {
			// Local rejections produce no notice.
			cmds = append(cmds, m.SetStatusMessage(msg.Err.Error(), model.StatusBarWarning, model.StatusMessageTTL))
		}

	case model.RefreshDoneMsg:
		cmds = append(cmds, handleRefreshDone(m, msg)...)

	case model.RefreshTickMsg:
		if m.Pending == 0 {
			cmds = append(cmds, refreshCurrentPage(m)...)
		}
		cmds = append(cmds, model.RefreshTickCmd(m.RefreshInterval))

	case model.OpenURLResultMsg:
		if msg.Err != nil {
			logging.Error(controllerSubsystem, msg.Err, "Failed to open %s", msg.URL)
			cmds = append(cmds, m.SetStatusMessage("Could not open "+msg.URL, model.StatusBarError, model.StatusMessageTTL))
		} else {
			cmds = append(cmds, m.SetStatusMessage("Opened "+msg.URL, model.StatusBarInfo, model.StatusMessageTTL))
		}

	case model.ClearStatusBarMsg:
		m.StatusBarMessage = ""

	default:
		if m.DebugMode && msg != nil {
			logging.Debug(controllerSubsystem, "Unhandled msg type %T", msg)
		}
	}

	return m, tea.Batch(cmds...)
}

func handleNotice(m *model.Model, n orchestrator.Notice) tea.Cmd {
	if n.Level == orchestrator.NoticeError {
		return m.SetStatusMessage(n.Message, model.StatusBarError, 2*model.StatusMessageTTL)
	}
	return m.SetStatusMessage(n.Message, model.StatusBarSuccess, model.StatusMessageTTL)
}

func handleRefreshDone(m *model.Model, msg model.RefreshDoneMsg) []tea.Cmd {
	m.Pending--
	if m.Pending < 0 {
		m.Pending = 0
	}
	if msg.Err != nil {
		if errors.Is(msg.Err, orchestrator.ErrNotFound) || backend.IsNotFound(msg.Err) {
			m.SyncFromStore()
			return nil
		}
		logging.Warn(controllerSubsystem, "Refreshing %s %s failed: %v", msg.Kind, msg.ID, msg.Err)
		return []tea.Cmd{m.SetStatusMessage(fmt.Sprintf("Could not load %s: %v", msg.Kind, msg.Err), model.StatusBarError, model.StatusMessageTTL)}
	}

	var cmds []tea.Cmd
	if msg.Kind == model.RefreshWorkspaces {
		m.Loaded = true
		if m.SelectedWorkspaceID == "" && len(m.Store.Workspaces()) > 0 {
			m.SelectWorkspace(m.Store.Workspaces()[0].ID)
		}
		if m.SelectedWorkspaceID != "" {
			cmds = append(cmds, m.StartRefresh(model.RefreshCubes, m.SelectedWorkspaceID))
		}
	}
	m.SyncFromStore()
	return cmds
}

// refreshCurrentPage reloads what the current page shows.
func refreshCurrentPage(m *model.Model) []tea.Cmd {
	cmds := []tea.Cmd{m.StartRefresh(model.RefreshWorkspaces, "")}
	if m.Page == session.PageCubeDashboard && m.SelectedCubeID != "" {
		cmds = append(cmds, m.StartRefresh(model.RefreshCube, m.SelectedCubeID))
	}
	return cmds
}

func handleNewLogEntry(m *model.Model, msg model.NewLogEntryMsg) {
	entry := msg.Entry
	if entry.Level >= logging.LevelInfo || m.DebugMode {
		model.AddRawLineToActivityLog(m, entry.Format())
	}
}

// syncLogPanel copies the session's lines and state into the model.
func syncLogPanel(m *model.Model) {
	if m.Logs == nil {
		return
	}
	m.LogState = m.Logs.State()
	m.LogLines = m.Logs.Lines()
	m.LogDropped = m.Logs.Dropped()
	view.SetLogContent(m)
}
