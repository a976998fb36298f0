package model

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"cubectl/internal/lifecycle"
	"cubectl/internal/logstream"
	"cubectl/internal/orchestrator"
	"cubectl/internal/session"
	"cubectl/internal/store"
	"cubectl/pkg/logging"
)

// AppMode represents the current mode of the application
type AppMode int

const (
	ModeDashboard AppMode = iota
	ModeHelpOverlay
	ModeForm
	ModeConfirm
	ModeQuitting
)

// String provides a human-readable representation of the AppMode.
func (m AppMode) String() string {
	switch m {
	case ModeDashboard:
		return "Dashboard"
	case ModeHelpOverlay:
		return "HelpOverlay"
	case ModeForm:
		return "Form"
	case ModeConfirm:
		return "Confirm"
	case ModeQuitting:
		return "Quitting"
	default:
		return "Unknown"
	}
}

// MessageType represents the type of status bar message
type MessageType int

const (
	StatusBarInfo MessageType = iota
	StatusBarSuccess
	StatusBarError
	StatusBarWarning
)

// Constants for UI
const (
	MaxActivityLogLines = 1000
	StatusMessageTTL    = 4 * time.Second
)

// Deps are the services the dashboard drives.
type Deps struct {
	Coordinator     *orchestrator.Coordinator
	Logs            *logstream.Session
	Selection       *session.Context
	BackendURL      string
	RefreshInterval time.Duration
	DebugMode       bool
}

// Confirmation is a pending yes/no question for a destructive action.
type Confirmation struct {
	Target orchestrator.Target
	Action lifecycle.Action
	Prompt string
}

// Model is the state of the dashboard.
type Model struct {
	// Terminal dimensions
	Width  int
	Height int

	Ctx            context.Context
	CurrentAppMode AppMode
	LastAppMode    AppMode
	DebugMode      bool
	BackendURL     string
	QuitApp        bool

	// Services
	Coordinator     *orchestrator.Coordinator
	Store           *store.Store
	Logs            *logstream.Session
	Selection       *session.Context
	RefreshInterval time.Duration

	// Navigation
	Page                session.Page
	SelectedWorkspaceID string
	SelectedCubeID      string
	WorkspaceCursor     int
	CubeCursor          int

	// Snapshots of the store for rendering
	Workspaces []store.Workspace
	Summary    store.Summary
	Cubes      []store.Cube
	Cube       store.Cube
	HasCube    bool

	// Backend calls started by the dashboard that have not returned
	Pending int
	Loaded  bool

	// Log stream panel
	LogPanelVisible bool
	LogLines        []string
	LogState        logstream.State
	LogDropped      uint64
	LogViewport     viewport.Model
	LogFollow       bool

	// Activity log fed by pkg/logging
	ActivityLog      []string
	ActivityLogDirty bool
	LogChannel       <-chan logging.LogEntry

	// Overlays
	Form    *Form
	Confirm *Confirmation

	// Status bar
	StatusBarMessage     string
	StatusBarMessageType MessageType
	StatusBarClearCancel chan struct{}

	// Subscriptions
	StoreSub     *store.Subscription
	LogSignals   <-chan struct{}
	StopLogWatch func()

	Spinner spinner.Model
	Keys    KeyMap
	Help    help.Model
}

// SetStatusMessage shows message in the status bar and clears it after
// clearAfter unless a newer message replaced it.
func (m *Model) SetStatusMessage(message string, msgType MessageType, clearAfter time.Duration) tea.Cmd {
	m.StatusBarMessage = message
	m.StatusBarMessageType = msgType

	if m.StatusBarClearCancel != nil {
		close(m.StatusBarClearCancel)
	}

	m.StatusBarClearCancel = make(chan struct{})
	captured := m.StatusBarClearCancel

	return tea.Tick(clearAfter, func(t time.Time) tea.Msg {
		select {
		case <-captured:
			return nil
		default:
			return ClearStatusBarMsg{}
		}
	})
}

// IsLoading reports whether a dashboard-initiated backend call is running.
func (m *Model) IsLoading() bool {
	return m.Pending > 0
}
