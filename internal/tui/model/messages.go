package model

import (
	"cubectl/internal/lifecycle"
	"cubectl/internal/orchestrator"
	"cubectl/internal/store"
	"cubectl/pkg/logging"
)

// StoreChangedMsg carries one committed store change.
type StoreChangedMsg struct {
	Event store.ChangeEvent
}

// LogStreamChangedMsg signals new lines or a state change of the log
// session.
type LogStreamChangedMsg struct{}

// NewLogEntryMsg carries an entry for the activity log.
type NewLogEntryMsg struct {
	Entry logging.LogEntry
}

// NoticeMsg carries an action outcome for the status bar.
type NoticeMsg struct {
	Notice orchestrator.Notice
}

// ActionDoneMsg reports that an awaited action returned.
type ActionDoneMsg struct {
	Target orchestrator.Target
	Action lifecycle.Action
	Err    error
}

// RefreshKind names what a refresh loaded.
type RefreshKind string

const (
	RefreshWorkspaces RefreshKind = "workspaces"
	RefreshCubes      RefreshKind = "cubes"
	RefreshCube       RefreshKind = "cube"
)

// RefreshDoneMsg reports the end of a refresh.
type RefreshDoneMsg struct {
	Kind RefreshKind
	ID   string
	Err  error
}

// RefreshTickMsg triggers the periodic refresh.
type RefreshTickMsg struct{}

// OpenURLResultMsg reports the outcome of opening a browser.
type OpenURLResultMsg struct {
	URL string
	Err error
}

// ClearStatusBarMsg clears the transient status bar message.
type ClearStatusBarMsg struct{}
