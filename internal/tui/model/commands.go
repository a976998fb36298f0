package model

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/skratchdot/open-golang/open"

	"cubectl/internal/lifecycle"
	"cubectl/internal/orchestrator"
	"cubectl/internal/store"
	"cubectl/pkg/logging"
)

// ListenStoreCmd waits for the next store change.
func ListenStoreCmd(sub *store.Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-sub.Channel
		if !ok {
			return nil
		}
		return StoreChangedMsg{Event: ev}
	}
}

// ListenLogStreamCmd waits for the next log session signal.
func ListenLogStreamCmd(signals <-chan struct{}) tea.Cmd {
	if signals == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-signals; !ok {
			return nil
		}
		return LogStreamChangedMsg{}
	}
}

// ListenForLogEntriesCmd waits for the next activity log entry.
func ListenForLogEntriesCmd(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return NewLogEntryMsg{Entry: entry}
	}
}

// AwaitCmd completes a begun action off the UI goroutine.
func AwaitCmd(ctx context.Context, p *orchestrator.Pending) tea.Cmd {
	return func() tea.Msg {
		err := p.Await(ctx)
		return ActionDoneMsg{Target: p.Target(), Action: p.Action(), Err: err}
	}
}

// RunCmd runs fn off the UI goroutine and reports it as an action.
func RunCmd(target orchestrator.Target, action lifecycle.Action, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return ActionDoneMsg{Target: target, Action: action, Err: fn()}
	}
}

// RefreshTickCmd fires one RefreshTickMsg after interval.
func RefreshTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg { return RefreshTickMsg{} })
}

// OpenURLCmd opens url in the default browser.
func OpenURLCmd(url string) tea.Cmd {
	return func() tea.Msg {
		return OpenURLResultMsg{URL: url, Err: open.Run(url)}
	}
}

// StartRefresh counts a refresh as pending and returns the command that
// performs it.
func (m *Model) StartRefresh(kind RefreshKind, id string) tea.Cmd {
	c := m.Coordinator
	ctx := m.Ctx
	var fn func() error
	switch kind {
	case RefreshWorkspaces:
		fn = func() error { return c.RefreshWorkspaces(ctx) }
	case RefreshCubes:
		if id == "" {
			return nil
		}
		fn = func() error { return c.RefreshCubes(ctx, id) }
	case RefreshCube:
		if id == "" {
			return nil
		}
		fn = func() error {
			_, err := c.RefreshCube(ctx, id)
			return err
		}
	default:
		return nil
	}
	m.Pending++
	return func() tea.Msg {
		return RefreshDoneMsg{Kind: kind, ID: id, Err: fn()}
	}
}
