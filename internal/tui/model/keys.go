package model

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all the key bindings for the application
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Enter     key.Binding
	Back      key.Binding
	New       key.Binding
	Deploy    key.Binding
	Stop      key.Binding
	Redeploy  key.Binding
	Delete    key.Binding
	StopAll   key.Binding
	Edit      key.Binding
	Commit    key.Binding
	Open      key.Binding
	Refresh   key.Binding
	ToggleLog key.Binding
	ClearLog  key.Binding
	CopyLogs  key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Deploy:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "deploy")),
		Stop:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Redeploy:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "redeploy")),
		Delete:    key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		StopAll:   key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "stop all cubes")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Commit:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "commit")),
		Open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open code URL")),
		Refresh:   key.NewBinding(key.WithKeys("R", "ctrl+r"), key.WithHelp("R", "refresh")),
		ToggleLog: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logs")),
		ClearLog:  key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear logs")),
		CopyLogs:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy logs")),
		Help:      key.NewBinding(key.WithKeys("?", "h"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Back, k.Deploy, k.Stop, k.ToggleLog, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back, k.Refresh},
		{k.New, k.Deploy, k.Stop, k.Redeploy, k.Delete, k.StopAll},
		{k.Edit, k.Commit, k.Open},
		{k.ToggleLog, k.ClearLog, k.CopyLogs, k.Help, k.Quit},
	}
}
