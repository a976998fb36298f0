package controller

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"cubectl/internal/tui/model"
	"cubectl/internal/tui/view"
	"cubectl/pkg/logging"
)

// dashboard adapts the pointer model to tea.Model.
type dashboard struct {
	m *model.Model
}

func (d dashboard) Init() tea.Cmd { return d.m.Init() }

func (d dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	d.m, cmd = Update(msg, d.m)
	return d, cmd
}

func (d dashboard) View() string { return view.Render(d.m) }

// NewProgram creates the dashboard program.
func NewProgram(ctx context.Context, deps model.Deps, logChannel <-chan logging.LogEntry) (*tea.Program, error) {
	if deps.Coordinator == nil {
		return nil, errors.New("dashboard needs a coordinator")
	}
	m := model.InitializeModel(ctx, deps, logChannel)
	return tea.NewProgram(dashboard{m: m}, tea.WithAltScreen(), tea.WithContext(ctx)), nil
}
