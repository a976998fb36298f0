package controller

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cubectl/internal/backend"
	"cubectl/internal/devbackend"
	"cubectl/internal/lifecycle"
	"cubectl/internal/orchestrator"
	"cubectl/internal/session"
	"cubectl/internal/store"
	"cubectl/internal/tui/model"
)

// newTestModel returns a loaded dashboard over a dev backend seeded with
// workspace "demo-1" (id 1) holding the running cube "web-1" (id 2) and
// the stopped dev cube "ide-1" (id 3).
func newTestModel(t *testing.T) (*model.Model, *session.Context) {
	t.Helper()
	srv := devbackend.New(devbackend.Config{SeedWorkspaces: 1})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(backend.Config{BaseURL: ts.URL + "/api", Timeout: 5 * time.Second})
	require.NoError(t, err)
	coord := orchestrator.NewCoordinator(client, store.New(), nil)
	sel := session.NewContext(session.NewMemoryStore())

	m := model.InitializeModel(context.Background(), model.Deps{
		Coordinator: coord,
		Selection:   sel,
		BackendURL:  ts.URL,
	}, nil)
	m.Width, m.Height = 120, 40

	require.NoError(t, coord.RefreshWorkspaces(context.Background()))
	m.Loaded = true
	m.SyncFromStore()
	return m, sel
}

func press(m *model.Model, k string) (*model.Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return Update(msg, m)
}

// complete runs a backend command and feeds its result back.
func complete(t *testing.T, m *model.Model, cmd tea.Cmd) *model.Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = Update(cmd(), m)
	return m
}

// openCubes drills into the first workspace and loads its cubes.
func openCubes(t *testing.T, m *model.Model) *model.Model {
	t.Helper()
	m, cmd := press(m, "enter")
	require.Equal(t, session.PageCubes, m.Page)
	m = complete(t, m, cmd)
	require.Len(t, m.Cubes, 2)
	return m
}

func TestNavigationDrillsDownAndBack(t *testing.T) {
	m, sel := newTestModel(t)
	assert.Equal(t, session.PageWorkspaceDashboard, m.Page)

	m = openCubes(t, m)
	assert.Equal(t, "1", sel.WorkspaceID())
	assert.Equal(t, session.PageCubes, sel.Page())

	m, _ = press(m, "down")
	assert.Equal(t, 1, m.CubeCursor)
	assert.Equal(t, "3", sel.ContainerID())

	m, cmd := press(m, "enter")
	assert.Equal(t, session.PageCubeDashboard, m.Page)
	m = complete(t, m, cmd)
	require.True(t, m.HasCube)
	assert.Equal(t, "ide-1", m.Cube.Name)
	assert.True(t, m.Cube.Detailed)

	m, _ = press(m, "esc")
	assert.Equal(t, session.PageCubes, m.Page)
	m, _ = press(m, "esc")
	assert.Equal(t, session.PageWorkspaceDashboard, m.Page)
	assert.Equal(t, session.PageWorkspaceDashboard, sel.Page())
}

func TestDeployKeyShowsDeployingUntilConfirmed(t *testing.T) {
	m, _ := newTestModel(t)
	m = openCubes(t, m)
	m, _ = press(m, "down")

	m, cmd := press(m, "d")
	assert.Equal(t, 1, m.Pending)
	assert.Equal(t, lifecycle.CubeDeploying, m.Cubes[1].Status)
	assert.True(t, m.IsLoading())

	m = complete(t, m, cmd)
	assert.Equal(t, 0, m.Pending)
	assert.Equal(t, lifecycle.CubeRunning, m.Cubes[1].Status)
	assert.NotEmpty(t, m.Cubes[1].IPAddress)
}

func TestSecondActionWhileInFlightIsRejected(t *testing.T) {
	m, _ := newTestModel(t)
	m = openCubes(t, m)

	m, first := press(m, "s")
	require.NotNil(t, first)
	m, _ = press(m, "r")
	assert.Equal(t, 1, m.Pending, "the rejected action is not counted")
	assert.Equal(t, model.StatusBarWarning, m.StatusBarMessageType)

	m = complete(t, m, first)
	assert.Equal(t, lifecycle.CubeStopped, m.Cubes[0].Status)
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	m, _ := newTestModel(t)
	m = openCubes(t, m)

	m, _ = press(m, "x")
	require.Equal(t, model.ModeConfirm, m.CurrentAppMode)
	assert.Contains(t, m.Confirm.Prompt, "web-1")

	m, cmd := press(m, "n")
	assert.Nil(t, cmd)
	assert.Equal(t, model.ModeDashboard, m.CurrentAppMode)
	assert.Len(t, m.Cubes, 2)

	m, _ = press(m, "x")
	m, cmd = press(m, "y")
	m = complete(t, m, cmd)
	require.Len(t, m.Cubes, 1)
	assert.Equal(t, "ide-1", m.Cubes[0].Name)
}

func TestCreateWorkspaceForm(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(m, "n")
	require.Equal(t, model.ModeForm, m.CurrentAppMode)
	require.Equal(t, model.FormCreateWorkspace, m.Form.Kind)

	// Submitting without a name keeps the form open.
	m, _ = press(m, "tab")
	m, cmd := press(m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, "name is required", m.Form.Err)

	m, _ = press(m, "tab")
	m, _ = press(m, "gamma")
	m, _ = press(m, "enter")
	m, _ = press(m, "third one")
	m, cmd = press(m, "enter")
	assert.Equal(t, model.ModeDashboard, m.CurrentAppMode)
	assert.Nil(t, m.Form)

	m = complete(t, m, cmd)
	names := make([]string, 0, len(m.Workspaces))
	for _, w := range m.Workspaces {
		names = append(names, w.Name)
	}
	assert.Contains(t, names, "gamma")
}

func TestFormKeysDoNotTriggerActions(t *testing.T) {
	m, _ := newTestModel(t)
	m = openCubes(t, m)

	m, _ = press(m, "n")
	require.Equal(t, model.FormCreateCube, m.Form.Kind)
	m, cmd := press(m, "d")
	assert.Equal(t, 0, m.Pending)
	_ = cmd
	assert.Equal(t, "d", m.Form.Value(0))

	m, _ = press(m, "esc")
	assert.Nil(t, m.Form)
	assert.Equal(t, lifecycle.CubeRunning, m.Cubes[0].Status)
}

func TestEditCubeForm(t *testing.T) {
	m, _ := newTestModel(t)
	m = openCubes(t, m)

	m, _ = press(m, "e")
	require.Equal(t, model.FormEditCube, m.Form.Kind)
	assert.Equal(t, "web-1", m.Form.Value(cubeFieldName))
	assert.Equal(t, "nginx", m.Form.Value(cubeFieldImage))
	assert.Equal(t, "latest", m.Form.Value(cubeFieldTag))

	m.Form.Inputs[cubeFieldPorts].SetValue("8080:80, 8443:443")
	m.Form.Focus = len(m.Form.Inputs) - 1
	m, cmd := press(m, "enter")
	m = complete(t, m, cmd)

	cube, ok := m.Store.Cube("2")
	require.True(t, ok)
	assert.Equal(t, []string{"8080:80", "8443:443"}, cube.Ports)
	assert.Equal(t, lifecycle.CubeRunning, cube.Status)
}

func TestQuitShutsDown(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := press(m, "q")
	assert.True(t, m.QuitApp)
	assert.Equal(t, model.ModeQuitting, m.CurrentAppMode)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHelpOverlayToggles(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(m, "?")
	assert.Equal(t, model.ModeHelpOverlay, m.CurrentAppMode)
	m, _ = press(m, "?")
	assert.Equal(t, model.ModeDashboard, m.CurrentAppMode)
}

func TestWorkspaceRemovedReturnsToDashboard(t *testing.T) {
	m, sel := newTestModel(t)
	m = openCubes(t, m)

	_, err := m.Store.RemoveWorkspace("1")
	require.NoError(t, err)
	m, _ = Update(model.StoreChangedMsg{Event: store.ChangeEvent{Kind: store.EventWorkspaceRemoved, EntityID: "1"}}, m)

	assert.Equal(t, session.PageWorkspaceDashboard, m.Page)
	assert.Empty(t, m.SelectedWorkspaceID)
	assert.Empty(t, sel.WorkspaceID())
}

func TestParseVolumes(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", in: nil, want: nil},
		{name: "pairs", in: []string{"data:/data", " home : /home/coder "}, want: map[string]string{"data": "/data", "home": "/home/coder"}},
		{name: "missing path", in: []string{"data"}, wantErr: true},
		{name: "empty name", in: []string{":/data"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVolumes(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatVolumesIsSorted(t *testing.T) {
	assert.Equal(t, "a:/a, b:/b", formatVolumes(map[string]string{"b": "/b", "a": "/a"}))
}

func TestWindowSizeResizesLogViewport(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := Update(tea.WindowSizeMsg{Width: 90, Height: 30}, m)
	assert.Nil(t, cmd)
	assert.Equal(t, 90, m.Width)
	assert.Equal(t, 30, m.Height)
	small := m.LogViewport.Height
	assert.GreaterOrEqual(t, small, 3)

	d := dashboard{m: m}
	next, _ := d.Update(tea.WindowSizeMsg{Width: 100, Height: 36})
	assert.Equal(t, 100, next.(dashboard).m.Width)
	assert.Greater(t, m.LogViewport.Height, small)
	assert.NotEmpty(t, next.View())
}
