package model

import (
	"cubectl/internal/session"
	"cubectl/internal/store"
)

// SyncFromStore refreshes the render snapshots and keeps the cursors and
// selection on entities that still exist.
func (m *Model) SyncFromStore() {
	m.Workspaces = m.Store.Workspaces()
	m.Summary = m.Store.Summary()

	if m.SelectedWorkspaceID != "" {
		if _, ok := m.Store.Workspace(m.SelectedWorkspaceID); !ok && m.Loaded {
			m.SelectedWorkspaceID = ""
			if m.Page != session.PageWorkspaceDashboard {
				m.SetPage(session.PageWorkspaceDashboard)
			}
		}
	}
	m.WorkspaceCursor = cursorFor(m.WorkspaceCursor, len(m.Workspaces), func(i int) bool {
		return m.Workspaces[i].ID == m.SelectedWorkspaceID
	})

	m.Cubes = nil
	if m.SelectedWorkspaceID != "" {
		m.Cubes = m.Store.Cubes(m.SelectedWorkspaceID)
	}
	m.CubeCursor = cursorFor(m.CubeCursor, len(m.Cubes), func(i int) bool {
		return m.Cubes[i].ID == m.SelectedCubeID
	})

	m.Cube, m.HasCube = store.Cube{}, false
	if m.SelectedCubeID != "" {
		m.Cube, m.HasCube = m.Store.Cube(m.SelectedCubeID)
		if !m.HasCube && m.Page == session.PageCubeDashboard && m.Loaded {
			m.SetPage(session.PageCubes)
		}
	}
}

// cursorFor keeps the cursor on the selected row when present, otherwise
// clamps it into [0, n).
func cursorFor(cursor, n int, selected func(int) bool) int {
	for i := 0; i < n; i++ {
		if selected(i) {
			return i
		}
	}
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// SetPage switches page and persists the choice.
func (m *Model) SetPage(p session.Page) {
	m.Page = p
	if m.Selection != nil {
		_ = m.Selection.SetPage(p)
	}
}

// SelectWorkspace makes id the selected workspace and persists it.
func (m *Model) SelectWorkspace(id string) {
	if id != m.SelectedWorkspaceID {
		m.CubeCursor = 0
	}
	m.SelectedWorkspaceID = id
	if m.Selection != nil {
		_ = m.Selection.SetWorkspaceID(id)
	}
}

// SelectCube makes id the selected cube and persists it.
func (m *Model) SelectCube(id string) {
	m.SelectedCubeID = id
	if m.Selection != nil {
		_ = m.Selection.SetContainerID(id)
	}
}

// WorkspaceUnderCursor returns the highlighted workspace.
func (m *Model) WorkspaceUnderCursor() (store.Workspace, bool) {
	if m.WorkspaceCursor < 0 || m.WorkspaceCursor >= len(m.Workspaces) {
		return store.Workspace{}, false
	}
	return m.Workspaces[m.WorkspaceCursor], true
}

// CubeUnderCursor returns the highlighted cube on the cubes page, or the
// open cube on the cube dashboard.
func (m *Model) CubeUnderCursor() (store.Cube, bool) {
	if m.Page == session.PageCubeDashboard {
		return m.Cube, m.HasCube
	}
	if m.CubeCursor < 0 || m.CubeCursor >= len(m.Cubes) {
		return store.Cube{}, false
	}
	return m.Cubes[m.CubeCursor], true
}

// AddRawLineToActivityLog appends entry, keeping at most
// MaxActivityLogLines lines.
func AddRawLineToActivityLog(m *Model, entry string) {
	m.ActivityLog = append(m.ActivityLog, entry)
	if len(m.ActivityLog) > MaxActivityLogLines {
		m.ActivityLog = m.ActivityLog[len(m.ActivityLog)-MaxActivityLogLines:]
	}
	m.ActivityLogDirty = true
}
