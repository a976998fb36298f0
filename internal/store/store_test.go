package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cubectl/internal/lifecycle"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	s.ReplaceWorkspaces([]Workspace{
		{ID: "1", Name: "alpha", TotalContainers: 3, RunningContainers: 2},
		{ID: "2", Name: "beta", TotalContainers: 1, RunningContainers: 0},
	}, Summary{TotalWorkspaces: 2, TotalCubes: 4, TotalRunningCubes: 2})
	s.ReplaceCubes("1", []Cube{
		{ID: "10", Name: "web", Image: "nginx:latest", Status: lifecycle.CubeRunning},
		{ID: "11", Name: "db", Image: "postgres:16", Status: lifecycle.CubeRunning},
		{ID: "12", Name: "ide", Image: "code:dev", Status: lifecycle.CubeStopped},
	}, nil)
	return s
}

func TestReplaceWorkspacesKeepsOrder(t *testing.T) {
	s := seeded(t)

	ws := s.Workspaces()
	require.Len(t, ws, 2)
	assert.Equal(t, "alpha", ws[0].Name)
	assert.Equal(t, "beta", ws[1].Name)
	assert.Equal(t, lifecycle.WorkspacePartial, ws[0].Status())
	assert.Equal(t, lifecycle.WorkspaceStopped, ws[1].Status())
}

func TestReplaceWorkspacesDropsCubesOfVanishedWorkspaces(t *testing.T) {
	s := seeded(t)
	s.ReplaceWorkspaces([]Workspace{{ID: "2", TotalContainers: 1}}, Summary{TotalWorkspaces: 1, TotalCubes: 1})

	_, ok := s.Cube("10")
	assert.False(t, ok)
	assert.Empty(t, s.Cubes("1"))
}

func TestUpdateCubeMovesWorkspaceCounter(t *testing.T) {
	s := seeded(t)

	_, err := s.UpdateCube("12", func(c *Cube) { c.Status = lifecycle.CubeRunning })
	require.NoError(t, err)

	w, _ := s.Workspace("1")
	assert.Equal(t, 3, w.RunningContainers)
	assert.Equal(t, lifecycle.WorkspaceRunning, w.Status())
	assert.Equal(t, 3, s.Summary().TotalRunningCubes)

	_, err = s.UpdateCube("10", func(c *Cube) { c.Status = lifecycle.CubeDeploying })
	require.NoError(t, err)
	w, _ = s.Workspace("1")
	assert.Equal(t, 2, w.RunningContainers)
}

func TestUpdateCubeCannotReassignIdentity(t *testing.T) {
	s := seeded(t)
	c, err := s.UpdateCube("10", func(c *Cube) {
		c.ID = "99"
		c.WorkspaceID = "2"
		c.Name = "renamed"
	})
	require.NoError(t, err)
	assert.Equal(t, "10", c.ID)
	assert.Equal(t, "1", c.WorkspaceID)
	assert.Equal(t, "renamed", c.Name)
}

func TestUpdateCubeUnknown(t *testing.T) {
	s := New()
	_, err := s.UpdateCube("nope", func(*Cube) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveCubeDecrementsCountersTogether(t *testing.T) {
	s := seeded(t)
	sub := s.Subscribe()
	defer s.Unsubscribe(sub)

	_, err := s.RemoveCube("10")
	require.NoError(t, err)

	w, _ := s.Workspace("1")
	assert.Equal(t, 2, w.TotalContainers)
	assert.Equal(t, 1, w.RunningContainers)
	assert.Equal(t, Summary{TotalWorkspaces: 2, TotalCubes: 3, TotalRunningCubes: 1}, s.Summary())
	assert.Len(t, s.Cubes("1"), 2)

	// The workspace update is published before the removal event, both
	// from the same transaction.
	first := <-sub.Channel
	second := <-sub.Channel
	assert.Equal(t, EventWorkspaceUpdated, first.Kind)
	assert.Equal(t, EventCubeRemoved, second.Kind)
	assert.Equal(t, "10", second.EntityID)
}

func TestRemoveStoppedCubeKeepsRunningCounter(t *testing.T) {
	s := seeded(t)
	_, err := s.RemoveCube("12")
	require.NoError(t, err)

	w, _ := s.Workspace("1")
	assert.Equal(t, 2, w.TotalContainers)
	assert.Equal(t, 2, w.RunningContainers)
}

func TestRemoveWorkspaceCascades(t *testing.T) {
	s := seeded(t)
	_, err := s.RemoveWorkspace("1")
	require.NoError(t, err)

	_, ok := s.Workspace("1")
	assert.False(t, ok)
	for _, id := range []string{"10", "11", "12"} {
		_, ok := s.Cube(id)
		assert.False(t, ok, id)
	}
	assert.Equal(t, Summary{TotalWorkspaces: 1, TotalCubes: 1, TotalRunningCubes: 0}, s.Summary())

	_, err = s.RemoveWorkspace("1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceCubesKeepsInFlightStatus(t *testing.T) {
	s := seeded(t)
	_, err := s.UpdateCube("12", func(c *Cube) { c.Status = lifecycle.CubeDeploying })
	require.NoError(t, err)

	s.ReplaceCubes("1", []Cube{
		{ID: "10", Status: lifecycle.CubeRunning},
		{ID: "11", Status: lifecycle.CubeRunning},
		{ID: "12", Status: lifecycle.CubeStopped},
	}, func(id string) bool { return id == "12" })

	c, _ := s.Cube("12")
	assert.Equal(t, lifecycle.CubeDeploying, c.Status)
}

func TestReplaceCubesRecomputesCounters(t *testing.T) {
	s := seeded(t)
	s.ReplaceCubes("1", []Cube{
		{ID: "10", Status: lifecycle.CubeRunning},
		{ID: "13", Status: lifecycle.CubePaused},
	}, nil)

	w, _ := s.Workspace("1")
	assert.Equal(t, 2, w.TotalContainers)
	assert.Equal(t, 1, w.RunningContainers)
	assert.Equal(t, 3, s.Summary().TotalCubes)
	assert.Equal(t, 1, s.Summary().TotalRunningCubes)
}

func TestReplaceCubesMovesCubeBetweenWorkspaces(t *testing.T) {
	s := seeded(t)

	s.ReplaceCubes("2", []Cube{
		{ID: "20", Status: lifecycle.CubeStopped},
		{ID: "11", Name: "db", Status: lifecycle.CubeRunning},
		{ID: "20", Status: lifecycle.CubeRunning},
	}, nil)

	moved, ok := s.Cube("11")
	require.True(t, ok)
	assert.Equal(t, "2", moved.WorkspaceID)

	var ids []string
	for _, c := range s.Cubes("2") {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"20", "11"}, ids, "duplicates keep their first entry")
	ids = nil
	for _, c := range s.Cubes("1") {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"10", "12"}, ids)

	alpha, _ := s.Workspace("1")
	assert.Equal(t, 2, alpha.TotalContainers)
	assert.Equal(t, 1, alpha.RunningContainers)
	beta, _ := s.Workspace("2")
	assert.Equal(t, 2, beta.TotalContainers)
	assert.Equal(t, 1, beta.RunningContainers)
	assert.Equal(t, Summary{TotalWorkspaces: 2, TotalCubes: 4, TotalRunningCubes: 2}, s.Summary())
}

func TestReplaceCubesKeepsDetailedConfig(t *testing.T) {
	s := seeded(t)
	s.PutCube(Cube{
		ID: "10", WorkspaceID: "1", Name: "web", Image: "nginx:latest",
		Status: lifecycle.CubeRunning, Ports: []string{"80:80"}, Detailed: true,
	}, false)

	s.ReplaceCubes("1", []Cube{{ID: "10", Name: "web", Image: "nginx:1.27", Status: lifecycle.CubeRunning}}, nil)

	c, _ := s.Cube("10")
	assert.True(t, c.Detailed)
	assert.Equal(t, []string{"80:80"}, c.Ports)
	assert.Equal(t, "nginx:1.27", c.Image)
}

func TestApplyWorkspaceAction(t *testing.T) {
	s := seeded(t)
	_, err := s.UpdateCube("11", func(c *Cube) { c.Status = lifecycle.CubeDeploying })
	require.NoError(t, err)

	w, err := s.ApplyWorkspaceAction("1", lifecycle.ActionStop, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, w.RunningContainers)
	assert.Equal(t, lifecycle.WorkspaceStopped, w.Status())

	c10, _ := s.Cube("10")
	c11, _ := s.Cube("11")
	assert.Equal(t, lifecycle.CubeStopped, c10.Status)
	assert.Equal(t, lifecycle.CubeDeploying, c11.Status, "transient cubes are left alone")

	w, err = s.ApplyWorkspaceAction("1", lifecycle.ActionDeploy, func(id string) bool { return id == "12" })
	require.NoError(t, err)
	assert.Equal(t, 3, w.RunningContainers)
	c12, _ := s.Cube("12")
	assert.Equal(t, lifecycle.CubeStopped, c12.Status)
	c10, _ = s.Cube("10")
	assert.Equal(t, lifecycle.CubeRunning, c10.Status)

	_, err = s.ApplyWorkspaceAction("1", lifecycle.ActionCommit, nil)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestReadersGetCopies(t *testing.T) {
	s := seeded(t)
	s.PutCube(Cube{ID: "10", WorkspaceID: "1", Ports: []string{"80:80"}, Volumes: map[string]string{"/a": "/b"}}, true)

	c, _ := s.Cube("10")
	c.Ports[0] = "mutated"
	c.Volumes["/a"] = "mutated"

	again, _ := s.Cube("10")
	assert.Equal(t, "80:80", again.Ports[0])
	assert.Equal(t, "/b", again.Volumes["/a"])
	assert.Equal(t, lifecycle.CubeRunning, again.Status, "keepStatus retains the local status")
}

func TestPutCubeNewCubeIncrementsCounters(t *testing.T) {
	s := seeded(t)
	s.PutCube(Cube{ID: "20", WorkspaceID: "2", Status: lifecycle.CubeRunning}, false)

	w, _ := s.Workspace("2")
	assert.Equal(t, 2, w.TotalContainers)
	assert.Equal(t, 1, w.RunningContainers)
}

func TestSubscriptionDropsWhenFull(t *testing.T) {
	s := seeded(t)
	sub := s.Subscribe()

	for i := 0; i < 150; i++ {
		_, err := s.UpdateCube("10", func(c *Cube) { c.Name = string(rune('a'+i%26)) + "x" })
		require.NoError(t, err)
	}

	m := s.Metrics()
	assert.Equal(t, 1, m.ActiveSubscriptions)
	assert.Positive(t, m.DroppedEvents)

	s.Unsubscribe(sub)
	assert.True(t, sub.IsClosed())
	assert.Equal(t, 0, s.Metrics().ActiveSubscriptions)
}

func TestCubeHelpers(t *testing.T) {
	c := Cube{Image: "code-server:dev", IPAddress: "172.17.0.4"}
	assert.True(t, c.IsDevContainer())
	assert.Equal(t, "dev", c.ImageTag())
	assert.Equal(t, "http://172.17.0.4:8080", c.CodeURL())

	c = Cube{Image: "nginx", IPAddress: "N/A"}
	assert.False(t, c.IsDevContainer())
	assert.Equal(t, "", c.CodeURL())
}
