package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cubectl/internal/backend"
	"cubectl/internal/lifecycle"
	"cubectl/internal/store"
)

func TestCreateWorkspaceRefetches(t *testing.T) {
	c, fb, rec := setup(t)

	require.NoError(t, c.CreateWorkspace(context.Background(), "gamma", "third"))
	assert.Equal(t, []string{"workspace/gamma/create", "workspaces/list"}, fb.Calls())

	names := []string{}
	for _, w := range c.Store().Workspaces() {
		names = append(names, w.Name)
	}
	assert.Contains(t, names, "gamma")
	assert.Len(t, rec.byLevel(NoticeSuccess), 1)
}

func TestCreateWorkspaceFailureAddsNothing(t *testing.T) {
	c, fb, rec := setup(t)
	fb.failWith("workspace/gamma/create", &backend.StatusError{Code: 400, Body: "duplicate"})

	err := c.CreateWorkspace(context.Background(), "gamma", "")
	require.Error(t, err)
	assert.Len(t, c.Store().Workspaces(), 2)
	assert.Len(t, rec.byLevel(NoticeError), 1)
	assert.Equal(t, []string{"workspace/gamma/create"}, fb.Calls())

	err = c.CreateWorkspace(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateCubeRefetchesWorkspaceAndCubes(t *testing.T) {
	c, fb, _ := setup(t)

	err := c.CreateCube(context.Background(), "1", backend.CubeSpec{Name: "ide", Image: "code-server", Tag: "dev"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cube/ide/create", "workspaces/list", "cubes/1/list"}, fb.Calls())

	cube, ok := c.Store().Cube("new-ide")
	require.True(t, ok)
	assert.True(t, cube.IsDevContainer())

	err = c.CreateCube(context.Background(), "404", backend.CubeSpec{Name: "x", Image: "y"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditCubePreservesStatus(t *testing.T) {
	c, fb, rec := setup(t)

	cube, _ := c.Store().Cube("10")
	edit := EditFrom(cube)
	edit.Name = "web-renamed"
	edit.Ports = []string{"8080:80"}

	require.NoError(t, c.EditCube(context.Background(), "10", edit))
	updated, _ := c.Store().Cube("10")
	assert.Equal(t, "web-renamed", updated.Name)
	assert.Equal(t, []string{"8080:80"}, updated.Ports)
	assert.Equal(t, lifecycle.CubeRunning, updated.Status)
	assert.Equal(t, []string{"cube/10/edit"}, fb.Calls())
	assert.Equal(t, "Cube web updated", rec.byLevel(NoticeSuccess)[0].Message)
}

func TestEditCubeFailureKeepsFields(t *testing.T) {
	c, fb, _ := setup(t)
	fb.failWith("cube/10/edit", &backend.StatusError{Code: 422})

	edit := EditFrom(store.Cube{Name: "other"})
	require.Error(t, c.EditCube(context.Background(), "10", edit))

	cube, _ := c.Store().Cube("10")
	assert.Equal(t, "web", cube.Name)
	assert.NotEmpty(t, cube.LastError)
}

func TestCommitRequiresImageAndTag(t *testing.T) {
	c, fb, rec := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.CommitCube(ctx, "10", "snap", ""), ErrInvalidArgument)
	assert.ErrorIs(t, c.CommitCube(ctx, "10", "", "v1"), ErrInvalidArgument)
	assert.Equal(t, 0, fb.callCount())

	require.NoError(t, c.CommitCube(ctx, "10", "snap", "v1"))
	assert.Equal(t, lifecycle.CubeRunning, cubeStatus(t, c, "10"))
	assert.Equal(t, "Container committed successfully", rec.byLevel(NoticeSuccess)[0].Message)
}

func TestStopWorkspaceCubesPartialCompletion(t *testing.T) {
	c, fb, rec := setup(t)
	ctx := context.Background()
	require.NoError(t, c.Run(ctx, Cube("11"), lifecycle.ActionDeploy))
	fb.calls = nil
	rec.notices = nil

	fb.failWith("cube/11/stop", &backend.StatusError{Code: 500})
	n, err := c.StopWorkspaceCubes(ctx, "1")
	require.Error(t, err)
	var se *backend.StatusError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, 1, n)

	assert.Equal(t, lifecycle.CubeStopped, cubeStatus(t, c, "10"))
	assert.Equal(t, lifecycle.CubeRunning, cubeStatus(t, c, "11"))
	assert.Equal(t, lifecycle.CubePaused, cubeStatus(t, c, "12"), "cubes that cannot stop are skipped")

	w, _ := c.Store().Workspace("1")
	assert.Equal(t, lifecycle.WorkspacePartial, w.Status())
	assert.Len(t, rec.byLevel(NoticeError), 1)
	assert.Len(t, rec.byLevel(NoticeSuccess), 1)
	assert.ElementsMatch(t, []string{"cube/10/stop", "cube/11/stop"}, fb.Calls())
}

func TestStopWorkspaceCubesNothingToDo(t *testing.T) {
	c, fb, _ := setup(t)
	n, err := c.StopWorkspaceCubes(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, fb.callCount())

	_, err = c.StopWorkspaceCubes(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadFetchesWhatActionsNeed(t *testing.T) {
	_, fb, _ := setup(t)
	fb.details["11"] = store.Cube{ID: "11", WorkspaceID: "1", Name: "db", Status: lifecycle.CubeStopped, Detailed: true}
	c := NewCoordinator(fb, store.New(), nil)
	ctx := context.Background()

	require.NoError(t, c.Load(ctx, Cube("11")))
	assert.Equal(t, []string{"cube/11/get", "workspaces/list", "cubes/1/list"}, fb.Calls())
	assert.Equal(t, lifecycle.CubeStopped, cubeStatus(t, c, "11"))
	cube, _ := c.Store().Cube("11")
	assert.True(t, cube.Detailed)
	w, _ := c.Store().Workspace("1")
	assert.Equal(t, 3, w.TotalContainers, "counters stay those of the backend")

	require.NoError(t, c.Load(ctx, Cube("11")))
	assert.Equal(t, 3, fb.callCount(), "known cubes are not fetched again")

	require.NoError(t, c.Load(ctx, Workspace("1")))
	assert.Len(t, c.Store().Cubes("1"), 3)

	assert.ErrorIs(t, c.Load(ctx, Workspace("9")), ErrNotFound)
	assert.Error(t, c.Load(ctx, Cube("99")))
}
