package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cubectl/internal/lifecycle"
	"cubectl/internal/store"
)

func TestListCubes(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []map[string]any{
			{"container_id": 10, "service_name": "web", "container_name": "web-1", "image": "nginx:latest", "status": "running", "ip_address": "172.17.0.2"},
			{"container_id": 11, "service_name": "db", "container_name": "db-1", "image": "postgres:16", "status": "exited", "ip_address": ""},
		})
	})

	cubes, err := c.ListCubes(context.Background(), "4")
	require.NoError(t, err)
	require.Len(t, cubes, 2)

	assert.Equal(t, "10", cubes[0].ID)
	assert.Equal(t, "4", cubes[0].WorkspaceID)
	assert.Equal(t, "web-1", cubes[0].Name)
	assert.Equal(t, lifecycle.CubeRunning, cubes[0].Status)
	assert.False(t, cubes[0].Detailed)

	assert.Equal(t, lifecycle.CubeError, cubes[1].Status)
	assert.Equal(t, "N/A", cubes[1].IPAddress)
	assert.Equal(t, "workspace_id=4", (*calls)[0].query)
}

func TestGetCube(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"container_data": map[string]any{
				"image":            "code-server:dev",
				"name":             "ide",
				"ports":            []string{"8080:8080"},
				"environment_vars": []string{"A=1"},
				"volumes":          map[string]string{"/data": "/home/coder/workspace"},
				"labels":           []string{"workspace_id=4"},
				"resource_limits":  map[string]string{"cpus": "0.5", "memory": "512m"},
				"networks":         []string{"bridge"},
				"service_name":     "ide",
			},
			"ip_address": "172.17.0.9",
			"status":     "running",
		})
	})

	cube, err := c.GetCube(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, "/api/cube/12", (*calls)[0].path)
	assert.Equal(t, "12", cube.ID)
	assert.True(t, cube.Detailed)
	assert.True(t, cube.IsDevContainer())
	assert.Equal(t, "http://172.17.0.9:8080", cube.CodeURL())
	assert.Equal(t, store.ResourceLimits{CPUs: "0.5", Memory: "512m"}, cube.ResourceLimits)
	assert.Equal(t, []string{"bridge"}, cube.Networks)
}

func TestCreateCubeAppliesDefaults(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 201, map[string]string{"message": "Cube created"})
	})

	_, err := c.CreateCube(context.Background(), "4", CubeSpec{Name: "ide", Image: "code-server", Tag: "dev"})
	require.NoError(t, err)

	call := (*calls)[0]
	assert.Equal(t, "POST", call.method)
	assert.Equal(t, "/api/cube", call.path)
	assert.Equal(t, "application/json", call.header.Get("Content-Type"))
	assert.JSONEq(t, `{
		"workspace_id": 4,
		"cube_data": {
			"name": "ide",
			"image": "code-server:dev",
			"ports": [],
			"environment_vars": [],
			"resource_limits": {},
			"volumes": {"[DEFAULT]/ide": "/home/coder/workspace"},
			"labels": ["workspace_id=4", "service=turplespace"]
		}
	}`, call.body)
}

func TestCreateCubeKeepsExplicitVolumes(t *testing.T) {
	req := CubeSpec{Name: "x", Image: "alpine", Volumes: map[string]string{"/a": "/b"}}.Request("9")
	assert.Equal(t, map[string]string{"/a": "/b"}, req.CubeData.Volumes)
	assert.Equal(t, "alpine", req.CubeData.Image)
}

func TestUpdateCube(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"message": "Cube updated"})
	})

	res, err := c.UpdateCube(context.Background(), store.Cube{
		ID: "12", Name: "ide", Image: "code-server:dev", ServiceName: "ide",
		ResourceLimits: store.ResourceLimits{CPUs: "1", Memory: "1g", Swap: "2g"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Cube updated", res.Message)

	call := (*calls)[0]
	assert.Equal(t, "PUT", call.method)
	var body UpdateCubeRequest
	require.NoError(t, json.Unmarshal([]byte(call.body), &body))
	assert.Equal(t, "ide", body.UpdatedCube.Name)
	assert.Equal(t, ResourceLimitsDTO{CPUs: "1", Memory: "1g"}, body.UpdatedCube.ResourceLimits, "swap is not editable")
}

func TestCommitCube(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"message": "Committed"})
	})

	_, err := c.CommitCube(context.Background(), "12", "snapshots/ide", "v2")
	require.NoError(t, err)
	assert.Equal(t, "/api/cube/12/commit", (*calls)[0].path)
	assert.JSONEq(t, `{"image": "snapshots/ide", "tag": "v2"}`, (*calls)[0].body)
}

func TestCubeActionRequests(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"message": "Cube action completed successfully"})
	})
	ctx := context.Background()

	for _, a := range []lifecycle.Action{lifecycle.ActionDeploy, lifecycle.ActionStop, lifecycle.ActionRedeploy, lifecycle.ActionDelete} {
		_, err := c.CubeAction(ctx, "12", a)
		require.NoError(t, err)
	}

	assert.Equal(t, recorded{method: "POST", path: "/api/cube/12/deploy"}, strip((*calls)[0]))
	assert.Equal(t, recorded{method: "POST", path: "/api/cube/12/stop"}, strip((*calls)[1]))
	assert.Equal(t, recorded{method: "POST", path: "/api/cube/12/redeploy"}, strip((*calls)[2]))
	assert.Equal(t, recorded{method: "DELETE", path: "/api/cube/delete", query: "cube_id=12"}, strip((*calls)[3]))
}
