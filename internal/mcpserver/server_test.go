package mcpserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cubectl/internal/backend"
	"cubectl/internal/devbackend"
	"cubectl/internal/lifecycle"
	"cubectl/internal/orchestrator"
	"cubectl/internal/output"
	"cubectl/internal/store"
)

// newTestServer serves workspace "demo-1" (id 1) with the running cube
// "web-1" (id 2) and the stopped dev cube "ide-1" (id 3).
func newTestServer(t *testing.T) (*Server, *devbackend.Server) {
	t.Helper()
	dev := devbackend.New(devbackend.Config{SeedWorkspaces: 1})
	ts := httptest.NewServer(dev.Handler())
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(backend.Config{BaseURL: ts.URL + "/api", Timeout: 5 * time.Second})
	require.NoError(t, err)
	coord := orchestrator.NewCoordinator(client, store.New(), nil)
	return New("cubectl-test", "dev", coord), dev
}

func call(t *testing.T, s *Server, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	for _, st := range s.tools() {
		if st.Tool.Name != tool {
			continue
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = tool
		req.Params.Arguments = args
		res, err := st.Handler(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, res)
		return res
	}
	t.Fatalf("tool %s not registered", tool)
	return nil
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	var parts []string
	for _, c := range res.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestToolsAreListedOverJSONRPC(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, name := range []string{"workspace_list", "workspace_action", "cube_action", "cube_create", "cube_commit"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}

func TestWorkspaceListOverJSONRPC(t *testing.T) {
	s, _ := newTestServer(t)
	msg := `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"workspace_list","arguments":{}}}`
	resp := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(msg))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), "demo-1")
	assert.Contains(t, string(data), "partial")
}

func TestCubeActionRunsThroughCoordinator(t *testing.T) {
	s, _ := newTestServer(t)

	res := call(t, s, "cube_action", map[string]any{"id": "3", "action": "deploy"})
	require.False(t, res.IsError, text(t, res))

	var got output.Cube
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "ide-1", got.Name)
	assert.Equal(t, string(lifecycle.CubeRunning), got.Status)
	assert.NotEmpty(t, got.CodeURL)

	w, ok := s.coord.Store().Workspace("1")
	require.True(t, ok)
	assert.Equal(t, 2, w.RunningContainers)
}

func TestCubeActionFailureIsToolError(t *testing.T) {
	s, dev := newTestServer(t)
	dev.InjectFailure("cube/2/stop", devbackend.Failure{Code: 500, Message: "engine down"})

	res := call(t, s, "cube_action", map[string]any{"id": "2", "action": "stop"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "stop on cube 2 failed")

	c, _ := s.coord.Store().Cube("2")
	assert.Equal(t, lifecycle.CubeRunning, c.Status, "failed stop rolls back")
}

func TestInvalidArguments(t *testing.T) {
	s, _ := newTestServer(t)

	res := call(t, s, "cube_action", map[string]any{"id": "2", "action": "explode"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "unknown action")

	res = call(t, s, "workspace_create", map[string]any{})
	assert.True(t, res.IsError)

	res = call(t, s, "cube_commit", map[string]any{"id": "2", "image": "snap", "tag": ""})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "image and tag are required")

	res = call(t, s, "cube_get", map[string]any{"id": "999"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "Cube not found")
}

func TestCreateAndListCubes(t *testing.T) {
	s, _ := newTestServer(t)

	res := call(t, s, "workspace_create", map[string]any{"name": "gamma", "description": "third"})
	require.False(t, res.IsError, text(t, res))

	res = call(t, s, "cube_create", map[string]any{
		"workspace_id": "1", "name": "api", "image": "golang", "tag": "1.24", "ports": "9000:9000, 9001:9001",
	})
	require.False(t, res.IsError, text(t, res))

	res = call(t, s, "cube_list", map[string]any{"workspace_id": "1"})
	require.False(t, res.IsError, text(t, res))
	var cubes []output.Cube
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &cubes))
	require.Len(t, cubes, 3)
	assert.Equal(t, "api", cubes[2].Name)
	assert.Equal(t, "golang:1.24", cubes[2].Image)
}

func TestStopWorkspaceCubes(t *testing.T) {
	s, _ := newTestServer(t)

	res := call(t, s, "workspace_stop_cubes", map[string]any{"id": "1"})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, "Stopped 1 cubes", text(t, res))

	w, _ := s.coord.Store().Workspace("1")
	assert.Equal(t, lifecycle.WorkspaceStopped, w.Status())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
