package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"cubectl/internal/backend"
	"cubectl/internal/lifecycle"
	"cubectl/internal/orchestrator"
	"cubectl/internal/output"
)

var actionEnum = []string{
	string(lifecycle.ActionDeploy),
	string(lifecycle.ActionRedeploy),
	string(lifecycle.ActionStop),
	string(lifecycle.ActionDelete),
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("workspace_list",
				mcp.WithDescription("List workspaces with their status and cube counters"),
			),
			Handler: s.handleWorkspaceList,
		},
		{
			Tool: mcp.NewTool("workspace_create",
				mcp.WithDescription("Create an empty workspace"),
				mcp.WithString("name", mcp.Required(), mcp.Description("Workspace name")),
				mcp.WithString("description", mcp.Description("Optional description")),
			),
			Handler: s.handleWorkspaceCreate,
		},
		{
			Tool: mcp.NewTool("workspace_action",
				mcp.WithDescription("Deploy, redeploy, stop or delete a workspace"),
				mcp.WithString("id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("action", mcp.Required(), mcp.Description("Lifecycle action"), mcp.Enum(actionEnum...)),
			),
			Handler: s.handleWorkspaceAction,
		},
		{
			Tool: mcp.NewTool("workspace_stop_cubes",
				mcp.WithDescription("Stop every running cube of a workspace one by one"),
				mcp.WithString("id", mcp.Required(), mcp.Description("Workspace ID")),
			),
			Handler: s.handleStopCubes,
		},
		{
			Tool: mcp.NewTool("cube_list",
				mcp.WithDescription("List the cubes of a workspace"),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			),
			Handler: s.handleCubeList,
		},
		{
			Tool: mcp.NewTool("cube_get",
				mcp.WithDescription("Get the full configuration of a cube"),
				mcp.WithString("id", mcp.Required(), mcp.Description("Cube ID")),
			),
			Handler: s.handleCubeGet,
		},
		{
			Tool: mcp.NewTool("cube_create",
				mcp.WithDescription("Create a stopped cube in a workspace"),
				mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
				mcp.WithString("name", mcp.Required(), mcp.Description("Cube name")),
				mcp.WithString("image", mcp.Required(), mcp.Description("Image without tag")),
				mcp.WithString("tag", mcp.Description("Image tag, latest when empty")),
				mcp.WithString("ports", mcp.Description("Comma separated host:container ports")),
				mcp.WithString("env", mcp.Description("Comma separated KEY=value pairs")),
			),
			Handler: s.handleCubeCreate,
		},
		{
			Tool: mcp.NewTool("cube_action",
				mcp.WithDescription("Deploy, redeploy, stop or delete a cube"),
				mcp.WithString("id", mcp.Required(), mcp.Description("Cube ID")),
				mcp.WithString("action", mcp.Required(), mcp.Description("Lifecycle action"), mcp.Enum(actionEnum...)),
			),
			Handler: s.handleCubeAction,
		},
		{
			Tool: mcp.NewTool("cube_commit",
				mcp.WithDescription("Commit a cube's filesystem to a new image"),
				mcp.WithString("id", mcp.Required(), mcp.Description("Cube ID")),
				mcp.WithString("image", mcp.Required(), mcp.Description("Target image name")),
				mcp.WithString("tag", mcp.Required(), mcp.Description("Target image tag")),
			),
			Handler: s.handleCubeCommit,
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errorResult(what string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", what, err))
}

func parseAction(raw string) (lifecycle.Action, error) {
	for _, a := range actionEnum {
		if raw == a {
			return lifecycle.Action(raw), nil
		}
	}
	return "", fmt.Errorf("unknown action %q", raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Server) handleWorkspaceList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.coord.RefreshWorkspaces(ctx); err != nil {
		return errorResult("Failed to list workspaces", err), nil
	}
	list := s.coord.Store().Workspaces()
	out := make([]output.Workspace, 0, len(list))
	for _, w := range list {
		out = append(out, output.FromWorkspace(w))
	}
	return jsonResult(out)
}

func (s *Server) handleWorkspaceCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	desc := request.GetString("description", "")
	if err := s.coord.CreateWorkspace(ctx, name, desc); err != nil {
		return errorResult("Failed to create workspace", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Workspace %s created", name)), nil
}

func (s *Server) handleWorkspaceAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runAction(ctx, request, orchestrator.KindWorkspace)
}

func (s *Server) handleCubeAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runAction(ctx, request, orchestrator.KindCube)
}

func (s *Server) runAction(ctx context.Context, request mcp.CallToolRequest, kind orchestrator.EntityKind) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	action, err := parseAction(request.GetString("action", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target := orchestrator.Target{Kind: kind, ID: id}

	if err := s.coord.Load(ctx, target); err != nil {
		return errorResult(fmt.Sprintf("Failed to load %s", target), err), nil
	}
	if err := s.coord.Run(ctx, target, action); err != nil {
		return errorResult(fmt.Sprintf("%s on %s failed", action, target), err), nil
	}

	if action == lifecycle.ActionDelete {
		return mcp.NewToolResultText(fmt.Sprintf("%s deleted", target)), nil
	}
	if kind == orchestrator.KindCube {
		c, _ := s.coord.Store().Cube(id)
		return jsonResult(output.FromCube(c))
	}
	w, _ := s.coord.Store().Workspace(id)
	return jsonResult(output.FromWorkspace(w))
}

func (s *Server) handleStopCubes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	if err := s.coord.Load(ctx, orchestrator.Workspace(id)); err != nil {
		return errorResult("Failed to load workspace", err), nil
	}
	n, err := s.coord.StopWorkspaceCubes(ctx, id)
	if err != nil {
		return errorResult(fmt.Sprintf("Stopped %d cubes, some failed", n), err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Stopped %d cubes", n)), nil
}

func (s *Server) handleCubeList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wsID, err := request.RequireString("workspace_id")
	if err != nil {
		return mcp.NewToolResultError("workspace_id parameter is required"), nil
	}
	if err := s.coord.Load(ctx, orchestrator.Workspace(wsID)); err != nil {
		return errorResult("Failed to list cubes", err), nil
	}
	cubes := s.coord.Store().Cubes(wsID)
	out := make([]output.Cube, 0, len(cubes))
	for _, c := range cubes {
		out = append(out, output.FromCube(c))
	}
	return jsonResult(out)
}

func (s *Server) handleCubeGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	if err := s.coord.Load(ctx, orchestrator.Cube(id)); err != nil && !backend.IsNotFound(err) {
		return errorResult("Failed to load cube", err), nil
	}
	c, err := s.coord.RefreshCube(ctx, id)
	if err != nil {
		if backend.IsNotFound(err) {
			return mcp.NewToolResultError(fmt.Sprintf("Cube not found: %s", id)), nil
		}
		return errorResult("Failed to get cube", err), nil
	}
	return jsonResult(output.FromCube(c))
}

func (s *Server) handleCubeCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wsID, err := request.RequireString("workspace_id")
	if err != nil {
		return mcp.NewToolResultError("workspace_id parameter is required"), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	image, err := request.RequireString("image")
	if err != nil {
		return mcp.NewToolResultError("image parameter is required"), nil
	}
	spec := backend.CubeSpec{
		Name:    name,
		Image:   image,
		Tag:     request.GetString("tag", "latest"),
		Ports:   splitList(request.GetString("ports", "")),
		EnvVars: splitList(request.GetString("env", "")),
	}
	if err := s.coord.Load(ctx, orchestrator.Workspace(wsID)); err != nil {
		return errorResult("Failed to load workspace", err), nil
	}
	if err := s.coord.CreateCube(ctx, wsID, spec); err != nil {
		return errorResult("Failed to create cube", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cube %s created in workspace %s", name, wsID)), nil
}

func (s *Server) handleCubeCommit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	image := request.GetString("image", "")
	tag := request.GetString("tag", "")
	if err := s.coord.Load(ctx, orchestrator.Cube(id)); err != nil {
		return errorResult("Failed to load cube", err), nil
	}
	if err := s.coord.CommitCube(ctx, id, image, tag); err != nil {
		if errors.Is(err, orchestrator.ErrInvalidArgument) {
			return mcp.NewToolResultError("image and tag are required"), nil
		}
		return errorResult("Failed to commit cube", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cube %s committed as %s:%s", id, image, tag)), nil
}
