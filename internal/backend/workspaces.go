package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"cubectl/internal/lifecycle"
	"cubectl/internal/store"
)

// ListWorkspaces fetches all workspaces and the dashboard totals.
func (c *Client) ListWorkspaces(ctx context.Context) ([]store.Workspace, store.Summary, error) {
	var list WorkspaceList
	if err := c.do(ctx, http.MethodGet, "/workspaces", nil, nil, &list); err != nil {
		return nil, store.Summary{}, err
	}

	out := make([]store.Workspace, 0, len(list.Workspaces))
	for _, w := range list.Workspaces {
		out = append(out, w.ToWorkspace())
	}
	summary := store.Summary{
		TotalWorkspaces:   list.TotalWorkspaces,
		TotalCubes:        list.TotalCubes,
		TotalRunningCubes: list.TotalRunningCubes,
	}
	return out, summary, nil
}

// CreateWorkspace creates an empty workspace.
func (c *Client) CreateWorkspace(ctx context.Context, name, description string) (ActionResult, error) {
	req := CreateWorkspaceRequest{Name: name, Desc: description, Containers: []string{}}
	return c.doAction(ctx, http.MethodPost, "/workspace/create", nil, req)
}

// WorkspaceAction issues deploy, redeploy, stop or delete for a workspace.
func (c *Client) WorkspaceAction(ctx context.Context, id string, action lifecycle.Action) (ActionResult, error) {
	switch action {
	case lifecycle.ActionDeploy, lifecycle.ActionRedeploy, lifecycle.ActionStop:
		q := url.Values{"workspace_id": {id}}
		return c.doAction(ctx, http.MethodPost, "/workspace/"+string(action), q, nil)
	case lifecycle.ActionDelete:
		q := url.Values{"id": {id}}
		return c.doAction(ctx, http.MethodDelete, "/workspace/delete", q, nil)
	default:
		return ActionResult{}, fmt.Errorf("%w: unknown workspace action %q", lifecycle.ErrInvalidTransition, action)
	}
}
