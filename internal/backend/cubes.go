package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"cubectl/internal/lifecycle"
	"cubectl/internal/store"
)

const (
	defaultVolumeTarget = "/home/coder/workspace"
	serviceLabel        = "service=turplespace"
)

// CubeSpec describes a cube to create.
type CubeSpec struct {
	Name           string
	Image          string
	Tag            string
	Ports          []string
	EnvVars        []string
	Volumes        map[string]string
	ResourceLimits store.ResourceLimits
}

// Request builds the POST /cube body for workspaceID. A cube without
// volumes gets a default workspace volume, and the workspace and service
// labels are always set.
func (s CubeSpec) Request(workspaceID string) CreateCubeRequest {
	image := s.Image
	if s.Tag != "" {
		image = s.Image + ":" + s.Tag
	}

	volumes := make(map[string]string, len(s.Volumes))
	for k, v := range s.Volumes {
		volumes[k] = v
	}
	if len(volumes) == 0 {
		volumes["[DEFAULT]/"+s.Name] = defaultVolumeTarget
	}

	return CreateCubeRequest{
		WorkspaceID: ID(workspaceID),
		CubeData: CubeData{
			Name:            s.Name,
			Image:           image,
			Ports:           nonNil(s.Ports),
			EnvironmentVars: nonNil(s.EnvVars),
			ResourceLimits: ResourceLimitsDTO{
				CPUs:   s.ResourceLimits.CPUs,
				Memory: s.ResourceLimits.Memory,
				Swap:   s.ResourceLimits.Swap,
			},
			Volumes: volumes,
			Labels:  []string{"workspace_id=" + workspaceID, serviceLabel},
		},
	}
}

// ListCubes fetches the cubes of a workspace.
func (c *Client) ListCubes(ctx context.Context, workspaceID string) ([]store.Cube, error) {
	var list []CubeSummaryDTO
	q := url.Values{"workspace_id": {workspaceID}}
	if err := c.do(ctx, http.MethodGet, "/cubes", q, nil, &list); err != nil {
		return nil, err
	}
	out := make([]store.Cube, 0, len(list))
	for _, dto := range list {
		out = append(out, dto.ToCube(workspaceID))
	}
	return out, nil
}

// GetCube fetches the full configuration of a cube.
func (c *Client) GetCube(ctx context.Context, id string) (store.Cube, error) {
	var detail CubeDetailDTO
	if err := c.do(ctx, http.MethodGet, "/cube/"+url.PathEscape(id), nil, nil, &detail); err != nil {
		return store.Cube{}, err
	}
	return detail.ToCube(id), nil
}

// CreateCube creates a cube in workspaceID.
func (c *Client) CreateCube(ctx context.Context, workspaceID string, spec CubeSpec) (ActionResult, error) {
	return c.doAccepted(ctx, http.MethodPost, "/cube", spec.Request(workspaceID))
}

// UpdateCube replaces the editable configuration of a cube.
func (c *Client) UpdateCube(ctx context.Context, cube store.Cube) (ActionResult, error) {
	req := UpdateCubeRequest{UpdatedCube: UpdatedCube{
		Name:            cube.Name,
		Image:           cube.Image,
		EnvironmentVars: nonNil(cube.EnvVars),
		ResourceLimits: ResourceLimitsDTO{
			CPUs:   cube.ResourceLimits.CPUs,
			Memory: cube.ResourceLimits.Memory,
		},
		Volumes:     cube.Volumes,
		Labels:      nonNil(cube.Labels),
		ServiceName: cube.ServiceName,
		Ports:       nonNil(cube.Ports),
	}}
	if req.UpdatedCube.Volumes == nil {
		req.UpdatedCube.Volumes = map[string]string{}
	}
	return c.doAccepted(ctx, http.MethodPut, "/cube/"+url.PathEscape(cube.ID), req)
}

// CommitCube snapshots a cube into image:tag.
func (c *Client) CommitCube(ctx context.Context, id, image, tag string) (ActionResult, error) {
	return c.doAccepted(ctx, http.MethodPost, "/cube/"+url.PathEscape(id)+"/commit", CommitRequest{Image: image, Tag: tag})
}

// CubeAction issues deploy, stop, redeploy or delete for a cube.
func (c *Client) CubeAction(ctx context.Context, id string, action lifecycle.Action) (ActionResult, error) {
	switch action {
	case lifecycle.ActionDeploy, lifecycle.ActionStop, lifecycle.ActionRedeploy:
		return c.doAction(ctx, http.MethodPost, "/cube/"+url.PathEscape(id)+"/"+string(action), nil, nil)
	case lifecycle.ActionDelete:
		q := url.Values{"cube_id": {id}}
		return c.doAction(ctx, http.MethodDelete, "/cube/delete", q, nil)
	default:
		return ActionResult{}, fmt.Errorf("%w: unknown cube action %q", lifecycle.ErrInvalidTransition, action)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
