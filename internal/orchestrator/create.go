package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"cubectl/internal/backend"
	"cubectl/internal/lifecycle"
	"cubectl/internal/store"
	"cubectl/pkg/logging"
)

// CreateWorkspace creates an empty workspace and reloads the workspace
// list on success. Nothing is added to the store on failure.
func (c *Coordinator) CreateWorkspace(ctx context.Context, name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: workspace name is required", ErrInvalidArgument)
	}

	return c.runTransition(ctx, &transition{
		target: Workspace(""),
		action: lifecycle.ActionCreate,
		label:  "workspace " + name,
		request: func(ctx context.Context) (backend.ActionResult, error) {
			return c.backend.CreateWorkspace(ctx, name, description)
		},
		after: func(ctx context.Context) {
			if err := c.RefreshWorkspaces(ctx); err != nil {
				logging.Warn("Coordinator", "Reload after creating workspace %s failed: %v", name, err)
			}
		},
		successMessage: fmt.Sprintf("Workspace %s created", name),
	})
}

// CreateCube creates a cube in a loaded workspace and reloads the
// workspace list and the workspace's cubes on success.
func (c *Coordinator) CreateCube(ctx context.Context, workspaceID string, spec backend.CubeSpec) error {
	if _, ok := c.store.Workspace(workspaceID); !ok {
		return fmt.Errorf("workspace %s: %w", workspaceID, ErrNotFound)
	}
	spec.Name = strings.TrimSpace(spec.Name)
	if spec.Name == "" || strings.TrimSpace(spec.Image) == "" {
		return fmt.Errorf("%w: cube name and image are required", ErrInvalidArgument)
	}

	return c.runTransition(ctx, &transition{
		target: Cube(""),
		action: lifecycle.ActionCreate,
		label:  "cube " + spec.Name,
		request: func(ctx context.Context) (backend.ActionResult, error) {
			return c.backend.CreateCube(ctx, workspaceID, spec)
		},
		after: func(ctx context.Context) {
			if err := c.RefreshWorkspaces(ctx); err != nil {
				logging.Warn("Coordinator", "Reload after creating cube %s failed: %v", spec.Name, err)
				return
			}
			if err := c.RefreshCubes(ctx, workspaceID); err != nil {
				logging.Warn("Coordinator", "Reload after creating cube %s failed: %v", spec.Name, err)
			}
		},
		successMessage: fmt.Sprintf("Cube %s created", spec.Name),
	})
}

// CubeEdit holds the editable fields of a cube.
type CubeEdit struct {
	Name           string
	Image          string
	ServiceName    string
	Ports          []string
	EnvVars        []string
	Volumes        map[string]string
	Labels         []string
	ResourceLimits store.ResourceLimits
}

// EditFrom returns the editable fields of c.
func EditFrom(c store.Cube) CubeEdit {
	return CubeEdit{
		Name:           c.Name,
		Image:          c.Image,
		ServiceName:    c.ServiceName,
		Ports:          c.Ports,
		EnvVars:        c.EnvVars,
		Volumes:        c.Volumes,
		Labels:         c.Labels,
		ResourceLimits: c.ResourceLimits,
	}
}

func (e CubeEdit) applyTo(c *store.Cube) {
	c.Name = e.Name
	c.Image = e.Image
	c.ServiceName = e.ServiceName
	c.Ports = e.Ports
	c.EnvVars = e.EnvVars
	c.Volumes = e.Volumes
	c.Labels = e.Labels
	c.ResourceLimits = e.ResourceLimits
}

// EditCube replaces the editable configuration of a cube. There is no
// optimistic phase: the store is updated once the backend accepts the
// change, and the cube's status is preserved.
func (c *Coordinator) EditCube(ctx context.Context, id string, edit CubeEdit) error {
	cube, ok := c.store.Cube(id)
	if !ok {
		return fmt.Errorf("cube %s: %w", id, ErrNotFound)
	}

	return c.runTransition(ctx, &transition{
		target: Cube(id),
		action: lifecycle.ActionEdit,
		label:  "cube " + cubeName(cube),
		apply: func() error {
			current, ok := c.store.Cube(id)
			if !ok {
				return fmt.Errorf("cube %s: %w", id, ErrNotFound)
			}
			cube = current
			return lifecycle.CheckCubeAction(current.Status, lifecycle.ActionEdit)
		},
		request: func(ctx context.Context) (backend.ActionResult, error) {
			updated := cube
			edit.applyTo(&updated)
			return c.backend.UpdateCube(ctx, updated)
		},
		confirm: func(backend.ActionResult) error {
			_, err := c.store.UpdateCube(id, func(cb *store.Cube) {
				edit.applyTo(cb)
				cb.LastError = ""
			})
			return ignoreNotFound(err)
		},
		revert: func(cause error) {
			_, _ = c.store.UpdateCube(id, func(cb *store.Cube) { cb.LastError = cause.Error() })
		},
		successMessage: fmt.Sprintf("Cube %s updated", cubeName(cube)),
	})
}

// CommitCube snapshots a cube into image:tag. Both are required. The
// cube's status does not change.
func (c *Coordinator) CommitCube(ctx context.Context, id, image, tag string) error {
	image, tag = strings.TrimSpace(image), strings.TrimSpace(tag)
	if image == "" || tag == "" {
		return fmt.Errorf("%w: both image name and tag are required", ErrInvalidArgument)
	}
	cube, ok := c.store.Cube(id)
	if !ok {
		return fmt.Errorf("cube %s: %w", id, ErrNotFound)
	}

	return c.runTransition(ctx, &transition{
		target: Cube(id),
		action: lifecycle.ActionCommit,
		label:  "cube " + cubeName(cube),
		apply: func() error {
			current, ok := c.store.Cube(id)
			if !ok {
				return fmt.Errorf("cube %s: %w", id, ErrNotFound)
			}
			return lifecycle.CheckCubeAction(current.Status, lifecycle.ActionCommit)
		},
		request: func(ctx context.Context) (backend.ActionResult, error) {
			return c.backend.CommitCube(ctx, id, image, tag)
		},
		successMessage: fmt.Sprintf("Cube %s committed to %s:%s", cubeName(cube), image, tag),
	})
}
