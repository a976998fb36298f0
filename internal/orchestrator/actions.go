package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"cubectl/internal/backend"
	"cubectl/internal/lifecycle"
	"cubectl/internal/store"
	"cubectl/pkg/logging"
)

func (c *Coordinator) beginCube(target Target, action lifecycle.Action) (*Pending, error) {
	cube, ok := c.store.Cube(target.ID)
	if !ok {
		return nil, fmt.Errorf("cube %s: %w", target.ID, ErrNotFound)
	}

	t := &transition{
		target: target,
		action: action,
		label:  "cube " + cubeName(cube),
		request: func(ctx context.Context) (backend.ActionResult, error) {
			return c.backend.CubeAction(ctx, target.ID, action)
		},
	}

	switch action {
	case lifecycle.ActionDeploy, lifecycle.ActionStop, lifecycle.ActionRedeploy:
		c.cubeStatusTransition(t)
	case lifecycle.ActionDelete:
		c.cubeDeleteTransition(t)
	default:
		return nil, fmt.Errorf("%w: %s is not a cube lifecycle action", lifecycle.ErrInvalidTransition, action)
	}
	t.successMessage = fmt.Sprintf("Cube %s %s", cubeName(cube), pastTense(action))
	return c.begin(t)
}

// cubeStatusTransition wires deploy, stop and redeploy through the cube
// transition table: pending on begin, success or failure on reconcile.
func (c *Coordinator) cubeStatusTransition(t *transition) {
	var pending lifecycle.CubeStatus

	t.apply = func() error {
		// Re-read under the coordinator lock: the status may have moved
		// since Begin looked the cube up.
		cube, ok := c.store.Cube(t.target.ID)
		if !ok {
			return fmt.Errorf("cube %s: %w", t.target.ID, ErrNotFound)
		}
		if err := lifecycle.CheckCubeAction(cube.Status, t.action); err != nil {
			return err
		}
		next, err := lifecycle.NextCubeStatus(cube.Status, t.action, lifecycle.OutcomePending)
		if err != nil {
			return err
		}
		pending = next
		_, err = c.store.UpdateCube(t.target.ID, func(cb *store.Cube) { cb.Status = next })
		return err
	}
	t.confirm = func(backend.ActionResult) error {
		return c.settleCube(t, pending, lifecycle.OutcomeSuccess, nil)
	}
	t.revert = func(cause error) {
		if err := c.settleCube(t, pending, lifecycle.OutcomeFailure, cause); err != nil {
			logging.Warn("Coordinator", "Could not revert %s on %s: %v", t.action, t.target, err)
		}
	}
}

func (c *Coordinator) settleCube(t *transition, pending lifecycle.CubeStatus, outcome lifecycle.Outcome, cause error) error {
	next, err := lifecycle.NextCubeStatus(pending, t.action, outcome)
	if err != nil {
		return err
	}
	_, err = c.store.UpdateCube(t.target.ID, func(cb *store.Cube) {
		cb.Status = next
		if cause != nil {
			cb.LastError = cause.Error()
		} else {
			cb.LastError = ""
		}
	})
	if errors.Is(err, store.ErrNotFound) {
		// Removed by a concurrent refresh; nothing left to reconcile.
		return nil
	}
	return err
}

func (c *Coordinator) cubeDeleteTransition(t *transition) {
	t.apply = func() error {
		cube, ok := c.store.Cube(t.target.ID)
		if !ok {
			return fmt.Errorf("cube %s: %w", t.target.ID, ErrNotFound)
		}
		return lifecycle.CheckCubeAction(cube.Status, lifecycle.ActionDelete)
	}
	t.confirm = func(backend.ActionResult) error {
		_, err := c.store.RemoveCube(t.target.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	t.revert = func(cause error) {
		_, _ = c.store.UpdateCube(t.target.ID, func(cb *store.Cube) { cb.LastError = cause.Error() })
	}
}

func (c *Coordinator) beginWorkspace(target Target, action lifecycle.Action) (*Pending, error) {
	ws, ok := c.store.Workspace(target.ID)
	if !ok {
		return nil, fmt.Errorf("workspace %s: %w", target.ID, ErrNotFound)
	}

	switch action {
	case lifecycle.ActionDeploy, lifecycle.ActionRedeploy, lifecycle.ActionStop, lifecycle.ActionDelete:
	default:
		return nil, fmt.Errorf("%w: %s is not a workspace lifecycle action", lifecycle.ErrInvalidTransition, action)
	}

	label := "workspace " + ws.Name
	t := &transition{
		target: target,
		action: action,
		label:  label,
		apply: func() error {
			current, ok := c.store.Workspace(target.ID)
			if !ok {
				return fmt.Errorf("workspace %s: %w", target.ID, ErrNotFound)
			}
			return lifecycle.CheckWorkspaceAction(current.Status(), action)
		},
		request: func(ctx context.Context) (backend.ActionResult, error) {
			return c.backend.WorkspaceAction(ctx, target.ID, action)
		},
		confirm: func(backend.ActionResult) error {
			var err error
			if action == lifecycle.ActionDelete {
				_, err = c.store.RemoveWorkspace(target.ID)
			} else {
				_, err = c.store.ApplyWorkspaceAction(target.ID, action, c.inFlightCubes())
				if err == nil {
					_, err = c.store.UpdateWorkspace(target.ID, func(w *store.Workspace) { w.LastError = "" })
				}
			}
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		},
		revert: func(cause error) {
			_, _ = c.store.UpdateWorkspace(target.ID, func(w *store.Workspace) { w.LastError = cause.Error() })
		},
		successMessage: fmt.Sprintf("Workspace %s %s", ws.Name, pastTense(action)),
	}
	return c.begin(t)
}

// StopWorkspaceCubes stops every running cube of a workspace
// concurrently. Each stop is an independent action; partial completion
// leaves the workspace partial. It returns the number of cubes stopped
// and the first error encountered.
func (c *Coordinator) StopWorkspaceCubes(ctx context.Context, workspaceID string) (int, error) {
	if _, ok := c.store.Workspace(workspaceID); !ok {
		return 0, fmt.Errorf("workspace %s: %w", workspaceID, ErrNotFound)
	}
	return c.fanOut(ctx, workspaceID, lifecycle.ActionStop)
}

func cubeName(c store.Cube) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

func pastTense(a lifecycle.Action) string {
	switch a {
	case lifecycle.ActionDeploy:
		return "deployed"
	case lifecycle.ActionStop:
		return "stopped"
	case lifecycle.ActionRedeploy:
		return "redeployed"
	case lifecycle.ActionDelete:
		return "deleted"
	case lifecycle.ActionCreate:
		return "created"
	case lifecycle.ActionEdit:
		return "updated"
	case lifecycle.ActionCommit:
		return "committed"
	default:
		return string(a) + "ed"
	}
}
