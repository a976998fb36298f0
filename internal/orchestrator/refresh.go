package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"cubectl/internal/lifecycle"
	"cubectl/internal/store"
	"cubectl/pkg/logging"
)

// maxConcurrentActions bounds fan-out operations.
const maxConcurrentActions = 4

// RefreshWorkspaces loads the workspace list and dashboard totals.
func (c *Coordinator) RefreshWorkspaces(ctx context.Context) error {
	list, summary, err := c.backend.ListWorkspaces(ctx)
	if err != nil {
		logging.Error("Coordinator", err, "Failed to load workspaces")
		return fmt.Errorf("loading workspaces: %w", err)
	}
	c.store.ReplaceWorkspaces(list, summary)
	logging.Debug("Coordinator", "Loaded %d workspaces", len(list))
	return nil
}

// RefreshCubes loads the cubes of a workspace. Cubes with an action in
// flight keep their local status.
func (c *Coordinator) RefreshCubes(ctx context.Context, workspaceID string) error {
	cubes, err := c.backend.ListCubes(ctx, workspaceID)
	if err != nil {
		logging.Error("Coordinator", err, "Failed to load cubes of workspace %s", workspaceID)
		return fmt.Errorf("loading cubes of workspace %s: %w", workspaceID, err)
	}
	c.store.ReplaceCubes(workspaceID, cubes, c.inFlightCubes())
	logging.Debug("Coordinator", "Loaded %d cubes of workspace %s", len(cubes), workspaceID)
	return nil
}

// RefreshCube loads the full configuration of a cube. A cube whose owner
// is unknown is returned without being stored.
func (c *Coordinator) RefreshCube(ctx context.Context, id string) (store.Cube, error) {
	cube, err := c.backend.GetCube(ctx, id)
	if err != nil {
		logging.Error("Coordinator", err, "Failed to load cube %s", id)
		return store.Cube{}, fmt.Errorf("loading cube %s: %w", id, err)
	}

	if _, known := c.store.Cube(id); !known && cube.WorkspaceID == "" {
		return cube, nil
	}
	return c.store.PutCube(cube, c.InFlight(Cube(id))), nil
}

// fanOut runs action on every cube of a workspace it applies to. Cubes
// for which the action is not a valid transition are skipped.
func (c *Coordinator) fanOut(ctx context.Context, workspaceID string, action lifecycle.Action) (int, error) {
	var targets []string
	for _, cube := range c.store.Cubes(workspaceID) {
		if lifecycle.CheckCubeAction(cube.Status, action) == nil && !c.InFlight(Cube(cube.ID)) {
			targets = append(targets, cube.ID)
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}

	pending := make([]*Pending, 0, len(targets))
	var beginErr error
	for _, id := range targets {
		p, err := c.Begin(Cube(id), action)
		if err != nil {
			beginErr = errors.Join(beginErr, err)
			continue
		}
		pending = append(pending, p)
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentActions)
	done := make([]bool, len(pending))
	for i, p := range pending {
		g.Go(func() error {
			if err := p.Await(ctx); err != nil {
				return err
			}
			done[i] = true
			return nil
		})
	}
	err := g.Wait()

	n := 0
	for _, ok := range done {
		if ok {
			n++
		}
	}
	logging.Info("Coordinator", "%s on workspace %s: %d of %d cubes", action, workspaceID, n, len(targets))
	return n, errors.Join(beginErr, err)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Load makes sure the target and what its actions touch are in the store:
// the workspace list, and for a workspace its cubes. Callers without a
// long-lived view, such as the CLI, load before acting.
func (c *Coordinator) Load(ctx context.Context, target Target) error {
	switch target.Kind {
	case KindWorkspace:
		if err := c.RefreshWorkspaces(ctx); err != nil {
			return err
		}
		if _, ok := c.store.Workspace(target.ID); !ok {
			return fmt.Errorf("workspace %s: %w", target.ID, ErrNotFound)
		}
		return c.RefreshCubes(ctx, target.ID)
	case KindCube:
		if _, ok := c.store.Cube(target.ID); ok {
			return nil
		}
		// The owner's cube list is loaded as a whole so that its counters
		// stay authoritative.
		cube, err := c.backend.GetCube(ctx, target.ID)
		if err != nil {
			return fmt.Errorf("loading cube %s: %w", target.ID, err)
		}
		if err := c.RefreshWorkspaces(ctx); err != nil {
			return err
		}
		if cube.WorkspaceID != "" {
			if err := c.RefreshCubes(ctx, cube.WorkspaceID); err != nil {
				return err
			}
		}
		if _, ok := c.store.Cube(target.ID); !ok {
			return fmt.Errorf("cube %s: %w", target.ID, ErrNotFound)
		}
		c.store.PutCube(cube, false)
		return nil
	default:
		return fmt.Errorf("%w: unknown entity kind %q", ErrInvalidArgument, target.Kind)
	}
}
