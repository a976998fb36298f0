package lifecycle

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an action is not allowed from the
// entity's current status. Callers reject such actions before contacting
// the backend.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrRemoved is returned by NextCubeStatus for a confirmed delete: the
// entity no longer has a status.
var ErrRemoved = errors.New("entity removed")

type transitionKey struct {
	current CubeStatus
	action  Action
	outcome Outcome
}

// cubeTransitions is the complete cube transition table. Delete is handled
// separately since it applies to every source status.
var cubeTransitions = map[transitionKey]CubeStatus{
	{CubeStopped, ActionDeploy, OutcomePending}:   CubeDeploying,
	{CubeDeploying, ActionDeploy, OutcomeSuccess}: CubeRunning,
	{CubeDeploying, ActionDeploy, OutcomeFailure}: CubeStopped,

	{CubeRunning, ActionStop, OutcomePending}: CubeRunning,
	{CubeRunning, ActionStop, OutcomeSuccess}: CubeStopped,
	{CubeRunning, ActionStop, OutcomeFailure}: CubeRunning,

	{CubeRunning, ActionRedeploy, OutcomePending}:   CubeDeploying,
	{CubeStopped, ActionRedeploy, OutcomePending}:   CubeDeploying,
	{CubeDeploying, ActionRedeploy, OutcomeSuccess}: CubeRunning,
	{CubeDeploying, ActionRedeploy, OutcomeFailure}: CubeStopped,
}

// NextCubeStatus returns the status a cube moves to when action reaches
// outcome from current.
//
// A successful delete returns ErrRemoved; a failed delete leaves the status
// unchanged. Every other combination missing from the table, including any
// deploy/stop/redeploy from paused or error, yields ErrInvalidTransition.
func NextCubeStatus(current CubeStatus, action Action, outcome Outcome) (CubeStatus, error) {
	if action == ActionDelete {
		switch outcome {
		case OutcomeSuccess:
			return "", ErrRemoved
		default:
			return current, nil
		}
	}

	next, ok := cubeTransitions[transitionKey{current, action, outcome}]
	if !ok {
		return current, fmt.Errorf("%w: cannot %s a %s cube (%s)", ErrInvalidTransition, action, current, outcome)
	}
	return next, nil
}

// CheckCubeAction reports whether action may be started from current.
func CheckCubeAction(current CubeStatus, action Action) error {
	switch action {
	case ActionDeploy, ActionStop, ActionRedeploy:
		_, err := NextCubeStatus(current, action, OutcomePending)
		return err
	case ActionEdit, ActionCommit, ActionDelete:
		if current.IsTransient() {
			return fmt.Errorf("%w: cannot %s a %s cube", ErrInvalidTransition, action, current)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown cube action %q", ErrInvalidTransition, action)
	}
}

// CheckWorkspaceAction reports whether action may be started on a workspace
// in the given status. Deploy is pointless on a fully running workspace,
// redeploy and stop on a fully stopped one.
func CheckWorkspaceAction(status WorkspaceStatus, action Action) error {
	switch action {
	case ActionDeploy:
		if status == WorkspaceRunning {
			return fmt.Errorf("%w: workspace is already running", ErrInvalidTransition)
		}
	case ActionRedeploy, ActionStop:
		if status == WorkspaceStopped {
			return fmt.Errorf("%w: cannot %s a stopped workspace", ErrInvalidTransition, action)
		}
	case ActionDelete:
	default:
		return fmt.Errorf("%w: unknown workspace action %q", ErrInvalidTransition, action)
	}
	return nil
}

// WorkspaceCountersAfter returns the counters of a workspace once action
// has been confirmed by the backend.
func WorkspaceCountersAfter(action Action, total, running int) (int, int) {
	switch action {
	case ActionDeploy, ActionRedeploy:
		return ClampCounters(total, total)
	case ActionStop:
		return ClampCounters(total, 0)
	default:
		return ClampCounters(total, running)
	}
}
