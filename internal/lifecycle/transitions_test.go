package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveWorkspaceStatus(t *testing.T) {
	tests := []struct {
		total, running int
		want           WorkspaceStatus
	}{
		{5, 3, WorkspacePartial},
		{5, 5, WorkspaceRunning},
		{5, 0, WorkspaceStopped},
		{0, 0, WorkspaceStopped},
		{1, 1, WorkspaceRunning},
		{2, 1, WorkspacePartial},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveWorkspaceStatus(tt.total, tt.running), "(%d,%d)", tt.total, tt.running)
	}
}

func TestDeriveWorkspaceStatusExhaustive(t *testing.T) {
	for total := 0; total <= 12; total++ {
		for running := 0; running <= total; running++ {
			got := DeriveWorkspaceStatus(total, running)
			switch {
			case running == 0:
				assert.Equal(t, WorkspaceStopped, got)
			case running == total:
				assert.Equal(t, WorkspaceRunning, got)
			default:
				assert.Equal(t, WorkspacePartial, got)
			}
		}
	}
}

func TestDeriveWorkspaceStatusClampsBadCounters(t *testing.T) {
	assert.Equal(t, WorkspaceRunning, DeriveWorkspaceStatus(2, 7))
	assert.Equal(t, WorkspaceStopped, DeriveWorkspaceStatus(-1, -1))
}

func TestNextCubeStatusTable(t *testing.T) {
	tests := []struct {
		name    string
		current CubeStatus
		action  Action
		outcome Outcome
		want    CubeStatus
	}{
		{"deploy pending", CubeStopped, ActionDeploy, OutcomePending, CubeDeploying},
		{"deploy success", CubeDeploying, ActionDeploy, OutcomeSuccess, CubeRunning},
		{"deploy failure", CubeDeploying, ActionDeploy, OutcomeFailure, CubeStopped},
		{"stop pending keeps running", CubeRunning, ActionStop, OutcomePending, CubeRunning},
		{"stop success", CubeRunning, ActionStop, OutcomeSuccess, CubeStopped},
		{"stop failure", CubeRunning, ActionStop, OutcomeFailure, CubeRunning},
		{"redeploy running pending", CubeRunning, ActionRedeploy, OutcomePending, CubeDeploying},
		{"redeploy stopped pending", CubeStopped, ActionRedeploy, OutcomePending, CubeDeploying},
		{"redeploy success", CubeDeploying, ActionRedeploy, OutcomeSuccess, CubeRunning},
		{"redeploy failure", CubeDeploying, ActionRedeploy, OutcomeFailure, CubeStopped},
		{"delete failure unchanged", CubePaused, ActionDelete, OutcomeFailure, CubePaused},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextCubeStatus(tt.current, tt.action, tt.outcome)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextCubeStatusDeleteSuccessRemoves(t *testing.T) {
	for _, s := range []CubeStatus{CubeStopped, CubeRunning, CubePaused, CubeError} {
		_, err := NextCubeStatus(s, ActionDelete, OutcomeSuccess)
		assert.ErrorIs(t, err, ErrRemoved)
	}
}

func TestNextCubeStatusRejectsUndefinedTransitions(t *testing.T) {
	for _, current := range []CubeStatus{CubePaused, CubeError} {
		for _, action := range []Action{ActionDeploy, ActionStop, ActionRedeploy} {
			got, err := NextCubeStatus(current, action, OutcomePending)
			assert.True(t, errors.Is(err, ErrInvalidTransition), "%s/%s", current, action)
			assert.Equal(t, current, got)
		}
	}

	// Stopping a stopped cube must never pass through deploying.
	got, err := NextCubeStatus(CubeStopped, ActionStop, OutcomePending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, CubeStopped, got)

	_, err = NextCubeStatus(CubeRunning, ActionDeploy, OutcomePending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCheckCubeAction(t *testing.T) {
	assert.NoError(t, CheckCubeAction(CubeStopped, ActionDeploy))
	assert.NoError(t, CheckCubeAction(CubeRunning, ActionStop))
	assert.NoError(t, CheckCubeAction(CubeError, ActionDelete))
	assert.NoError(t, CheckCubeAction(CubePaused, ActionEdit))
	assert.ErrorIs(t, CheckCubeAction(CubeDeploying, ActionDelete), ErrInvalidTransition)
	assert.ErrorIs(t, CheckCubeAction(CubeStopped, ActionCreate), ErrInvalidTransition)
}

func TestCheckWorkspaceAction(t *testing.T) {
	assert.ErrorIs(t, CheckWorkspaceAction(WorkspaceRunning, ActionDeploy), ErrInvalidTransition)
	assert.NoError(t, CheckWorkspaceAction(WorkspacePartial, ActionDeploy))
	assert.ErrorIs(t, CheckWorkspaceAction(WorkspaceStopped, ActionStop), ErrInvalidTransition)
	assert.ErrorIs(t, CheckWorkspaceAction(WorkspaceStopped, ActionRedeploy), ErrInvalidTransition)
	assert.NoError(t, CheckWorkspaceAction(WorkspaceStopped, ActionDelete))
}

func TestWorkspaceCountersAfter(t *testing.T) {
	total, running := WorkspaceCountersAfter(ActionDeploy, 4, 1)
	assert.Equal(t, 4, total)
	assert.Equal(t, 4, running)

	_, running = WorkspaceCountersAfter(ActionStop, 4, 3)
	assert.Equal(t, 0, running)
}

func TestParseCubeStatus(t *testing.T) {
	assert.Equal(t, CubeRunning, ParseCubeStatus("running"))
	assert.Equal(t, CubeStopped, ParseCubeStatus(""))
	assert.Equal(t, CubeError, ParseCubeStatus("exited"))
	// The backend never reports deploying; treat it as unknown.
	assert.Equal(t, CubeError, ParseCubeStatus("deploying"))
}
