package lifecycle

// WorkspaceStatus is the aggregate status of a workspace, derived from the
// counters of its member cubes.
type WorkspaceStatus string

const (
	WorkspaceStopped WorkspaceStatus = "stopped"
	WorkspaceRunning WorkspaceStatus = "running"
	WorkspacePartial WorkspaceStatus = "partial"
)

// CubeStatus is the status of a single cube.
type CubeStatus string

const (
	CubeStopped CubeStatus = "stopped"
	CubeRunning CubeStatus = "running"
	CubePaused  CubeStatus = "paused"
	CubeError   CubeStatus = "error"
	// CubeDeploying only exists on the client while a deploy or redeploy
	// is awaiting the backend. The backend never reports it.
	CubeDeploying CubeStatus = "deploying"
)

// ParseCubeStatus maps a backend status string onto a CubeStatus. Unknown
// values map to CubeError so that no lifecycle action is offered for them.
func ParseCubeStatus(s string) CubeStatus {
	switch CubeStatus(s) {
	case CubeStopped, CubeRunning, CubePaused, CubeError:
		return CubeStatus(s)
	case "":
		return CubeStopped
	default:
		return CubeError
	}
}

// IsTransient reports whether the status is a client-only in-flight state.
func (s CubeStatus) IsTransient() bool {
	return s == CubeDeploying
}

// IsRunning reports whether a cube in this status counts towards its
// workspace's running counter.
func (s CubeStatus) IsRunning() bool {
	return s == CubeRunning
}

// Action is a user-initiated lifecycle action.
type Action string

const (
	ActionDeploy   Action = "deploy"
	ActionStop     Action = "stop"
	ActionRedeploy Action = "redeploy"
	ActionDelete   Action = "delete"
	ActionCreate   Action = "create"
	ActionEdit     Action = "edit"
	ActionCommit   Action = "commit"
)

// Outcome is the phase of an action the transition is computed for.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// DeriveWorkspaceStatus computes a workspace's status from its counters.
// Counters outside 0 <= running <= total are clamped first.
func DeriveWorkspaceStatus(total, running int) WorkspaceStatus {
	total, running = ClampCounters(total, running)
	switch {
	case running == 0:
		return WorkspaceStopped
	case running == total:
		return WorkspaceRunning
	default:
		return WorkspacePartial
	}
}

// ClampCounters enforces 0 <= running <= total.
func ClampCounters(total, running int) (int, int) {
	if total < 0 {
		total = 0
	}
	if running < 0 {
		running = 0
	}
	if running > total {
		running = total
	}
	return total, running
}
