// Package lifecycle holds the pure status model for workspaces and cubes.
//
// Nothing in this package performs I/O. It answers two questions:
//
//   - what is a workspace's aggregate status given its counters
//     (DeriveWorkspaceStatus), and
//   - which status does a cube move to when an action is pending, confirmed
//     or failed (NextCubeStatus).
//
// The orchestrator consults these functions before issuing a backend request
// so that invalid actions are rejected locally, and again when the response
// arrives to reconcile or roll back.
package lifecycle
