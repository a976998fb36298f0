// Package orchestrator coordinates lifecycle actions on workspaces and cubes.
//
// The Coordinator is the only component that issues mutating backend
// requests. Every action goes through the same three steps:
//
//  1. Begin: validate the action against the entity's current status,
//     reject it if another action on the same entity is in flight, and
//     apply the optimistic transition to the store.
//  2. Await: issue exactly one backend request.
//  3. Reconcile: on success apply the confirmed transition; on failure
//     revert and surface a single error notice. Nothing is retried.
//
// Begin is synchronous so that a UI can render the optimistic status before
// the request is sent; Await blocks and is meant to run on its own
// goroutine. Run combines both for blocking callers such as the CLI.
//
// # Usage Example
//
//	coord := orchestrator.NewCoordinator(client, st, notifier)
//	if err := coord.RefreshWorkspaces(ctx); err != nil {
//	    return err
//	}
//	if err := coord.Run(ctx, orchestrator.Cube("12"), lifecycle.ActionDeploy); err != nil {
//	    return err
//	}
//
// Rejections made before any request (invalid transition, action in
// flight, unknown entity) are returned to the caller and produce no notice.
package orchestrator
