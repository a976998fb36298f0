// Package devbackend is an in-memory implementation of the container
// management API that cubectl talks to.
//
// It serves the same REST endpoints and log websocket as the real backend
// so the dashboard, the CLI and the integration tests can run without
// Docker. State lives in memory and is lost on restart. Failures can be
// injected per entity and action.
package devbackend
