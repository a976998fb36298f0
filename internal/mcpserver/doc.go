// Package mcpserver exposes workspace and cube lifecycle actions as MCP
// tools over stdio.
//
// Every tool goes through the same Coordinator as the dashboard, so the
// optimistic transition, in-flight rejection and rollback rules apply
// unchanged. Results are JSON text; failures are returned as tool errors
// rather than protocol errors.
package mcpserver
