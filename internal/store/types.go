package store

import (
	"fmt"
	"strings"
	"time"

	"cubectl/internal/lifecycle"
)

// Workspace is a named group of cubes with counters maintained by the
// backend and by confirmed lifecycle actions.
type Workspace struct {
	ID                string
	Name              string
	Description       string
	TotalContainers   int
	RunningContainers int
	CreatedAt         time.Time
	// LastError is the message of the last failed action, cleared by the
	// next confirmed one.
	LastError string
}

// Status derives the aggregate workspace status from its counters.
func (w Workspace) Status() lifecycle.WorkspaceStatus {
	return lifecycle.DeriveWorkspaceStatus(w.TotalContainers, w.RunningContainers)
}

// CreatedDate returns the creation date as YYYY-MM-DD, or "" if unknown.
func (w Workspace) CreatedDate() string {
	if w.CreatedAt.IsZero() {
		return ""
	}
	return w.CreatedAt.UTC().Format("2006-01-02")
}

// ResourceLimits are the container's deploy resource limits, kept in the
// backend's string notation ("0.5", "512m").
type ResourceLimits struct {
	CPUs   string
	Memory string
	Swap   string
}

// Cube is a managed container instance.
type Cube struct {
	ID             string
	WorkspaceID    string
	Name           string
	Image          string
	ServiceName    string
	Status         lifecycle.CubeStatus
	IPAddress      string
	Ports          []string
	EnvVars        []string
	Volumes        map[string]string
	Labels         []string
	Networks       []string
	ResourceLimits ResourceLimits
	LastError      string
	// Detailed is set once the full configuration has been fetched; list
	// responses only carry the summary fields.
	Detailed bool
}

// ImageTag returns the tag part of the image reference, or "".
func (c Cube) ImageTag() string {
	_, tag, found := strings.Cut(c.Image, ":")
	if !found {
		return ""
	}
	return tag
}

// IsDevContainer reports whether the cube runs a browser IDE image.
func (c Cube) IsDevContainer() bool {
	return c.ImageTag() == "dev"
}

// CodeURL is the address of the browser IDE served by a dev cube.
func (c Cube) CodeURL() string {
	if c.IPAddress == "" || c.IPAddress == "N/A" {
		return ""
	}
	return fmt.Sprintf("http://%s:8080", c.IPAddress)
}

func (c Cube) clone() Cube {
	out := c
	out.Ports = append([]string(nil), c.Ports...)
	out.EnvVars = append([]string(nil), c.EnvVars...)
	out.Labels = append([]string(nil), c.Labels...)
	out.Networks = append([]string(nil), c.Networks...)
	if c.Volumes != nil {
		out.Volumes = make(map[string]string, len(c.Volumes))
		for k, v := range c.Volumes {
			out.Volumes[k] = v
		}
	}
	return out
}

// Summary holds the dashboard-wide totals reported with the workspace list.
type Summary struct {
	TotalWorkspaces   int
	TotalCubes        int
	TotalRunningCubes int
}

// EventKind classifies a store change.
type EventKind string

const (
	EventWorkspacesReplaced EventKind = "workspaces-replaced"
	EventWorkspaceUpdated   EventKind = "workspace-updated"
	EventWorkspaceRemoved   EventKind = "workspace-removed"
	EventCubesReplaced      EventKind = "cubes-replaced"
	EventCubeUpdated        EventKind = "cube-updated"
	EventCubeRemoved        EventKind = "cube-removed"
)

// ChangeEvent describes one committed store transaction.
type ChangeEvent struct {
	Kind     EventKind
	EntityID string
	// WorkspaceID is the owning workspace for cube events.
	WorkspaceID string
	OldStatus   lifecycle.CubeStatus
	NewStatus   lifecycle.CubeStatus
}
