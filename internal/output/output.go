// Package output formats workspaces and cubes for the command line and
// for MCP tool results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"cubectl/internal/store"
)

// Format selects how lists and entities are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q, want table or json", s)
	}
}

// Workspace is the JSON shape of a workspace.
type Workspace struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Status            string `json:"status"`
	TotalContainers   int    `json:"total_containers"`
	RunningContainers int    `json:"running_containers"`
	CreatedAt         string `json:"created_at,omitempty"`
	LastError         string `json:"last_error,omitempty"`
}

// Cube is the JSON shape of a cube.
type Cube struct {
	ID             string               `json:"id"`
	WorkspaceID    string               `json:"workspace_id"`
	Name           string               `json:"name"`
	Image          string               `json:"image"`
	Status         string               `json:"status"`
	IPAddress      string               `json:"ip_address,omitempty"`
	Ports          []string             `json:"ports,omitempty"`
	EnvVars        []string             `json:"env_vars,omitempty"`
	Volumes        map[string]string    `json:"volumes,omitempty"`
	Labels         []string             `json:"labels,omitempty"`
	Networks       []string             `json:"networks,omitempty"`
	ResourceLimits store.ResourceLimits `json:"resource_limits"`
	CodeURL        string               `json:"code_url,omitempty"`
	LastError      string               `json:"last_error,omitempty"`
}

// FromWorkspace converts a store workspace.
func FromWorkspace(w store.Workspace) Workspace {
	return Workspace{
		ID:                w.ID,
		Name:              w.Name,
		Description:       w.Description,
		Status:            string(w.Status()),
		TotalContainers:   w.TotalContainers,
		RunningContainers: w.RunningContainers,
		CreatedAt:         w.CreatedDate(),
		LastError:         w.LastError,
	}
}

// FromCube converts a store cube.
func FromCube(c store.Cube) Cube {
	v := Cube{
		ID:             c.ID,
		WorkspaceID:    c.WorkspaceID,
		Name:           c.Name,
		Image:          c.Image,
		Status:         string(c.Status),
		IPAddress:      c.IPAddress,
		Ports:          c.Ports,
		EnvVars:        c.EnvVars,
		Volumes:        c.Volumes,
		Labels:         c.Labels,
		Networks:       c.Networks,
		ResourceLimits: c.ResourceLimits,
		LastError:      c.LastError,
	}
	if c.IsDevContainer() {
		v.CodeURL = c.CodeURL()
	}
	return v
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes rows under headers with a light border.
func Table(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Workspaces prints a workspace list.
func Workspaces(w io.Writer, f Format, list []store.Workspace) error {
	if f == FormatJSON {
		out := make([]Workspace, 0, len(list))
		for _, ws := range list {
			out = append(out, FromWorkspace(ws))
		}
		return JSON(w, out)
	}
	rows := make([][]string, 0, len(list))
	for _, ws := range list {
		rows = append(rows, []string{
			ws.ID,
			ws.Name,
			string(ws.Status()),
			fmt.Sprintf("%d/%d", ws.RunningContainers, ws.TotalContainers),
			ws.CreatedDate(),
			ws.Description,
		})
	}
	return Table(w, []string{"ID", "NAME", "STATUS", "RUNNING", "CREATED", "DESCRIPTION"}, rows)
}

// Cubes prints a cube list.
func Cubes(w io.Writer, f Format, list []store.Cube) error {
	if f == FormatJSON {
		out := make([]Cube, 0, len(list))
		for _, c := range list {
			out = append(out, FromCube(c))
		}
		return JSON(w, out)
	}
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		ip := c.IPAddress
		if ip == "" {
			ip = "N/A"
		}
		rows = append(rows, []string{c.ID, c.Name, string(c.Status), ip, c.Image})
	}
	return Table(w, []string{"ID", "NAME", "STATUS", "IP", "IMAGE"}, rows)
}

// CubeDetail prints one cube with its full configuration.
func CubeDetail(w io.Writer, f Format, c store.Cube) error {
	v := FromCube(c)
	if f == FormatJSON {
		return JSON(w, v)
	}
	rows := [][]string{
		{"ID", v.ID},
		{"Workspace", v.WorkspaceID},
		{"Name", v.Name},
		{"Status", v.Status},
		{"Image", v.Image},
		{"IP address", v.IPAddress},
		{"Ports", strings.Join(v.Ports, ", ")},
		{"Environment", strings.Join(v.EnvVars, ", ")},
		{"Volumes", joinMap(v.Volumes)},
		{"Labels", strings.Join(v.Labels, ", ")},
		{"Networks", strings.Join(v.Networks, ", ")},
		{"CPUs", v.ResourceLimits.CPUs},
		{"Memory", v.ResourceLimits.Memory},
	}
	if v.CodeURL != "" {
		rows = append(rows, []string{"Code", v.CodeURL})
	}
	return Table(w, []string{"FIELD", "VALUE"}, rows)
}

func joinMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+m[k])
	}
	return strings.Join(parts, ", ")
}
