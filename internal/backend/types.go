package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"cubectl/internal/lifecycle"
	"cubectl/internal/store"
)

// ID is an entity identifier. The backend sends numeric ids; the client
// keeps them as strings and sends them back as numbers when they are
// numeric.
type ID string

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// MessageResponse is the body of every action endpoint.
type MessageResponse struct {
	Message string `json:"message"`
}

// negations void a "successfully" in the same message.
var negations = map[string]bool{
	"not": true, "never": true, "cannot": true, "failed": true, "unable": true,
}

// Succeeded reports whether the message confirms the action: it must
// contain the word "successfully" and no negation.
func (m MessageResponse) Succeeded() bool {
	words := strings.FieldsFunc(strings.ToLower(m.Message), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	confirmed := false
	for _, w := range words {
		switch {
		case negations[w] || strings.HasSuffix(w, "n't"):
			return false
		case w == "successfully":
			confirmed = true
		}
	}
	return confirmed
}

// WorkspaceList is the body of GET /workspaces.
type WorkspaceList struct {
	Workspaces        []WorkspaceDTO `json:"workspaces"`
	TotalWorkspaces   int            `json:"total_workspaces"`
	TotalCubes        int            `json:"total_cubes"`
	TotalRunningCubes int            `json:"total_running_cubes"`
}

// WorkspaceDTO is one workspace on the wire.
type WorkspaceDTO struct {
	ID                ID     `json:"id"`
	Name              string `json:"name"`
	Desc              string `json:"desc"`
	TotalContainers   int    `json:"total_containers"`
	RunningContainers int    `json:"running_containers"`
	CreatedAt         string `json:"created_at"`
}

// CreateWorkspaceRequest is the body of POST /workspace/create.
type CreateWorkspaceRequest struct {
	Name       string   `json:"name"`
	Desc       string   `json:"desc"`
	Containers []string `json:"containers"`
}

// CubeSummaryDTO is one entry of GET /cubes.
type CubeSummaryDTO struct {
	ContainerID   ID     `json:"container_id"`
	ServiceName   string `json:"service_name"`
	ContainerName string `json:"container_name"`
	Image         string `json:"image"`
	Status        string `json:"status"`
	IPAddress     string `json:"ip_address"`
}

// ResourceLimitsDTO are deploy resource limits on the wire.
type ResourceLimitsDTO struct {
	CPUs   string `json:"cpus,omitempty"`
	Memory string `json:"memory,omitempty"`
	Swap   string `json:"swap,omitempty"`
}

// ContainerData is the full cube configuration of GET /cube/{id}.
type ContainerData struct {
	Image           string            `json:"image"`
	Name            string            `json:"name"`
	Ports           []string          `json:"ports"`
	EnvironmentVars []string          `json:"environment_vars"`
	Volumes         map[string]string `json:"volumes"`
	Labels          []string          `json:"labels"`
	ResourceLimits  ResourceLimitsDTO `json:"resource_limits"`
	Networks        []string          `json:"networks"`
	ServiceName     string            `json:"service_name"`
}

// CubeDetailDTO is the body of GET /cube/{id}.
type CubeDetailDTO struct {
	ContainerData ContainerData `json:"container_data"`
	IPAddress     string        `json:"ip_address"`
	Status        string        `json:"status"`
	WorkspaceID   ID            `json:"workspace_id,omitempty"`
}

// CubeData is the cube payload of POST /cube.
type CubeData struct {
	Name            string            `json:"name"`
	Image           string            `json:"image"`
	Ports           []string          `json:"ports"`
	EnvironmentVars []string          `json:"environment_vars"`
	ResourceLimits  ResourceLimitsDTO `json:"resource_limits"`
	Volumes         map[string]string `json:"volumes"`
	Labels          []string          `json:"labels"`
}

// CreateCubeRequest is the body of POST /cube.
type CreateCubeRequest struct {
	WorkspaceID ID       `json:"workspace_id"`
	CubeData    CubeData `json:"cube_data"`
}

// UpdatedCube is the editable cube configuration of PUT /cube/{id}.
type UpdatedCube struct {
	Name            string            `json:"name"`
	Image           string            `json:"image"`
	EnvironmentVars []string          `json:"environment_vars"`
	ResourceLimits  ResourceLimitsDTO `json:"resource_limits"`
	Volumes         map[string]string `json:"volumes"`
	Labels          []string          `json:"labels"`
	ServiceName     string            `json:"service_name"`
	Ports           []string          `json:"ports"`
}

// UpdateCubeRequest is the body of PUT /cube/{id}.
type UpdateCubeRequest struct {
	UpdatedCube UpdatedCube `json:"updated_cube"`
}

// CommitRequest is the body of POST /cube/{id}/commit.
type CommitRequest struct {
	Image string `json:"image"`
	Tag   string `json:"tag"`
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02",
}

func parseCreatedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ToWorkspace converts the wire form into a store workspace.
func (w WorkspaceDTO) ToWorkspace() store.Workspace {
	total, running := lifecycle.ClampCounters(w.TotalContainers, w.RunningContainers)
	return store.Workspace{
		ID:                string(w.ID),
		Name:              w.Name,
		Description:       w.Desc,
		TotalContainers:   total,
		RunningContainers: running,
		CreatedAt:         parseCreatedAt(w.CreatedAt),
	}
}

// ToCube converts a list entry into a store cube of workspaceID.
func (c CubeSummaryDTO) ToCube(workspaceID string) store.Cube {
	return store.Cube{
		ID:          string(c.ContainerID),
		WorkspaceID: workspaceID,
		Name:        c.ContainerName,
		Image:       c.Image,
		ServiceName: c.ServiceName,
		Status:      lifecycle.ParseCubeStatus(c.Status),
		IPAddress:   normalizeIP(c.IPAddress),
	}
}

// ToCube converts a detail response into a fully populated store cube.
func (d CubeDetailDTO) ToCube(id string) store.Cube {
	cd := d.ContainerData
	return store.Cube{
		ID:          id,
		WorkspaceID: string(d.WorkspaceID),
		Name:        cd.Name,
		Image:       cd.Image,
		ServiceName: cd.ServiceName,
		Status:      lifecycle.ParseCubeStatus(d.Status),
		IPAddress:   normalizeIP(d.IPAddress),
		Ports:       cd.Ports,
		EnvVars:     cd.EnvironmentVars,
		Volumes:     cd.Volumes,
		Labels:      cd.Labels,
		Networks:    cd.Networks,
		ResourceLimits: store.ResourceLimits{
			CPUs:   cd.ResourceLimits.CPUs,
			Memory: cd.ResourceLimits.Memory,
			Swap:   cd.ResourceLimits.Swap,
		},
		Detailed: true,
	}
}

func normalizeIP(ip string) string {
	if strings.TrimSpace(ip) == "" {
		return "N/A"
	}
	return ip
}
