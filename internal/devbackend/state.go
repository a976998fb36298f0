package devbackend

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"cubectl/internal/backend"
	"cubectl/internal/lifecycle"
)

var (
	errNotFound     = errors.New("not found")
	errInvalidInput = errors.New("invalid input")
)

const createdAtLayout = "2006-01-02 15:04:05"

type workspace struct {
	id        int
	name      string
	desc      string
	createdAt time.Time
}

type cube struct {
	id          int
	workspaceID int
	data        backend.ContainerData
	status      lifecycle.CubeStatus
	ip          string
}

// state is the in-memory model. All methods are safe for concurrent use.
type state struct {
	mu         sync.Mutex
	nextID     int
	nextIP     int
	workspaces map[int]*workspace
	cubes      map[int]*cube
	now        func() time.Time
}

func newState() *state {
	return &state{
		nextID:     1,
		nextIP:     2,
		workspaces: make(map[int]*workspace),
		cubes:      make(map[int]*cube),
		now:        time.Now,
	}
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", errInvalidInput, raw)
	}
	return id, nil
}

func (s *state) allocID() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *state) allocIP() string {
	ip := fmt.Sprintf("172.18.0.%d", s.nextIP)
	s.nextIP++
	if s.nextIP > 254 {
		s.nextIP = 2
	}
	return ip
}

func (s *state) createWorkspace(name, desc string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: workspace name is required", errInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workspaces {
		if w.name == name {
			return 0, fmt.Errorf("%w: workspace %q already exists", errInvalidInput, name)
		}
	}
	id := s.allocID()
	s.workspaces[id] = &workspace{id: id, name: name, desc: desc, createdAt: s.now().UTC()}
	return id, nil
}

func (s *state) listWorkspaces() backend.WorkspaceList {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := backend.WorkspaceList{Workspaces: []backend.WorkspaceDTO{}}
	for _, id := range sortedKeys(s.workspaces) {
		w := s.workspaces[id]
		total, running := s.countersLocked(id)
		out.Workspaces = append(out.Workspaces, backend.WorkspaceDTO{
			ID:                backend.ID(strconv.Itoa(id)),
			Name:              w.name,
			Desc:              w.desc,
			TotalContainers:   total,
			RunningContainers: running,
			CreatedAt:         w.createdAt.Format(createdAtLayout),
		})
		out.TotalCubes += total
		out.TotalRunningCubes += running
	}
	out.TotalWorkspaces = len(s.workspaces)
	return out
}

func (s *state) countersLocked(workspaceID int) (total, running int) {
	for _, c := range s.cubes {
		if c.workspaceID != workspaceID {
			continue
		}
		total++
		if c.status == lifecycle.CubeRunning {
			running++
		}
	}
	return total, running
}

// workspaceAction applies deploy, redeploy or stop to every cube of a
// workspace and returns the workspace name.
func (s *state) workspaceAction(id int, action lifecycle.Action) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workspaces[id]
	if !ok {
		return "", fmt.Errorf("%w: workspace %d", errNotFound, id)
	}
	for _, c := range s.cubes {
		if c.workspaceID == id {
			s.applyLocked(c, action)
		}
	}
	return w.name, nil
}

func (s *state) deleteWorkspace(id int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workspaces[id]
	if !ok {
		return "", fmt.Errorf("%w: workspace %d", errNotFound, id)
	}
	for cid, c := range s.cubes {
		if c.workspaceID == id {
			delete(s.cubes, cid)
		}
	}
	delete(s.workspaces, id)
	return w.name, nil
}

func (s *state) listCubes(workspaceID int) ([]backend.CubeSummaryDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workspaces[workspaceID]; !ok {
		return nil, fmt.Errorf("%w: workspace %d", errNotFound, workspaceID)
	}
	out := []backend.CubeSummaryDTO{}
	for _, id := range sortedKeys(s.cubes) {
		c := s.cubes[id]
		if c.workspaceID != workspaceID {
			continue
		}
		out = append(out, backend.CubeSummaryDTO{
			ContainerID:   backend.ID(strconv.Itoa(c.id)),
			ServiceName:   c.data.ServiceName,
			ContainerName: c.data.Name,
			Image:         c.data.Image,
			Status:        string(c.status),
			IPAddress:     c.ip,
		})
	}
	return out, nil
}

func (s *state) getCube(id int) (backend.CubeDetailDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cubes[id]
	if !ok {
		return backend.CubeDetailDTO{}, fmt.Errorf("%w: cube %d", errNotFound, id)
	}
	return backend.CubeDetailDTO{
		ContainerData: copyData(c.data),
		IPAddress:     c.ip,
		Status:        string(c.status),
		WorkspaceID:   backend.ID(strconv.Itoa(c.workspaceID)),
	}, nil
}

func (s *state) createCube(workspaceID int, data backend.CubeData) (int, error) {
	if strings.TrimSpace(data.Name) == "" || strings.TrimSpace(data.Image) == "" {
		return 0, fmt.Errorf("%w: cube name and image are required", errInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workspaces[workspaceID]; !ok {
		return 0, fmt.Errorf("%w: workspace %d", errNotFound, workspaceID)
	}
	id := s.allocID()
	s.cubes[id] = &cube{
		id:          id,
		workspaceID: workspaceID,
		status:      lifecycle.CubeStopped,
		data: copyData(backend.ContainerData{
			Image:           data.Image,
			Name:            data.Name,
			Ports:           data.Ports,
			EnvironmentVars: data.EnvironmentVars,
			Volumes:         data.Volumes,
			Labels:          data.Labels,
			ResourceLimits:  data.ResourceLimits,
			Networks:        []string{"cubes_default"},
			ServiceName:     data.Name,
		}),
	}
	return id, nil
}

func (s *state) updateCube(id int, u backend.UpdatedCube) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cubes[id]
	if !ok {
		return "", fmt.Errorf("%w: cube %d", errNotFound, id)
	}
	if strings.TrimSpace(u.Name) == "" {
		return "", fmt.Errorf("%w: cube name is required", errInvalidInput)
	}
	networks := c.data.Networks
	c.data = copyData(backend.ContainerData{
		Image:           orDefault(u.Image, c.data.Image),
		Name:            u.Name,
		Ports:           u.Ports,
		EnvironmentVars: u.EnvironmentVars,
		Volumes:         u.Volumes,
		Labels:          u.Labels,
		ResourceLimits:  u.ResourceLimits,
		Networks:        networks,
		ServiceName:     orDefault(u.ServiceName, c.data.ServiceName),
	})
	return c.data.Name, nil
}

func (s *state) cubeAction(id int, action lifecycle.Action) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cubes[id]
	if !ok {
		return "", fmt.Errorf("%w: cube %d", errNotFound, id)
	}
	if action == lifecycle.ActionDelete {
		delete(s.cubes, id)
		return c.data.Name, nil
	}
	s.applyLocked(c, action)
	return c.data.Name, nil
}

func (s *state) commitCube(id int, image, tag string) (string, error) {
	if strings.TrimSpace(image) == "" || strings.TrimSpace(tag) == "" {
		return "", fmt.Errorf("%w: image and tag are required", errInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cubes[id]
	if !ok {
		return "", fmt.Errorf("%w: cube %d", errNotFound, id)
	}
	return c.data.Name, nil
}

func (s *state) applyLocked(c *cube, action lifecycle.Action) {
	switch action {
	case lifecycle.ActionDeploy, lifecycle.ActionRedeploy:
		c.status = lifecycle.CubeRunning
		if c.ip == "" {
			c.ip = s.allocIP()
		}
	case lifecycle.ActionStop:
		c.status = lifecycle.CubeStopped
		c.ip = ""
	}
}

// seed creates n demo workspaces, each with a web cube and a dev cube.
func (s *state) seed(n int) {
	for i := 1; i <= n; i++ {
		wsID, err := s.createWorkspace(fmt.Sprintf("demo-%d", i), fmt.Sprintf("Demo workspace %d", i))
		if err != nil {
			continue
		}
		webID, _ := s.createCube(wsID, backend.CubeData{
			Name:   fmt.Sprintf("web-%d", i),
			Image:  "nginx:latest",
			Ports:  []string{"80:80"},
			Labels: []string{fmt.Sprintf("workspace_id=%d", wsID), "service=turplespace"},
		})
		_, _ = s.createCube(wsID, backend.CubeData{
			Name:    fmt.Sprintf("ide-%d", i),
			Image:   "codercom/code-server:dev",
			Volumes: map[string]string{fmt.Sprintf("[DEFAULT]/ide-%d", i): "/home/coder/workspace"},
			Labels:  []string{fmt.Sprintf("workspace_id=%d", wsID), "service=turplespace"},
		})
		if i == 1 {
			_, _ = s.cubeAction(webID, lifecycle.ActionDeploy)
		}
	}
}

func copyData(d backend.ContainerData) backend.ContainerData {
	out := d
	out.Ports = append([]string{}, d.Ports...)
	out.EnvironmentVars = append([]string{}, d.EnvironmentVars...)
	out.Labels = append([]string{}, d.Labels...)
	out.Networks = append([]string{}, d.Networks...)
	out.Volumes = make(map[string]string, len(d.Volumes))
	for k, v := range d.Volumes {
		out.Volumes[k] = v
	}
	return out
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
