package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"cubectl/internal/lifecycle"
)

// ErrNotFound is returned when an entity is not present in the store.
var ErrNotFound = errors.New("not found")

// Subscription receives change events until it is closed.
type Subscription struct {
	ID      string
	Channel chan ChangeEvent
	closed  bool
	mu      sync.Mutex
}

// Close closes the subscription channel.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.Channel)
		s.closed = true
	}
}

// IsClosed returns whether the subscription is closed.
func (s *Subscription) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Metrics tracks store activity.
type Metrics struct {
	Changes             int64
	LastChange          time.Time
	ActiveSubscriptions int
	DeliveredEvents     int64
	DroppedEvents       int64
}

// Store is the single owner of workspace and cube state. Every mutation is
// one critical section, so a cube delete and the matching workspace counter
// update are never observed separately. Readers receive copies.
type Store struct {
	mu sync.RWMutex

	workspaces     map[string]Workspace
	workspaceOrder []string
	cubes          map[string]Cube
	cubeOrder      map[string][]string // workspace id -> cube ids
	summary        Summary

	subscriptions map[string]*Subscription
	subIDCounter  int64
	metrics       Metrics
}

// New creates an empty store.
func New() *Store {
	return &Store{
		workspaces:    make(map[string]Workspace),
		cubes:         make(map[string]Cube),
		cubeOrder:     make(map[string][]string),
		subscriptions: make(map[string]*Subscription),
	}
}

// Workspaces returns all workspaces in backend order.
func (s *Store) Workspaces() []Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Workspace, 0, len(s.workspaceOrder))
	for _, id := range s.workspaceOrder {
		out = append(out, s.workspaces[id])
	}
	return out
}

// Workspace returns a workspace by id.
func (s *Store) Workspace(id string) (Workspace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workspaces[id]
	return w, ok
}

// Summary returns the dashboard totals.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Cubes returns the cubes of a workspace in backend order.
func (s *Store) Cubes(workspaceID string) []Cube {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.cubeOrder[workspaceID]
	out := make([]Cube, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.cubes[id].clone())
	}
	return out
}

// Cube returns a cube by id.
func (s *Store) Cube(id string) (Cube, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cubes[id]
	if !ok {
		return Cube{}, false
	}
	return c.clone(), true
}

// ReplaceWorkspaces installs a fresh workspace list and summary. Cubes of
// workspaces that disappeared are dropped.
func (s *Store) ReplaceWorkspaces(list []Workspace, summary Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make(map[string]Workspace, len(list))
	order := make([]string, 0, len(list))
	for _, w := range list {
		w.TotalContainers, w.RunningContainers = lifecycle.ClampCounters(w.TotalContainers, w.RunningContainers)
		if _, dup := fresh[w.ID]; !dup {
			order = append(order, w.ID)
		}
		if prev, ok := s.workspaces[w.ID]; ok {
			w.LastError = prev.LastError
		}
		fresh[w.ID] = w
	}
	for id := range s.workspaces {
		if _, ok := fresh[id]; !ok {
			s.dropCubesLocked(id)
		}
	}
	s.workspaces = fresh
	s.workspaceOrder = order
	s.summary = summary

	s.notifyLocked(ChangeEvent{Kind: EventWorkspacesReplaced})
}

// UpdateWorkspace applies fn to a copy of the workspace and stores the
// result with counters clamped.
func (s *Store) UpdateWorkspace(id string, fn func(*Workspace)) (Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.workspaces[id]
	if !ok {
		return Workspace{}, fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}
	updated := old
	fn(&updated)
	updated.ID = id
	updated.TotalContainers, updated.RunningContainers = lifecycle.ClampCounters(updated.TotalContainers, updated.RunningContainers)
	s.workspaces[id] = updated

	s.summary.TotalCubes += updated.TotalContainers - old.TotalContainers
	s.summary.TotalRunningCubes += updated.RunningContainers - old.RunningContainers
	s.clampSummaryLocked()

	s.notifyLocked(ChangeEvent{Kind: EventWorkspaceUpdated, EntityID: id})
	return updated, nil
}

// ApplyWorkspaceAction records a confirmed deploy, redeploy or stop of a
// whole workspace: counters and every loaded member cube move together.
// Cubes listed in skip keep their status; they have their own action in
// flight.
func (s *Store) ApplyWorkspaceAction(id string, action lifecycle.Action, skip func(cubeID string) bool) (Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.workspaces[id]
	if !ok {
		return Workspace{}, fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}

	var target lifecycle.CubeStatus
	switch action {
	case lifecycle.ActionDeploy, lifecycle.ActionRedeploy:
		target = lifecycle.CubeRunning
	case lifecycle.ActionStop:
		target = lifecycle.CubeStopped
	default:
		return old, fmt.Errorf("%w: %s is not a workspace-wide status action", lifecycle.ErrInvalidTransition, action)
	}

	updated := old
	updated.TotalContainers, updated.RunningContainers = lifecycle.WorkspaceCountersAfter(action, old.TotalContainers, old.RunningContainers)
	s.workspaces[id] = updated
	s.summary.TotalRunningCubes += updated.RunningContainers - old.RunningContainers
	s.clampSummaryLocked()

	for _, cubeID := range s.cubeOrder[id] {
		if skip != nil && skip(cubeID) {
			continue
		}
		c := s.cubes[cubeID]
		if c.Status == target || c.Status.IsTransient() {
			continue
		}
		oldStatus := c.Status
		c.Status = target
		s.cubes[cubeID] = c
		s.notifyLocked(ChangeEvent{Kind: EventCubeUpdated, EntityID: cubeID, WorkspaceID: id, OldStatus: oldStatus, NewStatus: target})
	}

	s.notifyLocked(ChangeEvent{Kind: EventWorkspaceUpdated, EntityID: id})
	return updated, nil
}

// RemoveWorkspace deletes a workspace and all of its cubes.
func (s *Store) RemoveWorkspace(id string) (Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workspaces[id]
	if !ok {
		return Workspace{}, fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}
	delete(s.workspaces, id)
	s.workspaceOrder = removeID(s.workspaceOrder, id)
	s.dropCubesLocked(id)

	s.summary.TotalWorkspaces--
	s.summary.TotalCubes -= w.TotalContainers
	s.summary.TotalRunningCubes -= w.RunningContainers
	s.clampSummaryLocked()

	s.notifyLocked(ChangeEvent{Kind: EventWorkspaceRemoved, EntityID: id})
	return w, nil
}

// ReplaceCubes installs the fresh cube list of a workspace. The list is
// authoritative for the workspace's counters. Cubes for which keep returns
// true retain their local status, so a refresh never hides an optimistic
// transition that is still awaiting the backend.
func (s *Store) ReplaceCubes(workspaceID string, list []Cube, keep func(cubeID string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := make(map[string]Cube, len(s.cubeOrder[workspaceID]))
	for _, id := range s.cubeOrder[workspaceID] {
		previous[id] = s.cubes[id]
	}
	s.dropCubesLocked(workspaceID)

	order := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	running := 0
	for _, c := range list {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		c = c.clone()
		c.WorkspaceID = workspaceID
		if old, ok := previous[c.ID]; ok {
			if keep != nil && keep(c.ID) {
				c.Status = old.Status
			}
			if old.Detailed && !c.Detailed {
				c = mergeSummary(old, c)
			}
			c.LastError = old.LastError
		}
		// A cube still known here belongs to another workspace: it moved.
		if moved, ok := s.cubes[c.ID]; ok {
			s.cubeOrder[moved.WorkspaceID] = removeID(s.cubeOrder[moved.WorkspaceID], c.ID)
			s.adjustCountersLocked(moved.WorkspaceID, -1, -boolInt(moved.Status.IsRunning()))
		}
		order = append(order, c.ID)
		s.cubes[c.ID] = c
	}
	s.cubeOrder[workspaceID] = order
	for _, id := range order {
		if s.cubes[id].Status.IsRunning() {
			running++
		}
	}

	if w, ok := s.workspaces[workspaceID]; ok {
		old := w
		w.TotalContainers, w.RunningContainers = lifecycle.ClampCounters(len(order), running)
		s.workspaces[workspaceID] = w
		s.summary.TotalCubes += w.TotalContainers - old.TotalContainers
		s.summary.TotalRunningCubes += w.RunningContainers - old.RunningContainers
		s.clampSummaryLocked()
	}

	s.notifyLocked(ChangeEvent{Kind: EventCubesReplaced, WorkspaceID: workspaceID})
}

// PutCube inserts or replaces a single cube, typically after a detail
// fetch. When keepStatus is set and the cube is already known, its local
// status is retained.
func (s *Store) PutCube(c Cube, keepStatus bool) Cube {
	s.mu.Lock()
	defer s.mu.Unlock()

	c = c.clone()
	old, existed := s.cubes[c.ID]
	if existed {
		if c.WorkspaceID == "" {
			c.WorkspaceID = old.WorkspaceID
		}
		if keepStatus {
			c.Status = old.Status
		}
	}
	s.cubes[c.ID] = c

	switch {
	case !existed:
		s.cubeOrder[c.WorkspaceID] = append(s.cubeOrder[c.WorkspaceID], c.ID)
		s.adjustCountersLocked(c.WorkspaceID, 1, boolInt(c.Status.IsRunning()))
	case old.WorkspaceID != c.WorkspaceID:
		s.cubeOrder[old.WorkspaceID] = removeID(s.cubeOrder[old.WorkspaceID], c.ID)
		s.adjustCountersLocked(old.WorkspaceID, -1, -boolInt(old.Status.IsRunning()))
		s.cubeOrder[c.WorkspaceID] = append(s.cubeOrder[c.WorkspaceID], c.ID)
		s.adjustCountersLocked(c.WorkspaceID, 1, boolInt(c.Status.IsRunning()))
	default:
		s.adjustCountersLocked(c.WorkspaceID, 0, boolInt(c.Status.IsRunning())-boolInt(old.Status.IsRunning()))
	}

	s.notifyLocked(ChangeEvent{Kind: EventCubeUpdated, EntityID: c.ID, WorkspaceID: c.WorkspaceID, OldStatus: old.Status, NewStatus: c.Status})
	return c.clone()
}

// UpdateCube applies fn to a copy of the cube. If the cube starts or stops
// counting as running, the owning workspace's counter moves in the same
// transaction.
func (s *Store) UpdateCube(id string, fn func(*Cube)) (Cube, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.cubes[id]
	if !ok {
		return Cube{}, fmt.Errorf("cube %s: %w", id, ErrNotFound)
	}
	updated := old.clone()
	fn(&updated)
	updated.ID = id
	updated.WorkspaceID = old.WorkspaceID
	updated = updated.clone()
	s.cubes[id] = updated

	s.adjustCountersLocked(old.WorkspaceID, 0, boolInt(updated.Status.IsRunning())-boolInt(old.Status.IsRunning()))

	if updated.Status != old.Status || !sameConfig(old, updated) {
		s.notifyLocked(ChangeEvent{Kind: EventCubeUpdated, EntityID: id, WorkspaceID: old.WorkspaceID, OldStatus: old.Status, NewStatus: updated.Status})
	}
	return updated.clone(), nil
}

// RemoveCube deletes a cube and decrements its workspace's counters in one
// transaction.
func (s *Store) RemoveCube(id string) (Cube, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cubes[id]
	if !ok {
		return Cube{}, fmt.Errorf("cube %s: %w", id, ErrNotFound)
	}
	delete(s.cubes, id)
	s.cubeOrder[c.WorkspaceID] = removeID(s.cubeOrder[c.WorkspaceID], id)
	s.adjustCountersLocked(c.WorkspaceID, -1, -boolInt(c.Status.IsRunning()))

	s.notifyLocked(ChangeEvent{Kind: EventCubeRemoved, EntityID: id, WorkspaceID: c.WorkspaceID, OldStatus: c.Status})
	return c, nil
}

// Subscribe creates a subscription to all store changes.
func (s *Store) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subIDCounter++
	sub := &Subscription{
		ID:      fmt.Sprintf("sub-%d", s.subIDCounter),
		Channel: make(chan ChangeEvent, 100),
	}
	s.subscriptions[sub.ID] = sub
	s.metrics.ActiveSubscriptions++
	return sub
}

// Unsubscribe removes and closes a subscription.
func (s *Store) Unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[sub.ID]; ok {
		sub.Close()
		delete(s.subscriptions, sub.ID)
		s.metrics.ActiveSubscriptions--
	}
}

// Metrics returns a copy of the store metrics.
func (s *Store) Metrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

func (s *Store) adjustCountersLocked(workspaceID string, totalDelta, runningDelta int) {
	if totalDelta == 0 && runningDelta == 0 {
		return
	}
	w, ok := s.workspaces[workspaceID]
	if !ok {
		return
	}
	old := w
	w.TotalContainers, w.RunningContainers = lifecycle.ClampCounters(w.TotalContainers+totalDelta, w.RunningContainers+runningDelta)
	s.workspaces[workspaceID] = w

	s.summary.TotalCubes += w.TotalContainers - old.TotalContainers
	s.summary.TotalRunningCubes += w.RunningContainers - old.RunningContainers
	s.clampSummaryLocked()
	s.notifyLocked(ChangeEvent{Kind: EventWorkspaceUpdated, EntityID: workspaceID})
}

func (s *Store) dropCubesLocked(workspaceID string) {
	for _, id := range s.cubeOrder[workspaceID] {
		delete(s.cubes, id)
	}
	delete(s.cubeOrder, workspaceID)
}

func (s *Store) clampSummaryLocked() {
	if s.summary.TotalWorkspaces < 0 {
		s.summary.TotalWorkspaces = 0
	}
	s.summary.TotalCubes, s.summary.TotalRunningCubes = lifecycle.ClampCounters(s.summary.TotalCubes, s.summary.TotalRunningCubes)
}

// notifySubscribers without blocking; a full subscriber loses the event.
func (s *Store) notifyLocked(event ChangeEvent) {
	s.metrics.Changes++
	s.metrics.LastChange = time.Now()

	for id, sub := range s.subscriptions {
		if sub.IsClosed() {
			delete(s.subscriptions, id)
			s.metrics.ActiveSubscriptions--
			continue
		}
		select {
		case sub.Channel <- event:
			s.metrics.DeliveredEvents++
		default:
			s.metrics.DroppedEvents++
		}
	}
}

// mergeSummary keeps the detailed configuration of a known cube when a
// list response only refreshes its summary fields.
func mergeSummary(detailed, summary Cube) Cube {
	out := detailed.clone()
	out.Name = summary.Name
	out.Image = summary.Image
	out.ServiceName = summary.ServiceName
	out.Status = summary.Status
	out.IPAddress = summary.IPAddress
	out.Detailed = true
	return out
}

func sameConfig(a, b Cube) bool {
	if a.Name != b.Name || a.Image != b.Image || a.ServiceName != b.ServiceName ||
		a.IPAddress != b.IPAddress || a.ResourceLimits != b.ResourceLimits || a.LastError != b.LastError {
		return false
	}
	if !equalStrings(a.Ports, b.Ports) || !equalStrings(a.EnvVars, b.EnvVars) ||
		!equalStrings(a.Labels, b.Labels) || !equalStrings(a.Networks, b.Networks) {
		return false
	}
	if len(a.Volumes) != len(b.Volumes) {
		return false
	}
	for k, v := range a.Volumes {
		if b.Volumes[k] != v {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func removeID(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
