package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"cubectl/internal/backend"
	"cubectl/internal/lifecycle"
	"cubectl/internal/store"
)

// fakeBackend records calls and answers from canned state.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	workspaces []store.Workspace
	summary    store.Summary
	cubes      map[string][]store.Cube
	details    map[string]store.Cube

	// errs maps "kind/id/action" to the error the call returns.
	errs map[string]error
	// gate, when set, blocks cube actions until closed.
	gate chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		cubes:   make(map[string][]store.Cube),
		details: make(map[string]store.Cube),
		errs:    make(map[string]error),
	}
}

func (f *fakeBackend) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.errs[call]
}

func (f *fakeBackend) failWith(call string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[call] = err
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) ListWorkspaces(ctx context.Context) ([]store.Workspace, store.Summary, error) {
	if err := f.record("workspaces/list"); err != nil {
		return nil, store.Summary{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Workspace(nil), f.workspaces...), f.summary, nil
}

func (f *fakeBackend) CreateWorkspace(ctx context.Context, name, description string) (backend.ActionResult, error) {
	if err := f.record("workspace/" + name + "/create"); err != nil {
		return backend.ActionResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("%d", 100+len(f.workspaces))
	f.workspaces = append(f.workspaces, store.Workspace{ID: id, Name: name, Description: description})
	f.summary.TotalWorkspaces++
	return backend.ActionResult{Message: "Workspace created successfully"}, nil
}

func (f *fakeBackend) WorkspaceAction(ctx context.Context, id string, action lifecycle.Action) (backend.ActionResult, error) {
	if err := f.record(fmt.Sprintf("workspace/%s/%s", id, action)); err != nil {
		return backend.ActionResult{}, err
	}
	return backend.ActionResult{Message: fmt.Sprintf("Workspace %s successfully", pastTense(action))}, nil
}

func (f *fakeBackend) ListCubes(ctx context.Context, workspaceID string) ([]store.Cube, error) {
	if err := f.record("cubes/" + workspaceID + "/list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Cube(nil), f.cubes[workspaceID]...), nil
}

func (f *fakeBackend) GetCube(ctx context.Context, id string) (store.Cube, error) {
	if err := f.record("cube/" + id + "/get"); err != nil {
		return store.Cube{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.details[id]
	if !ok {
		return store.Cube{}, &backend.StatusError{Method: "GET", Path: "/cube/" + id, Code: 404}
	}
	return c, nil
}

func (f *fakeBackend) CreateCube(ctx context.Context, workspaceID string, spec backend.CubeSpec) (backend.ActionResult, error) {
	if err := f.record("cube/" + spec.Name + "/create"); err != nil {
		return backend.ActionResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cubes[workspaceID] = append(f.cubes[workspaceID], store.Cube{
		ID: "new-" + spec.Name, Name: spec.Name, Image: spec.Image + ":" + spec.Tag, Status: lifecycle.CubeStopped,
	})
	return backend.ActionResult{Message: "Cube created successfully"}, nil
}

func (f *fakeBackend) UpdateCube(ctx context.Context, cube store.Cube) (backend.ActionResult, error) {
	if err := f.record("cube/" + cube.ID + "/edit"); err != nil {
		return backend.ActionResult{}, err
	}
	return backend.ActionResult{}, nil
}

func (f *fakeBackend) CommitCube(ctx context.Context, id, image, tag string) (backend.ActionResult, error) {
	if err := f.record("cube/" + id + "/commit"); err != nil {
		return backend.ActionResult{}, err
	}
	return backend.ActionResult{Message: "Container committed successfully"}, nil
}

func (f *fakeBackend) CubeAction(ctx context.Context, id string, action lifecycle.Action) (backend.ActionResult, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return backend.ActionResult{}, &backend.TransportError{Method: "POST", URL: id, Err: ctx.Err()}
		}
	}
	if err := f.record(fmt.Sprintf("cube/%s/%s", id, action)); err != nil {
		return backend.ActionResult{}, err
	}
	return backend.ActionResult{Message: fmt.Sprintf("Cube %s successfully", pastTense(action))}, nil
}

// noticeRecorder collects notices.
type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *noticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) byLevel(level NoticeLevel) []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notice
	for _, n := range r.notices {
		if n.Level == level {
			out = append(out, n)
		}
	}
	return out
}

func (r *noticeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}
