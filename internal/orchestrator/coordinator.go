package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"

	"cubectl/internal/backend"
	"cubectl/internal/lifecycle"
	"cubectl/internal/store"
)

var (
	// ErrActionInFlight is returned when an entity already has an action
	// awaiting the backend.
	ErrActionInFlight = errors.New("an action is already in flight")
	// ErrNotFound is returned when the target entity is not loaded.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for locally rejected input, such as a
	// commit without image or tag.
	ErrInvalidArgument = errors.New("invalid argument")
)

// EntityKind is the kind of entity an action targets.
type EntityKind string

const (
	KindWorkspace EntityKind = "workspace"
	KindCube      EntityKind = "cube"
)

// Target identifies the entity an action applies to.
type Target struct {
	Kind EntityKind
	ID   string
}

// Cube returns the target for cube id.
func Cube(id string) Target { return Target{Kind: KindCube, ID: id} }

// Workspace returns the target for workspace id.
func Workspace(id string) Target { return Target{Kind: KindWorkspace, ID: id} }

func (t Target) key() string { return string(t.Kind) + "/" + t.ID }

func (t Target) String() string { return fmt.Sprintf("%s %s", t.Kind, t.ID) }

// Backend is the subset of the REST client the coordinator needs.
type Backend interface {
	ListWorkspaces(ctx context.Context) ([]store.Workspace, store.Summary, error)
	CreateWorkspace(ctx context.Context, name, description string) (backend.ActionResult, error)
	WorkspaceAction(ctx context.Context, id string, action lifecycle.Action) (backend.ActionResult, error)
	ListCubes(ctx context.Context, workspaceID string) ([]store.Cube, error)
	GetCube(ctx context.Context, id string) (store.Cube, error)
	CreateCube(ctx context.Context, workspaceID string, spec backend.CubeSpec) (backend.ActionResult, error)
	UpdateCube(ctx context.Context, cube store.Cube) (backend.ActionResult, error)
	CommitCube(ctx context.Context, id, image, tag string) (backend.ActionResult, error)
	CubeAction(ctx context.Context, id string, action lifecycle.Action) (backend.ActionResult, error)
}

// Coordinator applies lifecycle actions to the store and the backend.
type Coordinator struct {
	backend  Backend
	store    *store.Store
	notifier Notifier

	mu       sync.Mutex
	inFlight sets.Set[string]
}

// NewCoordinator creates a coordinator. A nil notifier discards notices.
func NewCoordinator(b Backend, st *store.Store, n Notifier) *Coordinator {
	if n == nil {
		n = discardNotifier{}
	}
	return &Coordinator{
		backend:  b,
		store:    st,
		notifier: n,
		inFlight: sets.New[string](),
	}
}

// Store returns the store the coordinator writes to.
func (c *Coordinator) Store() *store.Store {
	return c.store
}

// InFlight reports whether target has an action awaiting the backend.
func (c *Coordinator) InFlight(target Target) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight.Has(target.key())
}

// inFlightCubes returns a predicate over a snapshot of in-flight cube ids.
// The store calls it under its own lock, so it must not take c.mu.
func (c *Coordinator) inFlightCubes() func(string) bool {
	c.mu.Lock()
	snapshot := c.inFlight.Clone()
	c.mu.Unlock()
	return func(id string) bool {
		return snapshot.Has(Cube(id).key())
	}
}

// Begin validates action against target, marks target in flight and
// applies the optimistic transition. The returned Pending must be awaited.
func (c *Coordinator) Begin(target Target, action lifecycle.Action) (*Pending, error) {
	switch target.Kind {
	case KindCube:
		return c.beginCube(target, action)
	case KindWorkspace:
		return c.beginWorkspace(target, action)
	default:
		return nil, fmt.Errorf("%w: unknown entity kind %q", ErrInvalidArgument, target.Kind)
	}
}

// Run begins action and awaits it.
func (c *Coordinator) Run(ctx context.Context, target Target, action lifecycle.Action) error {
	p, err := c.Begin(target, action)
	if err != nil {
		return err
	}
	return p.Await(ctx)
}
