package session

import "cubectl/pkg/logging"

// Page is a dashboard page.
type Page string

const (
	PageWorkspaceDashboard Page = "WorkspaceDashboard"
	PageCubes              Page = "CubesPage"
	PageCubeDashboard      Page = "CubeDashboard"
	PageImagesList         Page = "ImagesList"
)

// Persisted keys.
const (
	KeySelectedPage        = "selectedPage"
	KeySelectedWorkspaceID = "selectedWorkspaceId"
	KeySelectedContainerID = "selectedContainerId"
)

// Valid reports whether p is a known page.
func (p Page) Valid() bool {
	switch p {
	case PageWorkspaceDashboard, PageCubes, PageCubeDashboard, PageImagesList:
		return true
	}
	return false
}

// Context is the injected navigation selection.
type Context struct {
	store Store
}

// NewContext wraps store.
func NewContext(store Store) *Context {
	return &Context{store: store}
}

// Page returns the selected page, WorkspaceDashboard when unset or unknown.
func (c *Context) Page() Page {
	v, ok := c.store.Get(KeySelectedPage)
	if !ok || !Page(v).Valid() {
		return PageWorkspaceDashboard
	}
	return Page(v)
}

// SetPage selects a page.
func (c *Context) SetPage(p Page) error {
	return c.set(KeySelectedPage, string(p))
}

// WorkspaceID returns the selected workspace, or "".
func (c *Context) WorkspaceID() string {
	v, _ := c.store.Get(KeySelectedWorkspaceID)
	return v
}

// SetWorkspaceID selects a workspace.
func (c *Context) SetWorkspaceID(id string) error {
	return c.set(KeySelectedWorkspaceID, id)
}

// ContainerID returns the selected cube, or "".
func (c *Context) ContainerID() string {
	v, _ := c.store.Get(KeySelectedContainerID)
	return v
}

// SetContainerID selects a cube.
func (c *Context) SetContainerID(id string) error {
	return c.set(KeySelectedContainerID, id)
}

func (c *Context) set(key, value string) error {
	if err := c.store.Set(key, value); err != nil {
		logging.Warn("Session", "Could not persist %s: %v", key, err)
		return err
	}
	return nil
}
