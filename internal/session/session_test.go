package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextDefaults(t *testing.T) {
	c := NewContext(NewMemoryStore())
	assert.Equal(t, PageWorkspaceDashboard, c.Page())
	assert.Equal(t, "", c.WorkspaceID())
	assert.Equal(t, "", c.ContainerID())
}

func TestContextUnknownPageFallsBack(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.Set(KeySelectedPage, "ProxyPanel"))
	assert.Equal(t, PageWorkspaceDashboard, NewContext(m).Page())
}

func TestLastWriteWins(t *testing.T) {
	c := NewContext(NewMemoryStore())
	require.NoError(t, c.SetWorkspaceID("1"))
	require.NoError(t, c.SetWorkspaceID("7"))
	assert.Equal(t, "7", c.WorkspaceID())
}

func TestFileStoreSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")

	fs, err := OpenFileStore(path)
	require.NoError(t, err)
	c := NewContext(fs)
	require.NoError(t, c.SetPage(PageCubeDashboard))
	require.NoError(t, c.SetWorkspaceID("3"))
	require.NoError(t, c.SetContainerID("42"))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	c2 := NewContext(reopened)
	assert.Equal(t, PageCubeDashboard, c2.Page())
	assert.Equal(t, "3", c2.WorkspaceID())
	assert.Equal(t, "42", c2.ContainerID())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "selectedContainerId: \"42\"")
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	fs, err := OpenFileStore(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	_, ok := fs.Get(KeySelectedPage)
	assert.False(t, ok)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o644))
	_, err := OpenFileStore(path)
	assert.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	orig := osUserHomeDir
	defer func() { osUserHomeDir = orig }()
	osUserHomeDir = func() (string, error) { return "/home/test", nil }

	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/home/test/.config/cubectl/session.yaml", p)
}
