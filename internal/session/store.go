// Package session persists the dashboard's navigation selection across
// restarts.
//
// A Store is a small durable key/value map; Context wraps it with typed
// accessors and is injected wherever the current page, workspace or cube
// is needed.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"cubectl/pkg/logging"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir

const (
	userConfigDir   = ".config/cubectl"
	sessionFileName = "session.yaml"
)

// Store is a durable key/value store. Set is write-through and the last
// write for a key wins.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// MemoryStore keeps values in memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// FileStore keeps values in a YAML file. Every Set rewrites the file.
type FileStore struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

// DefaultPath returns ~/.config/cubectl/session.yaml.
func DefaultPath() (string, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, userConfigDir, sessionFileName), nil
}

// OpenFileStore loads the store at path. A missing file is an empty store;
// an unreadable or corrupt one is an error.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fs.values); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", path, err)
	}
	if fs.values == nil {
		fs.values = make(map[string]string)
	}
	logging.Debug("Session", "Loaded %d keys from %s", len(fs.values), path)
	return fs, nil
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if current, ok := f.values[key]; ok && current == value {
		return nil
	}
	f.values[key] = value
	return f.flushLocked()
}

// flushLocked writes the file atomically via a temp file and rename.
func (f *FileStore) flushLocked() error {
	data, err := yaml.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}
