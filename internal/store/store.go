// Package store is the hand-off between the fetch and extract stages: the
// raw feed and the filtered output are named by day and kept in a Store.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"roomslots/internal/model"
)

// ErrNotFound is returned by Read when no object exists under the name.
var ErrNotFound = errors.New("not found")

// Store persists whole objects by name. Writes replace existing content.
type Store interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
	// Path reports where name lives, for console diagnostics.
	Path(name string) string
}

// RawName is the raw feed name for a day, e.g. "2024-10-17.ics".
func RawName(day time.Time) string {
	return model.Day(day) + ".ics"
}

// FilteredName is the extraction output name, e.g. "2024-10-17_filtered.json".
func FilteredName(day time.Time) string {
	return model.Day(day) + "_filtered.json"
}

// Dir stores objects as files under a directory.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at root. The directory is created on first
// write.
func NewDir(root string) *Dir {
	if root == "" {
		root = "."
	}
	return &Dir{root: root}
}

// Path is the file path of name under the root.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, name)
}

// Read returns the file content, or ErrNotFound if it does not exist.
func (d *Dir) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(d.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", d.Path(name), ErrNotFound)
	}
	return data, err
}

// Write replaces name atomically via a temp file in the same directory.
func (d *Dir) Write(name string, data []byte) error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.root, "."+name+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpName, d.Path(name))
}

// Memory keeps objects in a map. Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// Path returns a mem:// pseudo path for name.
func (m *Memory) Path(name string) string {
	return "mem://" + name
}

// Read returns a copy of the stored bytes, or ErrNotFound.
func (m *Memory) Read(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", m.Path(name), ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Write stores a copy of data under name.
func (m *Memory) Write(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
	return nil
}

// Names lists stored object names in no particular order.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for name := range m.files {
		out = append(out, name)
	}
	return out
}
