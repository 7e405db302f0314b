package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DirPermissions is the mode used for the base directory and every workspace
const DirPermissions = 0o755

// ErrWorkspaceIO is returned when a workspace cannot be created, listed or removed
var ErrWorkspaceIO = errors.New("workspace I/O error")

// Workspace is a directory owned by exactly one download job
type Workspace struct {
	ID        string
	Path      string
	CreatedAt time.Time
}

// Manager allocates per-job workspaces under a fixed base directory
type Manager struct {
	baseDir string
}

// NewManager creates the base directory if needed and returns a manager for it.
// MkdirAll is idempotent, so concurrent managers over the same base are safe.
func NewManager(baseDir string) (*Manager, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: empty base directory", ErrWorkspaceIO)
	}

	if err := os.MkdirAll(baseDir, DirPermissions); err != nil {
		return nil, fmt.Errorf("%w: create base directory %s: %v", ErrWorkspaceIO, baseDir, err)
	}

	return &Manager{baseDir: baseDir}, nil
}

// BaseDir returns the directory all workspaces are nested under
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Create allocates a new uniquely named workspace. os.Mkdir (not MkdirAll)
// fails on an existing directory, so a path is never handed out twice.
func (m *Manager) Create() (*Workspace, error) {
	id := uuid.New().String()
	path := filepath.Join(m.baseDir, id)

	if err := os.Mkdir(path, DirPermissions); err != nil {
		return nil, fmt.Errorf("%w: create workspace %s: %v", ErrWorkspaceIO, id, err)
	}

	return &Workspace{
		ID:        id,
		Path:      path,
		CreatedAt: time.Now(),
	}, nil
}

// Remove deletes the workspace directory and everything in it
func (m *Manager) Remove(ws *Workspace) error {
	if ws == nil {
		return nil
	}
	return m.RemovePath(ws.Path)
}

// RemovePath deletes a workspace by path. Paths outside the base directory are refused.
func (m *Manager) RemovePath(path string) error {
	if filepath.Dir(filepath.Clean(path)) != filepath.Clean(m.baseDir) {
		return fmt.Errorf("%w: %s is not a workspace of %s", ErrWorkspaceIO, path, m.baseDir)
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrWorkspaceIO, path, err)
	}
	return nil
}

// Sweep removes workspaces last modified before cutoff and returns how many
// were deleted. Plain files in the base directory are left alone.
func (m *Manager) Sweep(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return 0, fmt.Errorf("%w: list %s: %v", ErrWorkspaceIO, m.baseDir, err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed concurrently
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := m.RemovePath(filepath.Join(m.baseDir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}
