package models

import (
	"path/filepath"
)

// Artifact is the single file returned for a completed download
type Artifact struct {
	// Absolute or base-relative path of the file
	Path string `json:"-"`

	// Workspace directory that owns the file
	WorkspaceDir string `json:"-"`

	// Requested format
	Format Format `json:"format"`

	// Size in bytes
	Size int64 `json:"size"`
}

// Name returns the original file name, used as the attachment name
func (a *Artifact) Name() string {
	return filepath.Base(a.Path)
}
