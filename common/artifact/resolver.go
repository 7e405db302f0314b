package artifact

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lyzr/vidgrab/common/models"
)

// In-progress suffixes yt-dlp leaves behind; never returned as artifacts
var skippedSuffixes = []string{".part", ".ytdl"}

// Resolve returns the first regular file in dir (non-recursive) whose name ends
// with the extension of format. ok is false when nothing matches or dir cannot
// be read; that is an expected outcome, not an error.
//
// os.ReadDir returns entries sorted by name, so when several files match the
// lexically first one wins.
func Resolve(dir string, format models.Format) (path string, ok bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	ext := format.Extension()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if isInProgress(name) {
			continue
		}

		if strings.HasSuffix(name, ext) {
			return filepath.Join(dir, name), true
		}
	}

	return "", false
}

// Stat returns the artifact for path, or ok=false when it is not a regular file
func Stat(path, workspaceDir string, format models.Format) (*models.Artifact, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}

	return &models.Artifact{
		Path:         path,
		WorkspaceDir: workspaceDir,
		Format:       format,
		Size:         info.Size(),
	}, true
}

func isInProgress(name string) bool {
	for _, suffix := range skippedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
