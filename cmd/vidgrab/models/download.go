package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/vidgrab/common/models"
)

// DownloadRequest is one validated client request
type DownloadRequest struct {
	URL      string
	Format   models.Format
	Platform string
}

// DownloadStatus is the terminal state of a download job
type DownloadStatus string

const (
	StatusCompleted DownloadStatus = "COMPLETED"
	StatusFailed    DownloadStatus = "FAILED"
	StatusRejected  DownloadStatus = "REJECTED"
)

// DownloadRecord is one row of download history
// Maps to: download_history table
type DownloadRecord struct {
	// Job ID; equals the workspace directory name
	ID uuid.UUID `db:"id" json:"id"`

	URL      string        `db:"url" json:"url"`
	Platform string        `db:"platform" json:"platform"`
	Format   models.Format `db:"format" json:"format"`

	Status DownloadStatus `db:"status" json:"status"`

	// Error kind for failed jobs, e.g. "external_tool", "tool_timeout"
	ErrorKind *string `db:"error_kind" json:"error_kind,omitempty"`

	// Attachment name for completed jobs
	ArtifactName *string `db:"artifact_name" json:"artifact_name,omitempty"`
	ArtifactSize *int64  `db:"artifact_size" json:"artifact_size,omitempty"`

	DurationMs int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
