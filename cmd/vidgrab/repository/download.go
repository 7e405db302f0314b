package repository

import (
	"context"
	"fmt"

	"github.com/lyzr/vidgrab/cmd/vidgrab/models"
	"github.com/lyzr/vidgrab/common/db"
	mediamodels "github.com/lyzr/vidgrab/common/models"
)

// MaxListLimit caps ListRecent
const MaxListLimit = 500

const schema = `
	CREATE TABLE IF NOT EXISTS download_history (
		id            UUID PRIMARY KEY,
		url           TEXT NOT NULL,
		platform      TEXT NOT NULL,
		format        TEXT NOT NULL,
		status        TEXT NOT NULL,
		error_kind    TEXT,
		artifact_name TEXT,
		artifact_size BIGINT,
		duration_ms   BIGINT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS download_history_created_at_idx
		ON download_history (created_at DESC);
`

// DownloadRepository handles database operations for download history
type DownloadRepository struct {
	db *db.DB
}

// NewDownloadRepository creates a new download repository
func NewDownloadRepository(db *db.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// EnsureSchema creates the history table if it does not exist
func (r *DownloadRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create download_history: %w", err)
	}
	return nil
}

// Record inserts a history row
func (r *DownloadRepository) Record(ctx context.Context, rec *models.DownloadRecord) error {
	query := `
		INSERT INTO download_history (
			id, url, platform, format, status, error_kind,
			artifact_name, artifact_size, duration_ms, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := r.db.Exec(ctx, query,
		rec.ID,
		rec.URL,
		rec.Platform,
		string(rec.Format),
		string(rec.Status),
		rec.ErrorKind,
		rec.ArtifactName,
		rec.ArtifactSize,
		rec.DurationMs,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}

	return nil
}

// ListRecent returns the newest records first
func (r *DownloadRepository) ListRecent(ctx context.Context, limit int) ([]*models.DownloadRecord, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := `
		SELECT
			id, url, platform, format, status, error_kind,
			artifact_name, artifact_size, duration_ms, created_at
		FROM download_history
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	defer rows.Close()

	var records []*models.DownloadRecord
	for rows.Next() {
		rec := &models.DownloadRecord{}
		var format, status string
		if err := rows.Scan(
			&rec.ID,
			&rec.URL,
			&rec.Platform,
			&format,
			&status,
			&rec.ErrorKind,
			&rec.ArtifactName,
			&rec.ArtifactSize,
			&rec.DurationMs,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		rec.Format = mediamodels.Format(format)
		rec.Status = models.DownloadStatus(status)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate downloads: %w", err)
	}

	return records, nil
}
