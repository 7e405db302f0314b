package service

import (
	"context"
	"time"

	"github.com/lyzr/vidgrab/common/logger"
	"github.com/lyzr/vidgrab/common/workspace"
)

// Janitor removes workspaces older than the retention period. It catches
// workspaces left behind by crashed requests or disabled cleanup-on-send.
type Janitor struct {
	workspaces *workspace.Manager
	retention  time.Duration
	interval   time.Duration
	log        *logger.Logger
}

// NewJanitor creates a new workspace janitor
func NewJanitor(workspaces *workspace.Manager, retention, interval time.Duration, log *logger.Logger) *Janitor {
	return &Janitor{
		workspaces: workspaces,
		retention:  retention,
		interval:   interval,
		log:        log,
	}
}

// Start sweeps every interval until ctx is cancelled. A zero interval disables the janitor.
func (j *Janitor) Start(ctx context.Context) {
	if j.interval <= 0 {
		j.log.Info("workspace janitor disabled")
		return
	}

	j.log.Info("workspace janitor starting",
		"interval", j.interval,
		"retention", j.retention,
		"base_dir", j.workspaces.BaseDir())

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info("workspace janitor shutting down")
			return
		case <-ticker.C:
			j.SweepOnce()
		}
	}
}

// SweepOnce removes expired workspaces and returns how many were deleted.
// A non-positive retention would match live workspaces, so nothing is removed.
func (j *Janitor) SweepOnce() int {
	if j.retention <= 0 {
		j.log.Warn("workspace sweep skipped, retention is not positive", "retention", j.retention)
		return 0
	}

	removed, err := j.workspaces.Sweep(time.Now().Add(-j.retention))
	if err != nil {
		j.log.Warn("workspace sweep incomplete", "removed", removed, "error", err)
	} else if removed > 0 {
		j.log.Info("expired workspaces removed", "count", removed)
	}
	return removed
}
