package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/vidgrab/cmd/vidgrab/models"
	"github.com/lyzr/vidgrab/common/logger"
)

// DefaultHistoryLimit is used when ?limit is absent or malformed
const DefaultHistoryLimit = 50

// HistoryLister reads recent download records
type HistoryLister interface {
	ListRecent(ctx context.Context, limit int) ([]*models.DownloadRecord, error)
}

// HistoryHandler serves the download history
type HistoryHandler struct {
	history HistoryLister
	log     *logger.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history HistoryLister, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		log:     log,
	}
}

// ListDownloads returns the most recent downloads, newest first
// GET /api/v1/downloads?limit=N
func (h *HistoryHandler) ListDownloads(c echo.Context) error {
	limit := DefaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.history.ListRecent(c.Request().Context(), limit)
	if err != nil {
		h.log.WithRequest(c).Error("failed to list downloads", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "failed to list downloads",
		})
	}

	if records == nil {
		records = []*models.DownloadRecord{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"downloads": records,
		"count":     len(records),
	})
}
