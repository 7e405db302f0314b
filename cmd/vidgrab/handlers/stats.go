package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/vidgrab/common/logger"
)

// CounterReader reads the download counters
type CounterReader interface {
	Counters(ctx context.Context) (map[string]int64, error)
}

// StatsHandler serves the download counters
type StatsHandler struct {
	stats CounterReader
	log   *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats CounterReader, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		stats: stats,
		log:   log,
	}
}

// GetStats returns counters keyed by "<format>:<status>"
// GET /api/v1/stats
func (h *StatsHandler) GetStats(c echo.Context) error {
	counters, err := h.stats.Counters(c.Request().Context())
	if err != nil {
		h.log.WithRequest(c).Error("failed to read stats", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "failed to read stats",
		})
	}

	var total int64
	for _, n := range counters {
		total += n
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"counters": counters,
		"total":    total,
	})
}
