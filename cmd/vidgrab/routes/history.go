package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/vidgrab/cmd/vidgrab/container"
	"github.com/lyzr/vidgrab/cmd/vidgrab/handlers"
)

// RegisterHistoryRoutes registers history and stats routes. Each is only
// mounted when its backend is configured.
func RegisterHistoryRoutes(e *echo.Echo, c *container.Container) {
	api := e.Group("/api/v1")

	if c.DownloadRepo != nil {
		h := handlers.NewHistoryHandler(c.DownloadRepo, c.Components.Logger)
		api.GET("/downloads", h.ListDownloads) // GET /api/v1/downloads?limit=50
	}

	if c.StatsService != nil {
		h := handlers.NewStatsHandler(c.StatsService, c.Components.Logger)
		api.GET("/stats", h.GetStats) // GET /api/v1/stats
	}
}
