package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/vidgrab/cmd/vidgrab/container"
	"github.com/lyzr/vidgrab/cmd/vidgrab/handlers"
	"github.com/lyzr/vidgrab/common/middleware"
)

// RegisterDownloadRoutes registers the client page and the download endpoint
func RegisterDownloadRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewDownloadHandler(c.DownloadService, c.Components.Logger)

	var mw []echo.MiddlewareFunc
	if c.RateLimiter != nil {
		mw = append(mw,
			middleware.GlobalRateLimitMiddleware(c.RateLimiter),
			middleware.ClientRateLimitMiddleware(c.RateLimiter),
		)
	}

	e.GET("/", handlers.Index)            // GET /
	e.GET("/download", h.Download, mw...) // GET /download?url=...&format=mp3
}
