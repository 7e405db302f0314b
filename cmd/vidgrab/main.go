package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lyzr/vidgrab/cmd/vidgrab/container"
	"github.com/lyzr/vidgrab/cmd/vidgrab/repository"
	"github.com/lyzr/vidgrab/cmd/vidgrab/routes"
	"github.com/lyzr/vidgrab/common/bootstrap"
	"github.com/lyzr/vidgrab/common/db"
	"github.com/lyzr/vidgrab/common/metrics"
	"github.com/lyzr/vidgrab/common/server"
)

const serviceName = "vidgrab"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bootstrap common components (logger, optional DB/Redis, telemetry)
	components, err := bootstrap.Setup(ctx, serviceName,
		bootstrap.WithDBInitHook(func(database *db.DB) error {
			return repository.NewDownloadRepository(database).EnsureSchema(ctx)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap %s: %v\n", serviceName, err)
		os.Exit(1)
	}
	defer components.Shutdown(context.Background())

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		components.Logger.Error("Failed to initialize service container", "error", err)
		os.Exit(1)
	}

	logSystemInfo(ctx, components)

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e)

	// Setup health check
	setupHealthCheck(e, components)

	// Register all routes
	registerRoutes(e, serviceContainer)

	// Sweep stale workspaces in the background
	go serviceContainer.Janitor.Start(ctx)

	// Start server
	startServer(ctx, e, components)
}

// logSystemInfo records the host and tool versions; missing tools only warn
// so the page and health endpoint still come up.
func logSystemInfo(ctx context.Context, components *bootstrap.Components) {
	cfg := components.Config.Download
	info := metrics.CaptureSystemInfo(ctx, cfg.YtDlpPath, cfg.FFmpegPath)

	components.Logger.Info("system info", info.LogArgs()...)
	if missing := info.Missing(); len(missing) > 0 {
		components.Logger.Warn("external tools not runnable, downloads will fail", "missing", missing)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := components.Health(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": serviceName,
				"error":   err.Error(),
			})
		}

		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": serviceName,
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterDownloadRoutes(e, serviceContainer)
	routes.RegisterHistoryRoutes(e, serviceContainer)
}

// startServer serves until SIGINT/SIGTERM, then drains in-flight downloads
func startServer(ctx context.Context, e *echo.Echo, components *bootstrap.Components) {
	cfg := components.Config

	srv := server.New(serviceName, cfg.Service.Port, e, cfg.Service.WriteTimeout, components.Logger)
	if err := srv.Start(ctx); err != nil {
		components.Logger.Error("Server error", "error", err)
		components.Shutdown(context.Background())
		os.Exit(1)
	}
}
