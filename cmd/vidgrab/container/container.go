package container

import (
	"fmt"

	"github.com/lyzr/vidgrab/cmd/vidgrab/repository"
	"github.com/lyzr/vidgrab/cmd/vidgrab/service"
	"github.com/lyzr/vidgrab/common/bootstrap"
	"github.com/lyzr/vidgrab/common/extractor"
	"github.com/lyzr/vidgrab/common/policy"
	"github.com/lyzr/vidgrab/common/ratelimit"
	"github.com/lyzr/vidgrab/common/transcode"
	"github.com/lyzr/vidgrab/common/validation"
	"github.com/lyzr/vidgrab/common/workspace"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Infrastructure
	Workspaces  *workspace.Manager
	RateLimiter *ratelimit.RateLimiter // nil unless Redis is enabled

	// Repositories
	DownloadRepo *repository.DownloadRepository // nil unless the database is enabled

	// Services
	DownloadService *service.DownloadService
	StatsService    *service.StatsService // nil unless Redis is enabled
	Janitor         *service.Janitor
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	workspaces, err := workspace.NewManager(cfg.Download.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare download directory: %w", err)
	}

	pol, err := policy.New(cfg.Policy.Expression)
	if err != nil {
		return nil, fmt.Errorf("failed to compile download policy: %w", err)
	}
	if pol.Enabled() {
		log.Info("download policy active", "expression", pol.Expression())
	}

	downloadService := service.NewDownloadService(
		validation.NewSourceValidator(),
		pol,
		workspaces,
		extractor.NewYtDlp(cfg.Download.YtDlpPath, cfg.Download.FFmpegPath, log),
		transcode.NewFFmpeg(cfg.Download.FFmpegPath, log),
		service.Options{
			AudioQuality:     cfg.Download.AudioQuality,
			ExtractTimeout:   cfg.Download.ExtractTimeout,
			TranscodeTimeout: cfg.Download.TranscodeTimeout,
			CleanupOnSend:    cfg.Download.CleanupOnSend,
		},
		components.Telemetry,
		log,
	)

	c := &Container{
		Components:      components,
		Workspaces:      workspaces,
		DownloadService: downloadService,
		Janitor: service.NewJanitor(
			workspaces,
			cfg.Download.Retention,
			cfg.Download.JanitorInterval,
			log,
		),
	}

	if components.DB != nil {
		c.DownloadRepo = repository.NewDownloadRepository(components.DB)
		downloadService.AddRecorder(c.DownloadRepo)
	}

	if components.Redis != nil {
		c.StatsService = service.NewStatsService(components.Redis)
		downloadService.AddRecorder(c.StatsService)

		c.RateLimiter = ratelimit.NewRateLimiter(
			components.Redis.GetUnderlying(),
			ratelimit.Limits{
				PerClient:     cfg.Redis.ClientLimit,
				Global:        cfg.Redis.GlobalLimit,
				WindowSeconds: cfg.Redis.LimitWindowSecs,
			},
			log,
		)
	}

	return c, nil
}
