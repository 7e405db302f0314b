package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/vidgrab/cmd/vidgrab/models"
	"github.com/lyzr/vidgrab/common/artifact"
	"github.com/lyzr/vidgrab/common/extractor"
	"github.com/lyzr/vidgrab/common/logger"
	mediamodels "github.com/lyzr/vidgrab/common/models"
	"github.com/lyzr/vidgrab/common/policy"
	"github.com/lyzr/vidgrab/common/telemetry"
	"github.com/lyzr/vidgrab/common/validation"
	"github.com/lyzr/vidgrab/common/workspace"
)

// recordTimeout bounds history writes, which run after the request context may be gone
const recordTimeout = 5 * time.Second

// Transcoder converts the mp3 intermediate into wav
type Transcoder interface {
	ToWAV(ctx context.Context, mp3Path string) (string, error)
}

// Recorder receives one record per job that reached the pipeline
type Recorder interface {
	Record(ctx context.Context, rec *models.DownloadRecord) error
}

// Options tunes the pipeline
type Options struct {
	AudioQuality     string
	ExtractTimeout   time.Duration
	TranscodeTimeout time.Duration
	CleanupOnSend    bool
}

// DownloadService runs one download job end to end: workspace, extraction,
// optional transcode, artifact resolution.
type DownloadService struct {
	validator  *validation.SourceValidator
	policy     *policy.Policy
	workspaces *workspace.Manager
	extractor  extractor.Extractor
	transcoder Transcoder
	recorders  []Recorder
	telemetry  *telemetry.Telemetry
	opts       Options
	log        *logger.Logger
}

// NewDownloadService creates a new download service
func NewDownloadService(
	validator *validation.SourceValidator,
	pol *policy.Policy,
	workspaces *workspace.Manager,
	ext extractor.Extractor,
	transcoder Transcoder,
	opts Options,
	tel *telemetry.Telemetry,
	log *logger.Logger,
) *DownloadService {
	if pol == nil {
		pol, _ = policy.New("")
	}
	return &DownloadService{
		validator:  validator,
		policy:     pol,
		workspaces: workspaces,
		extractor:  ext,
		transcoder: transcoder,
		telemetry:  tel,
		opts:       opts,
		log:        log,
	}
}

// AddRecorder registers a history sink
func (s *DownloadService) AddRecorder(r Recorder) {
	s.recorders = append(s.recorders, r)
}

// Prepare validates raw query values in order: url present, format known, url
// shape supported, policy. Policy rejections are recorded.
func (s *DownloadService) Prepare(ctx context.Context, rawURL, rawFormat string) (*models.DownloadRequest, error) {
	if rawURL == "" {
		return nil, ErrMissingURL
	}

	format, err := mediamodels.ParseFormat(rawFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	platform, ok := s.validator.Classify(rawURL)
	if !ok {
		return nil, ErrUnsupportedURL
	}

	req := &models.DownloadRequest{
		URL:      rawURL,
		Format:   format,
		Platform: string(platform),
	}

	allowed, err := s.policy.Allow(policy.Input{
		URL:      rawURL,
		Platform: string(platform),
		Format:   format.String(),
	})
	if err != nil {
		s.log.Warn("policy evaluation failed", "url", rawURL, "error", err)
		err = fmt.Errorf("%w: %v", ErrPolicyDenied, err)
	} else if !allowed {
		err = ErrPolicyDenied
	}
	if err != nil {
		s.record(ctx, uuid.New().String(), req, nil, err, time.Now())
		return nil, err
	}

	return req, nil
}

// Download runs the pipeline for req and returns the artifact to stream. On
// failure the workspace is removed before returning. There are no retries.
func (s *DownloadService) Download(ctx context.Context, req *models.DownloadRequest) (*mediamodels.Artifact, error) {
	start := time.Now()

	ws, err := s.workspaces.Create()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrWorkspace, err)
		s.log.Error("workspace creation failed", "url", req.URL, "error", err)
		s.record(ctx, uuid.New().String(), req, nil, err, start)
		return nil, err
	}

	log := s.log.WithJobID(ws.ID)
	log.Info("download started", "url", req.URL, "format", req.Format, "platform", req.Platform)

	a, err := s.run(ctx, log, ws, req)
	if err != nil {
		log.Warn("download failed", "kind", ErrorKind(err), "error", err)
		if rmErr := s.workspaces.Remove(ws); rmErr != nil {
			log.Warn("failed to remove workspace", "error", rmErr)
		}
	} else {
		log.Info("download completed",
			"artifact", a.Name(),
			"size", a.Size,
			"duration_ms", time.Since(start).Milliseconds())
	}

	s.record(ctx, ws.ID, req, a, err, start)
	return a, err
}

// Release deletes the artifact's workspace once it has been streamed
func (s *DownloadService) Release(a *mediamodels.Artifact) {
	if a == nil || !s.opts.CleanupOnSend {
		return
	}
	if err := s.workspaces.RemovePath(a.WorkspaceDir); err != nil {
		s.log.Warn("failed to release workspace", "workspace", a.WorkspaceDir, "error", err)
	}
}

func (s *DownloadService) run(ctx context.Context, log *logger.Logger, ws *workspace.Workspace, req *models.DownloadRequest) (*mediamodels.Artifact, error) {
	if err := s.extract(ctx, log, ws, req); err != nil {
		return nil, err
	}

	if req.Format == mediamodels.FormatWAV {
		if err := s.transcode(ctx, log, ws); err != nil {
			return nil, err
		}
	}

	path, ok := artifact.Resolve(ws.Path, req.Format)
	if !ok {
		return nil, fmt.Errorf("%w: no %s file in workspace", ErrArtifactNotFound, req.Format.Extension())
	}

	a, ok := artifact.Stat(path, ws.Path, req.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %s vanished", ErrArtifactNotFound, path)
	}

	return a, nil
}

func (s *DownloadService) extract(ctx context.Context, log *logger.Logger, ws *workspace.Workspace, req *models.DownloadRequest) error {
	defer s.telemetry.RecordDuration(log, "extract", time.Now())

	ctx, cancel := context.WithTimeout(ctx, s.opts.ExtractTimeout)
	defer cancel()

	opts := extractor.OptionsFor(req.Format, ws.Path, s.opts.AudioQuality)
	if err := s.extractor.Extract(ctx, req.URL, opts); err != nil {
		return toolError("extract", err)
	}
	return nil
}

func (s *DownloadService) transcode(ctx context.Context, log *logger.Logger, ws *workspace.Workspace) error {
	defer s.telemetry.RecordDuration(log, "transcode", time.Now())

	mp3Path, ok := artifact.Resolve(ws.Path, mediamodels.FormatMP3)
	if !ok {
		return ErrMissingIntermediate
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.TranscodeTimeout)
	defer cancel()

	if _, err := s.transcoder.ToWAV(ctx, mp3Path); err != nil {
		return toolError("transcode", err)
	}
	return nil
}

// record fans the job outcome out to every recorder. Failures are logged only.
func (s *DownloadService) record(ctx context.Context, jobID string, req *models.DownloadRequest, a *mediamodels.Artifact, jobErr error, start time.Time) {
	if len(s.recorders) == 0 {
		return
	}

	id, err := uuid.Parse(jobID)
	if err != nil {
		id = uuid.New()
	}

	rec := &models.DownloadRecord{
		ID:         id,
		URL:        req.URL,
		Platform:   req.Platform,
		Format:     req.Format,
		Status:     models.StatusCompleted,
		DurationMs: time.Since(start).Milliseconds(),
		CreatedAt:  start.UTC(),
	}

	if jobErr != nil {
		kind := ErrorKind(jobErr)
		rec.Status = models.StatusFailed
		if kind == KindPolicyDenied {
			rec.Status = models.StatusRejected
		}
		rec.ErrorKind = &kind
	}

	if a != nil {
		name := a.Name()
		size := a.Size
		rec.ArtifactName = &name
		rec.ArtifactSize = &size
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	for _, r := range s.recorders {
		if err := r.Record(recordCtx, rec); err != nil {
			s.log.Warn("failed to record download", "job_id", jobID, "error", err)
		}
	}
}
