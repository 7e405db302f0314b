package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/lyzr/vidgrab/common/logger"
)

// ErrExtractionFailed covers every failure of the extraction tool. Callers get
// no finer distinction; details are logged.
var ErrExtractionFailed = errors.New("extraction failed")

// Extractor populates a workspace with the media behind a URL
type Extractor interface {
	Extract(ctx context.Context, url string, opts Options) error
}

// YtDlp drives the yt-dlp executable
type YtDlp struct {
	executable     string
	ffmpegLocation string
	log            *logger.Logger
}

// NewYtDlp creates a yt-dlp driver. An empty executable uses yt-dlp from PATH.
// ffmpegLocation is passed on so the audio post-processor uses the same binary
// as the transcode step.
func NewYtDlp(executable, ffmpegLocation string, log *logger.Logger) *YtDlp {
	return &YtDlp{
		executable:     executable,
		ffmpegLocation: ffmpegLocation,
		log:            log,
	}
}

// Extract runs yt-dlp for url. It blocks until the process exits or ctx is done,
// in which case the process is killed.
func (y *YtDlp) Extract(ctx context.Context, url string, opts Options) error {
	dl := y.command(opts)

	result, err := dl.Run(ctx, url)
	if err == nil {
		return nil
	}

	stderr := ""
	if result != nil {
		stderr = strings.TrimSpace(result.Stderr)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		y.log.Warn("yt-dlp interrupted", "url", url, "reason", ctxErr, "stderr", stderr)
		return fmt.Errorf("%w: %w", ErrExtractionFailed, ctxErr)
	}

	y.log.Warn("yt-dlp exited with error", "url", url, "error", err, "stderr", stderr)

	return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
}

// command translates Options into a yt-dlp invocation
func (y *YtDlp) command(opts Options) *ytdlp.Command {
	dl := ytdlp.New().
		Quiet().
		NoWarnings().
		Output(opts.OutputTemplate).
		Format(opts.FormatSelector)

	if y.executable != "" {
		dl.SetExecutable(y.executable)
	}

	if y.ffmpegLocation != "" {
		dl.FFmpegLocation(y.ffmpegLocation)
	}

	if opts.NoPlaylist {
		dl.NoPlaylist()
	}

	if opts.ExtractAudio {
		dl.ExtractAudio().
			AudioFormat(opts.AudioFormat).
			AudioQuality(opts.AudioQuality)
	}

	return dl
}
