package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lyzr/vidgrab/common/logger"
)

// FFmpegCommand is the executable used when none is configured
const FFmpegCommand = "ffmpeg"

// WAVExtension is the extension of the transcoded output
const WAVExtension = ".wav"

// ErrTranscodeFailed is returned when ffmpeg exits non-zero or cannot be started
var ErrTranscodeFailed = errors.New("transcode failed")

// runFunc runs an external command and returns its combined stderr
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// FFmpeg converts the mp3 intermediate into wav
type FFmpeg struct {
	executable string
	log        *logger.Logger
	run        runFunc
}

// NewFFmpeg creates a transcoder using the given ffmpeg executable
func NewFFmpeg(executable string, log *logger.Logger) *FFmpeg {
	if executable == "" {
		executable = FFmpegCommand
	}
	return &FFmpeg{
		executable: executable,
		log:        log,
		run:        runCommand,
	}
}

// BuildWAVArgs builds the ffmpeg arguments for an overwriting mp3 -> wav conversion
func BuildWAVArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",            // Overwrite output file
		"-i", inputPath, // Input file
		outputPath,
	}
}

// WAVPath returns the output path: same directory and base name, .wav extension
func WAVPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + WAVExtension
}

// ToWAV transcodes mp3Path into a sibling .wav file and deletes mp3Path on
// success, so the workspace ends up holding only the wav.
func (f *FFmpeg) ToWAV(ctx context.Context, mp3Path string) (string, error) {
	wavPath := WAVPath(mp3Path)

	stderr, err := f.run(ctx, f.executable, BuildWAVArgs(mp3Path, wavPath)...)
	if err != nil {
		// Leave no partial output behind
		os.Remove(wavPath)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", ErrTranscodeFailed, ctxErr)
		}

		f.log.Warn("ffmpeg exited with error",
			"input", mp3Path,
			"error", err,
			"stderr", strings.TrimSpace(string(stderr)))
		return "", fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}

	if err := os.Remove(mp3Path); err != nil {
		return "", fmt.Errorf("%w: remove intermediate %s: %v", ErrTranscodeFailed, mp3Path, err)
	}

	return wavPath, nil
}

// runCommand executes name with args, killing it when ctx is done
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.Bytes(), err
}
