package extractor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/lyzr/vidgrab/common/logger"
	"github.com/lyzr/vidgrab/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_AudioFlags(t *testing.T) {
	y := NewYtDlp("/opt/bin/yt-dlp", "/opt/bin/ffmpeg", logger.Discard())

	for _, format := range []models.Format{models.FormatMP3, models.FormatWAV} {
		t.Run(format.String(), func(t *testing.T) {
			opts := OptionsFor(format, "downloads/ws-1", "192")
			flags := y.command(opts).GetFlagConfig()

			require.NotNil(t, flags.VideoSelection.NoPlaylist)
			assert.True(t, *flags.VideoSelection.NoPlaylist)
			require.NotNil(t, flags.Filesystem.Output)
			assert.Equal(t, opts.OutputTemplate, *flags.Filesystem.Output)
			require.NotNil(t, flags.VideoFormat.Format)
			assert.Equal(t, SelectorBestAudio, *flags.VideoFormat.Format)

			require.NotNil(t, flags.PostProcessing.ExtractAudio)
			assert.True(t, *flags.PostProcessing.ExtractAudio)
			require.NotNil(t, flags.PostProcessing.AudioFormat)
			assert.Equal(t, "mp3", *flags.PostProcessing.AudioFormat)
			require.NotNil(t, flags.PostProcessing.AudioQuality)
			assert.Equal(t, "192", *flags.PostProcessing.AudioQuality)
			require.NotNil(t, flags.PostProcessing.FFmpegLocation)
			assert.Equal(t, "/opt/bin/ffmpeg", *flags.PostProcessing.FFmpegLocation)

			require.NotNil(t, flags.VerbositySimulation.Quiet)
			assert.True(t, *flags.VerbositySimulation.Quiet)
			require.NotNil(t, flags.VerbositySimulation.NoWarnings)
			assert.True(t, *flags.VerbositySimulation.NoWarnings)
		})
	}
}

func TestCommand_VideoFlags(t *testing.T) {
	y := NewYtDlp("", "", logger.Discard())

	flags := y.command(OptionsFor(models.FormatMP4, "downloads/ws-2", "192")).GetFlagConfig()

	require.NotNil(t, flags.VideoFormat.Format)
	assert.Equal(t, SelectorBestVideoAudio, *flags.VideoFormat.Format)
	require.NotNil(t, flags.VideoSelection.NoPlaylist)
	assert.True(t, *flags.VideoSelection.NoPlaylist)
	assert.Nil(t, flags.PostProcessing.ExtractAudio)
	assert.Nil(t, flags.PostProcessing.AudioFormat)
	assert.Nil(t, flags.PostProcessing.AudioQuality)
	assert.Nil(t, flags.PostProcessing.FFmpegLocation)
}

// writeScript installs a shell script standing in for yt-dlp
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestExtract_FailureLogsStderr(t *testing.T) {
	script := writeScript(t, `echo "ERROR: Unsupported URL" >&2; exit 1`)

	var buf bytes.Buffer
	y := NewYtDlp(script, "", logger.NewWithWriter(&buf, "info", "json"))

	err := y.Extract(context.Background(), "https://youtu.be/abc", OptionsFor(models.FormatMP4, t.TempDir(), ""))
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Contains(t, buf.String(), "ERROR: Unsupported URL")
}

func TestExtract_TimeoutLogsStderr(t *testing.T) {
	script := writeScript(t, `echo "ERROR: fetching slowly" >&2; exec sleep 5`)

	var buf bytes.Buffer
	y := NewYtDlp(script, "", logger.NewWithWriter(&buf, "info", "json"))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := y.Extract(ctx, "https://youtu.be/abc", OptionsFor(models.FormatMP4, t.TempDir(), ""))
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, buf.String(), "yt-dlp interrupted")
	assert.Contains(t, buf.String(), "ERROR: fetching slowly")
}
