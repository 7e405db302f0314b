package extractor

import (
	"path/filepath"

	"github.com/lyzr/vidgrab/common/models"
)

// Format selectors understood by yt-dlp
const (
	SelectorBestAudio      = "bestaudio/best"
	SelectorBestVideoAudio = "bestvideo+bestaudio/best"
)

// Audio post-processing defaults. wav is produced downstream from the mp3
// intermediate, so both audio formats extract to mp3.
const (
	IntermediateAudioFormat = "mp3"
	DefaultAudioQuality     = "192"
)

// OutputTemplate names files after the source title, extension chosen by the tool
const OutputTemplate = "%(title)s.%(ext)s"

// Options is the declarative configuration handed to the extraction tool
type Options struct {
	// Full output path template inside the workspace
	OutputTemplate string

	// Always true: a playlist URL is treated as its primary item
	NoPlaylist bool

	// Source format selector
	FormatSelector string

	// Inline audio extraction post-processing
	ExtractAudio bool
	AudioFormat  string
	AudioQuality string
}

// OptionsFor derives extraction options for the requested format
func OptionsFor(format models.Format, workspaceDir, audioQuality string) Options {
	if audioQuality == "" {
		audioQuality = DefaultAudioQuality
	}

	opts := Options{
		OutputTemplate: filepath.Join(workspaceDir, OutputTemplate),
		NoPlaylist:     true,
	}

	if format.IsAudio() {
		opts.FormatSelector = SelectorBestAudio
		opts.ExtractAudio = true
		opts.AudioFormat = IntermediateAudioFormat
		opts.AudioQuality = audioQuality
		return opts
	}

	opts.FormatSelector = SelectorBestVideoAudio
	return opts
}
