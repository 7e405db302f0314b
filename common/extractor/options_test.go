package extractor

import (
	"path/filepath"
	"testing"

	"github.com/lyzr/vidgrab/common/models"
	"github.com/stretchr/testify/assert"
)

func TestOptionsFor_Audio(t *testing.T) {
	for _, format := range []models.Format{models.FormatMP3, models.FormatWAV} {
		t.Run(format.String(), func(t *testing.T) {
			opts := OptionsFor(format, "downloads/ws-1", "192")

			assert.Equal(t, SelectorBestAudio, opts.FormatSelector)
			assert.True(t, opts.ExtractAudio)
			assert.Equal(t, "mp3", opts.AudioFormat, "wav is transcoded from an mp3 intermediate")
			assert.Equal(t, "192", opts.AudioQuality)
			assert.True(t, opts.NoPlaylist)
			assert.Equal(t, filepath.Join("downloads/ws-1", "%(title)s.%(ext)s"), opts.OutputTemplate)
		})
	}
}

func TestOptionsFor_Video(t *testing.T) {
	opts := OptionsFor(models.FormatMP4, "downloads/ws-2", "192")

	assert.Equal(t, SelectorBestVideoAudio, opts.FormatSelector)
	assert.False(t, opts.ExtractAudio)
	assert.Empty(t, opts.AudioFormat)
	assert.Empty(t, opts.AudioQuality)
	assert.True(t, opts.NoPlaylist)
}

func TestOptionsFor_DefaultQuality(t *testing.T) {
	opts := OptionsFor(models.FormatMP3, "ws", "")
	assert.Equal(t, DefaultAudioQuality, opts.AudioQuality)
}
