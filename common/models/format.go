package models

import (
	"fmt"
	"strings"
)

// Format is the output container requested by a client
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
	FormatMP4 Format = "mp4"
)

// DefaultFormat is used when the request carries no format parameter at all
const DefaultFormat = FormatMP4

// SupportedFormats lists every accepted format in display order
var SupportedFormats = []Format{FormatMP3, FormatWAV, FormatMP4}

// ParseFormat normalizes raw (case-insensitive) and rejects anything outside
// the closed set, including the empty string. Defaulting an absent parameter
// is the caller's job.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.ToLower(raw))
	if !f.Valid() {
		return "", fmt.Errorf("unsupported format: %q", raw)
	}
	return f, nil
}

// Valid reports whether f is one of the supported formats
func (f Format) Valid() bool {
	switch f {
	case FormatMP3, FormatWAV, FormatMP4:
		return true
	default:
		return false
	}
}

// IsAudio reports whether f is produced from the audio-only pipeline
func (f Format) IsAudio() bool {
	return f == FormatMP3 || f == FormatWAV
}

// Extension returns the file extension, including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) String() string {
	return string(f)
}
