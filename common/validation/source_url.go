package validation

import (
	"regexp"
)

// Platform identifies the hosting platform a source URL belongs to
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformUnknown   Platform = "unknown"
)

// schemePrefix strips an optional scheme and an optional "www." before the host.
const schemePrefix = `^(?:https?://)?(?:www\.)?`

type sourceShape struct {
	name     string
	platform Platform
	pattern  *regexp.Regexp
}

// SourceValidator is a syntactic pre-filter for download URLs. It never touches
// the network, so a URL it accepts can still fail extraction.
type SourceValidator struct {
	shapes []sourceShape
}

// NewSourceValidator creates a validator for the supported URL shapes
func NewSourceValidator() *SourceValidator {
	return &SourceValidator{
		shapes: []sourceShape{
			{"youtube-watch", PlatformYouTube, regexp.MustCompile(schemePrefix + `youtube\.com/watch\?v=`)},
			{"youtube-short-link", PlatformYouTube, regexp.MustCompile(schemePrefix + `youtu\.be/`)},
			{"facebook-video", PlatformFacebook, regexp.MustCompile(schemePrefix + `facebook\.com/.+/videos/.+`)},
			{"instagram-post", PlatformInstagram, regexp.MustCompile(schemePrefix + `instagram\.com/p/.+`)},
		},
	}
}

// Validate reports whether url matches one of the supported shapes
func (v *SourceValidator) Validate(url string) bool {
	_, ok := v.Classify(url)
	return ok
}

// Classify returns the platform of the first matching shape
func (v *SourceValidator) Classify(url string) (Platform, bool) {
	for _, shape := range v.shapes {
		if shape.pattern.MatchString(url) {
			return shape.platform, true
		}
	}
	return PlatformUnknown, false
}

// SupportedShapes lists the accepted URL shapes by name
func (v *SourceValidator) SupportedShapes() []string {
	names := make([]string, 0, len(v.shapes))
	for _, shape := range v.shapes {
		names = append(names, shape.name)
	}
	return names
}
