package auris

import "time"

type (
	// Chapter is a single named region of a stream.
	Chapter struct {
		Title string
		Start time.Duration
	}

	// MetadataConverter normalizes raw metadata fetched by decoder
	// sources. Sources only carry raw tag names and values as the
	// backend stores them, interpretation is left to implementations
	// of this interface.
	MetadataConverter interface {
		// NormalizeTags maps raw tag names and values to normalized
		// ones.
		NormalizeTags(raw map[string]string) map[string]string
		// Chapters converts an embedded cuesheet to chapters of a
		// stream with the provided duration.
		Chapters(cuesheet string, duration time.Duration) []Chapter
	}
)
