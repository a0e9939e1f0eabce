package studio

import (
	"strings"
	"unicode/utf8"
)

const (
	maskGlyph     = "•"
	maskMinLength = 6
	maskMaxLength = 32
)

// MaskKey returns the display substitute for a credential: the mask glyph
// repeated clamp(len(key), 6, 32) times. The clamp leaks coarse length
// information but never the content. An empty key masks to the empty string.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}

	n := utf8.RuneCountInString(key)
	if n < maskMinLength {
		n = maskMinLength
	}
	if n > maskMaxLength {
		n = maskMaxLength
	}

	return strings.Repeat(maskGlyph, n)
}
