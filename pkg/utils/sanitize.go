package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// --- Filename Sanitization ---
var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`) // Characters invalid in Windows/Unix filenames
const maxFilenameLength = 180                                          // Max length in bytes, leaves room for the extension

// SanitizeFilename replaces every character that is illegal in a file name with an underscore.
// Each illegal character maps to exactly one underscore so distinct titles stay distinct.
func SanitizeFilename(name string) string {
	sanitized := invalidFilenameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	sanitized = strings.TrimRight(sanitized, ". ") // Windows rejects trailing dots/spaces

	if len(sanitized) > maxFilenameLength {
		// Cut on a rune boundary; titles are mostly CJK and multi-byte
		cut := maxFilenameLength
		for cut > 0 && !utf8.RuneStart(sanitized[cut]) {
			cut--
		}
		sanitized = strings.TrimRight(sanitized[:cut], ". ")
	}

	if sanitized == "" {
		sanitized = "untitled"
	}
	return sanitized
}
