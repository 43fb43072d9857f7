package process

import (
	"fmt"
	"strings"
)

// PlaceholderMarker follows the listed title in a placeholder block
const PlaceholderMarker = "（抓取失敗）"

// Beautify normalises raw chapter text: every line is trimmed, blank lines are dropped,
// and the remaining lines are separated by exactly one blank line. Trailing whitespace is removed.
// Beautify(Beautify(x)) == Beautify(x).
func Beautify(content string) string {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line) // also strips \r
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.TrimRight(strings.Join(kept, "\n\n"), " \t\r\n")
}

// FormatChapterBlock renders a fetched chapter. content is expected to be beautified already.
func FormatChapterBlock(title, content string) string {
	return fmt.Sprintf("【%s】\n\n%s\n", title, content)
}

// FormatPlaceholder renders the block standing in for a chapter that could not be fetched.
func FormatPlaceholder(title, url string) string {
	return fmt.Sprintf("【%s】%s%s\n", title, PlaceholderMarker, url)
}
