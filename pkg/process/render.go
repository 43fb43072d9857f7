package process

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

var xhtmlRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
		html.WithXHTML(),
	),
)

// RenderXHTML renders beautified chapter text as an XHTML fragment, one <p> per paragraph.
// The text is treated as literal: markdown syntax in a novel (leading #, *, > ...) is escaped first.
func RenderXHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := xhtmlRenderer.Convert([]byte(escapeMarkdown(text)), &buf); err != nil {
		return "", fmt.Errorf("render chapter XHTML: %w", err)
	}
	return buf.String(), nil
}

// escapeMarkdown backslash-escapes every ASCII punctuation character, which CommonMark always reads as a literal.
func escapeMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 0x80 && isASCIIPunct(byte(r)) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isASCIIPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') || (c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}
