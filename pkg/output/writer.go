package output

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

// Format selects the artifact type
type Format string

const (
	FormatText Format = "txt"
	FormatEPUB Format = "epub"
)

// ParseFormat accepts "txt" or "epub", case-insensitively. Empty means txt.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatEPUB:
		return FormatEPUB, nil
	}
	return "", fmt.Errorf("%w: unknown output format '%s' (want txt or epub)", utils.ErrConfigValidation, s)
}

// Chapter is one assembled chapter
type Chapter struct {
	Title  string // fetched title, or the listed title for a placeholder
	Text   string // beautified content, or the placeholder line
	Block  string // the chapter as it appears in the text artifact
	Failed bool
}

// Document is a fully assembled book, ready to be written
type Document struct {
	Name        string // sanitized file name without extension
	Title       string
	Author      string
	Description string
	Header      []string // header entries joined by a blank line; empty for a standalone chapter
	Chapters    []Chapter
}

// Text renders the plain-text artifact: the header entries joined by "\n\n", followed by the
// chapter blocks joined by "\n\n\n\n".
func (d *Document) Text() string {
	blocks := make([]string, len(d.Chapters))
	for i, ch := range d.Chapters {
		blocks[i] = ch.Block
	}
	return strings.Join(d.Header, "\n\n") + strings.Join(blocks, "\n\n\n\n")
}

// Writer persists a Document under dir and returns the path written
type Writer interface {
	Write(dir string, doc *Document) (string, error)
}

// NewWriter returns the writer for format
func NewWriter(format Format, log logrus.FieldLogger) (Writer, error) {
	switch format {
	case FormatText, "":
		return &TextWriter{log: log}, nil
	case FormatEPUB:
		return &EPUBWriter{log: log}, nil
	}
	return nil, fmt.Errorf("%w: unknown output format '%s'", utils.ErrConfigValidation, format)
}
