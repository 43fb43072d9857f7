package output

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-epub"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/novel-scraper/pkg/process"
	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

const epubLang = "zh-TW"

// EPUBWriter writes {dir}/{name}.epub with one section per chapter
type EPUBWriter struct {
	log logrus.FieldLogger
}

// Write implements Writer
func (w *EPUBWriter) Write(dir string, doc *Document) (string, error) {
	if len(doc.Chapters) == 0 {
		return "", fmt.Errorf("no chapters to compile")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating output directory '%s': %w", utils.ErrFilesystem, dir, err)
	}

	e, err := epub.NewEpub(doc.Title)
	if err != nil {
		return "", fmt.Errorf("failed to create EPub: %w", err)
	}
	e.SetAuthor(doc.Author)
	if doc.Description != "" {
		e.SetDescription(doc.Description)
	}
	e.SetLang(epubLang)

	for i, ch := range doc.Chapters {
		body, err := chapterXHTML(ch)
		if err != nil {
			return "", fmt.Errorf("chapter %d: %w", i+1, err)
		}
		if _, err := e.AddSection(body, ch.Title, "", ""); err != nil {
			return "", fmt.Errorf("failed to add section for chapter %d: %w", i+1, err)
		}
	}

	path := filepath.Join(dir, doc.Name+"."+string(FormatEPUB))
	if err := e.Write(path); err != nil {
		return "", fmt.Errorf("%w: failed to write EPub '%s': %w", utils.ErrFilesystem, path, err)
	}

	w.log.Infof("Saved EPUB (%d sections): %s", len(doc.Chapters), path)
	return path, nil
}

func chapterXHTML(ch Chapter) (string, error) {
	paragraphs, err := process.RenderXHTML(strings.TrimSpace(ch.Text))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(ch.Title))
	if ch.Failed {
		b.WriteString(`<div class="placeholder">` + "\n" + paragraphs + "</div>\n")
	} else {
		b.WriteString(paragraphs)
	}
	return b.String(), nil
}
