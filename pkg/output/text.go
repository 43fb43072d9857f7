package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

// TextWriter writes {dir}/{name}.txt, UTF-8 without BOM
type TextWriter struct {
	log logrus.FieldLogger
}

// Write implements Writer
func (w *TextWriter) Write(dir string, doc *Document) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating output directory '%s': %w", utils.ErrFilesystem, dir, err)
	}

	path := filepath.Join(dir, doc.Name+"."+string(FormatText))
	text := doc.Text()
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("%w: saving text '%s': %w", utils.ErrFilesystem, path, err)
	}

	w.log.Infof("Saved text (%d bytes): %s", len(text), path)
	return path, nil
}
