package storage

import (
	"github.com/Sriram-PR/novel-scraper/pkg/models"
)

// Counts tallies recorded chapter outcomes by status
type Counts struct {
	Total     int
	Succeeded int
	Empty     int
	Failed    int
}

// Placeholders is the number of chapters that ended up as placeholders (empty or failed)
func (c Counts) Placeholders() int {
	return c.Empty + c.Failed
}

// ChapterStore is the per-run ledger of chapter outcomes.
// Entries are keyed by the chapter's position in the full chapter list.
type ChapterStore interface {
	// Record stores the terminal outcome of one chapter, replacing any earlier entry for the same index
	Record(entry *models.ChapterDBEntry) error

	// Counts tallies all recorded entries
	Counts() (Counts, error)

	// Failures returns the empty and failed entries in index order
	Failures() ([]models.ChapterDBEntry, error)

	// WriteReport writes every recorded entry, in index order, as a TSV file at path
	WriteReport(path string) error

	// Close releases the store
	Close() error
}
