package download

import (
	"fmt"
	"time"

	"github.com/Sriram-PR/novel-scraper/pkg/models"
)

// Failure describes one chapter that ended up as a placeholder
type Failure struct {
	Index     int // position in the full chapter list
	Title     string
	URL       string
	Status    models.ChapterStatus // empty or failure
	ErrorType string
	Err       error
}

// Summary is the result of a completed run
type Summary struct {
	OutputPath string
	Checksum   string // hex SHA-256 of the artifact; empty if it could not be read back
	Total      int // chapters in the selected range
	Succeeded  int
	Failed     int // empty + failed chapters, i.e. placeholders in the output
	Failures   []Failure
	Duration   time.Duration
}

// Complete reports whether every selected chapter was fetched
func (s *Summary) Complete() bool {
	return s.Failed == 0
}

func (s *Summary) String() string {
	if s.Complete() {
		return fmt.Sprintf("completed successfully (%d chapters)", s.Total)
	}
	return fmt.Sprintf("completed with %d failure(s)", s.Failed)
}
