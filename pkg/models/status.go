package models

// ChapterStatus represents the terminal state of a chapter download in the outcome store
type ChapterStatus string

const (
	ChapterStatusUnset   ChapterStatus = ""        // Zero value = unset/unknown
	ChapterStatusSuccess ChapterStatus = "success" // Content fetched and formatted
	ChapterStatusEmpty   ChapterStatus = "empty"   // Upstream returned no content
	ChapterStatusFailure ChapterStatus = "failure" // Fetch or extraction failed
)

// String implements fmt.Stringer for logging
func (s ChapterStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a terminal download state
func (s ChapterStatus) IsValid() bool {
	switch s {
	case ChapterStatusSuccess, ChapterStatusEmpty, ChapterStatusFailure:
		return true
	}
	return false
}

// IsFailure reports whether the chapter ended up as a placeholder in the output
func (s ChapterStatus) IsFailure() bool {
	return s == ChapterStatusEmpty || s == ChapterStatusFailure
}
