package models

import (
	"strings"
	"time"
)

// Sentinels assigned at construction time when upstream metadata is missing
const (
	UnknownTitle   = "Unknown Title"
	UnknownAuthor  = "Unknown Author"
	UnknownChapter = "Unknown Chapter"
)

// ChapterItem is one entry of a book's chapter list. Identity is the URL.
type ChapterItem struct {
	Title string
	URL   string
}

// BookInfo describes a novel and its ordered chapter list.
// Chapters order is the canonical reading order and must be preserved by every consumer.
type BookInfo struct {
	Title       string
	Author      string
	Description string
	ReadURL     string // Entry URL the book was resolved from; referer for the first chapter
	IsSeries    bool   // True when resolved from a multi-chapter series, false for a standalone chapter
	Chapters    []ChapterItem
}

// NewBookInfo builds a series BookInfo, replacing blank metadata with the Unknown* sentinels.
func NewBookInfo(title, author, description, readURL string, chapters []ChapterItem) *BookInfo {
	title = strings.TrimSpace(title)
	if title == "" {
		title = UnknownTitle
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = UnknownAuthor
	}
	return &BookInfo{
		Title:       title,
		Author:      author,
		Description: strings.TrimSpace(description),
		ReadURL:     readURL,
		IsSeries:    true,
		Chapters:    chapters,
	}
}

// NewStandaloneBook builds a single-chapter BookInfo whose only chapter is the entry URL itself.
func NewStandaloneBook(entryURL string) *BookInfo {
	return &BookInfo{
		Title:    UnknownTitle,
		Author:   UnknownAuthor,
		ReadURL:  entryURL,
		Chapters: []ChapterItem{{Title: UnknownChapter, URL: entryURL}},
	}
}

// ChapterDBEntry stores the terminal outcome of one chapter download in the outcome store
type ChapterDBEntry struct {
	Index     int           `json:"index"`                // Position in the full chapter list
	Title     string        `json:"title"`                // Resolved title on success, listed title otherwise
	URL       string        `json:"url"`                  // Chapter URL
	Status    ChapterStatus `json:"status"`               // success, empty or failure
	ErrorType string        `json:"error_type,omitempty"` // Error category (on empty/failure)
	Attempted time.Time     `json:"attempted"`            // When the task reached its terminal state
}
