package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/novel-scraper/pkg/fetch"
	"github.com/Sriram-PR/novel-scraper/pkg/models"
	"github.com/Sriram-PR/novel-scraper/pkg/parse"
)

// PageSize is the number of chapters requested per listing page
const PageSize = 30

// Resolver turns an entry URL into a book and its ordered chapter list
type Resolver struct {
	getter    fetch.Getter
	endpoints parse.Endpoints
	log       logrus.FieldLogger
}

// NewResolver creates a Resolver fetching through getter
func NewResolver(getter fetch.Getter, endpoints parse.Endpoints, log logrus.FieldLogger) *Resolver {
	return &Resolver{
		getter:    getter,
		endpoints: endpoints,
		log:       log,
	}
}

// ResolveBook builds the BookInfo for entryURL.
// A URL without a series id is a standalone chapter and is returned without any network call.
func (r *Resolver) ResolveBook(ctx context.Context, entryURL string) (*models.BookInfo, error) {
	if _, ok := parse.SeriesID(entryURL); !ok {
		r.log.WithField("url", entryURL).Info("No series id in URL, treating it as a single chapter")
		return models.NewStandaloneBook(entryURL), nil
	}

	page, err := r.getter.GetString(ctx, entryURL, "", "utf-8")
	if err != nil {
		return nil, fmt.Errorf("fetch series page: %w", err)
	}
	meta, err := ParseMetadata(page)
	if err != nil {
		return nil, err
	}

	chapters, err := r.ResolveChapters(ctx, entryURL)
	if err != nil {
		return nil, err
	}

	book := models.NewBookInfo(meta.Title, meta.Author, meta.Description, entryURL, chapters)
	r.log.WithFields(logrus.Fields{
		"title":    book.Title,
		"author":   book.Author,
		"chapters": len(book.Chapters),
	}).Info("Resolved series")
	return book, nil
}

// ResolveChapters pages through the series listing in ascending order.
// It stops at the first page holding fewer than PageSize items, so a series whose length is an
// exact multiple of PageSize costs one extra (empty) request. It also stops at a full page that adds
// no new chapter. Duplicate URLs keep their first position.
// Returns an empty list when entryURL has no series id.
func (r *Resolver) ResolveChapters(ctx context.Context, entryURL string) ([]models.ChapterItem, error) {
	seriesID, ok := parse.SeriesID(entryURL)
	if !ok {
		return []models.ChapterItem{}, nil
	}
	seriesLog := r.log.WithField("series_id", seriesID)

	chapters := make([]models.ChapterItem, 0, PageSize)
	seen := make(map[string]struct{})

	for lastOrder := 0; ; lastOrder += PageSize {
		pageURL := r.endpoints.SeriesContent(seriesID, PageSize, lastOrder)
		body, err := r.getter.GetString(ctx, pageURL, entryURL, "utf-8")
		if err != nil {
			return nil, fmt.Errorf("fetch series listing at offset %d: %w", lastOrder, err)
		}
		items, err := parse.DecodeSeriesContent([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("series listing at offset %d: %w", lastOrder, err)
		}
		seriesLog.Debugf("Listing page at offset %d returned %d item(s)", lastOrder, len(items))

		added := 0
		for _, item := range items {
			id := strings.TrimSpace(string(item.ID))
			if id == "" {
				seriesLog.Warnf("Skipping listing entry without id (title %q)", item.Title)
				continue
			}
			chapterURL := r.endpoints.ChapterURL(id)
			key := parse.NormalizeString(chapterURL)
			if _, dup := seen[key]; dup {
				seriesLog.Debugf("Dropping duplicate chapter %s", chapterURL)
				continue
			}
			seen[key] = struct{}{}

			title := strings.TrimSpace(item.Title)
			if title == "" {
				title = models.UnknownChapter
			}
			chapters = append(chapters, models.ChapterItem{Title: title, URL: chapterURL})
			added++
		}

		if len(items) < PageSize {
			break
		}
		if added == 0 {
			// upstream ignored last_order and repeated a page
			seriesLog.Warnf("Listing page at offset %d added no new chapters, stopping", lastOrder)
			break
		}
	}

	seriesLog.Infof("Resolved %d chapter(s)", len(chapters))
	return chapters, nil
}
