package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/novel-scraper/pkg/fetch"
	"github.com/Sriram-PR/novel-scraper/pkg/models"
	"github.com/Sriram-PR/novel-scraper/pkg/parse"
	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

// ContentFetcher retrieves the content of one chapter
type ContentFetcher interface {
	FetchContent(ctx context.Context, chapterURL, referer string) models.FetchResult
}

// Extractor fetches chapter content through the novel ajax endpoint
type Extractor struct {
	getter    fetch.Getter
	endpoints parse.Endpoints
	log       logrus.FieldLogger
}

// NewExtractor creates an Extractor fetching through getter
func NewExtractor(getter fetch.Getter, endpoints parse.Endpoints, log logrus.FieldLogger) *Extractor {
	return &Extractor{
		getter:    getter,
		endpoints: endpoints,
		log:       log,
	}
}

// FetchContent returns the raw content and title of the chapter at chapterURL.
// Blank content is an Empty result, not an error; callers format and normalise the text.
func (e *Extractor) FetchContent(ctx context.Context, chapterURL, referer string) models.FetchResult {
	chapterLog := e.log.WithField("url", chapterURL)

	id, ok := parse.ChapterID(chapterURL)
	if !ok {
		err := fmt.Errorf("%w: %s", utils.ErrExtraction, chapterURL)
		chapterLog.Warn(err.Error())
		return models.Failed(err)
	}

	body, err := e.getter.GetString(ctx, e.endpoints.NovelContent(id), referer, "utf-8")
	if err != nil {
		chapterLog.Errorf("Fetching chapter content failed: %v", err)
		return models.Failed(err)
	}

	novel, err := parse.DecodeNovel([]byte(body))
	if err != nil {
		chapterLog.Errorf("Decoding chapter content failed: %v", err)
		return models.Failed(err)
	}

	title := strings.TrimSpace(novel.Title)
	if strings.TrimSpace(novel.Content) == "" {
		chapterLog.WithField("title", title).Warn("Chapter content is empty")
		return models.Empty(title, fmt.Errorf("%w: %s", utils.ErrEmptyContent, chapterURL))
	}

	chapterLog.WithField("title", title).Debugf("Fetched chapter content (%d bytes)", len(novel.Content))
	return models.Succeeded(novel.Content, title)
}
