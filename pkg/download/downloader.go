package download

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/Sriram-PR/novel-scraper/pkg/extract"
	"github.com/Sriram-PR/novel-scraper/pkg/fetch"
	"github.com/Sriram-PR/novel-scraper/pkg/models"
	"github.com/Sriram-PR/novel-scraper/pkg/output"
	"github.com/Sriram-PR/novel-scraper/pkg/process"
	"github.com/Sriram-PR/novel-scraper/pkg/storage"
	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

// Options controls one download run
type Options struct {
	OutputDir    string
	Start        int // inclusive, 0-based
	End          int // inclusive; negative means the last chapter
	Concurrency  int // values below 1 are treated as 1
	RequestDelay time.Duration
	Format       output.Format
}

// Progress observes chapters reaching their terminal state
type Progress interface {
	Increment()
}

// Option configures a Downloader
type Option func(*Downloader)

// WithSleep replaces the clock used for the per-request delay
func WithSleep(fn fetch.SleepFunc) Option {
	return func(d *Downloader) {
		if fn != nil {
			d.sleep = fn
		}
	}
}

// WithProgress attaches a progress observer
func WithProgress(p Progress) Option {
	return func(d *Downloader) { d.progress = p }
}

// Downloader fetches a book's chapters under a concurrency limit and assembles them, in list order, into one artifact
type Downloader struct {
	extractor extract.ContentFetcher
	store     storage.ChapterStore // may be nil
	log       logrus.FieldLogger
	sleep     fetch.SleepFunc
	progress  Progress
}

// NewDownloader creates a Downloader. store records per-chapter outcomes and may be nil.
func NewDownloader(extractor extract.ContentFetcher, store storage.ChapterStore, log logrus.FieldLogger, opts ...Option) *Downloader {
	d := &Downloader{
		extractor: extractor,
		store:     store,
		log:       log,
		sleep:     fetch.Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// taskResult is what one chapter task leaves in its slot
type taskResult struct {
	chapter      output.Chapter
	fetchedTitle string // non-blank only on success
	failure      *Failure
}

// Download fetches the selected range of book and writes the assembled artifact to opts.OutputDir.
// Chapter failures never abort the run: they become placeholders and are reported in the Summary.
// A range error, writer error or unknown format is returned with a nil Summary and nothing written.
func (d *Downloader) Download(ctx context.Context, book *models.BookInfo, opts Options) (*Summary, error) {
	startTime := time.Now()
	total := len(book.Chapters)

	start, end, err := ClampRange(total, opts.Start, opts.End)
	if err != nil {
		d.log.Warnf("Nothing to download: %v", err)
		return nil, err
	}
	writer, err := output.NewWriter(opts.Format, d.log)
	if err != nil {
		return nil, err
	}

	selected := book.Chapters[start : end+1]
	concurrency := max(1, opts.Concurrency)
	d.log.WithFields(logrus.Fields{
		"start":       start,
		"end":         end,
		"selected":    len(selected),
		"concurrency": concurrency,
		"delay":       opts.RequestDelay.String(),
	}).Info("Starting chapter download")

	// results[i] is written only by the task for selected[i]; wg.Wait orders those writes before assembly.
	results := make([]taskResult, len(selected))
	sem := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup

	for i := range selected {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.runTask(ctx, sem, book, start+i, opts.RequestDelay)
		}(i)
	}
	wg.Wait()

	doc := assemble(book, results)
	path, err := writer.Write(opts.OutputDir, doc)
	if err != nil {
		d.log.Errorf("Writing output failed: %v", err)
		return nil, err
	}

	summary := &Summary{
		OutputPath: path,
		Total:      len(selected),
		Duration:   time.Since(startTime),
	}
	if sum, err := utils.FileChecksum(path); err != nil {
		d.log.Warnf("Could not checksum %s: %v", path, err)
	} else {
		summary.Checksum = sum
	}
	if d.store == nil || !d.tallyFromStore(summary, results, start) {
		tallyResults(summary, results)
	}
	d.log.WithFields(logrus.Fields{
		"output":    path,
		"sha256":    summary.Checksum,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"duration":  summary.Duration.String(),
	}).Info("Download " + summary.String())
	return summary, nil
}

// tallyResults fills the outcome counts and failures from the in-memory task results
func tallyResults(summary *Summary, results []taskResult) {
	for _, r := range results {
		if r.failure != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, *r.failure)
		} else {
			summary.Succeeded++
		}
	}
}

// tallyFromStore fills the outcome counts and failures from the chapter ledger. It reports false,
// leaving summary untouched, when the ledger cannot be read or does not hold one entry per task.
func (d *Downloader) tallyFromStore(summary *Summary, results []taskResult, start int) bool {
	counts, err := d.store.Counts()
	if err != nil {
		d.log.Warnf("Could not read chapter ledger, summarizing from task results: %v", err)
		return false
	}
	if counts.Total != len(results) {
		d.log.Warnf("Chapter ledger holds %d entries for %d chapters, summarizing from task results", counts.Total, len(results))
		return false
	}
	entries, err := d.store.Failures()
	if err != nil {
		d.log.Warnf("Could not read chapter failures, summarizing from task results: %v", err)
		return false
	}

	summary.Succeeded = counts.Succeeded
	summary.Failed = counts.Placeholders()
	for _, e := range entries {
		f := Failure{
			Index:     e.Index,
			Title:     e.Title,
			URL:       e.URL,
			Status:    e.Status,
			ErrorType: e.ErrorType,
		}
		if i := e.Index - start; i >= 0 && i < len(results) && results[i].failure != nil {
			f.Err = results[i].failure.Err
		}
		summary.Failures = append(summary.Failures, f)
	}
	return true
}

// runTask fetches one chapter and turns the outcome into its output slot. It never panics.
func (d *Downloader) runTask(ctx context.Context, sem *semaphore.Weighted, book *models.BookInfo, index int, delay time.Duration) taskResult {
	item := book.Chapters[index]
	taskLog := d.log.WithFields(logrus.Fields{"chapter": index + 1, "url": item.URL})

	referer := book.ReadURL
	if index > 0 {
		referer = book.Chapters[index-1].URL
	}

	res := d.fetchChapter(ctx, sem, item.URL, referer, delay, taskLog)

	var out taskResult
	status := models.ChapterStatusSuccess
	errorType := ""
	title := item.Title

	if res.OK() {
		if t := strings.TrimSpace(res.Title); t != "" {
			title = t
			out.fetchedTitle = t
		}
		text := process.Beautify(res.Content)
		out.chapter = output.Chapter{Title: title, Text: text, Block: process.FormatChapterBlock(title, text)}
		taskLog.Infof("%d/%d %s", index+1, len(book.Chapters), title)
	} else {
		status = models.ChapterStatusFailure
		if res.Status == models.FetchEmpty {
			status = models.ChapterStatusEmpty
		}
		errorType = utils.CategorizeError(res.Err)
		block := process.FormatPlaceholder(item.Title, item.URL)
		out.chapter = output.Chapter{Title: item.Title, Text: strings.TrimSpace(block), Block: block, Failed: true}
		out.failure = &Failure{
			Index:     index,
			Title:     item.Title,
			URL:       item.URL,
			Status:    status,
			ErrorType: errorType,
			Err:       res.Err,
		}
		taskLog.WithField("category", errorType).Warnf("%d/%d %s: chapter replaced by placeholder: %v", index+1, len(book.Chapters), item.Title, res.Err)
	}

	if d.store != nil {
		entry := &models.ChapterDBEntry{
			Index:     index,
			Title:     title,
			URL:       item.URL,
			Status:    status,
			ErrorType: errorType,
			Attempted: time.Now(),
		}
		if err := d.store.Record(entry); err != nil {
			taskLog.Errorf("Failed to record chapter outcome: %v", err)
		}
	}
	if d.progress != nil {
		d.progress.Increment()
	}
	return out
}

// fetchChapter holds one permit of sem for the request delay and the fetch. A panic in the
// extractor is recovered into a failed result.
func (d *Downloader) fetchChapter(ctx context.Context, sem *semaphore.Weighted, chapterURL, referer string, delay time.Duration, taskLog logrus.FieldLogger) (res models.FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			taskLog.WithFields(logrus.Fields{
				"panic_info":  r,
				"stack_trace": string(debug.Stack()),
			}).Error("PANIC recovered while fetching chapter")
			res = models.Failed(fmt.Errorf("panic: %v", r))
		}
	}()

	if err := sem.Acquire(ctx, 1); err != nil {
		return models.Failed(err)
	}
	defer sem.Release(1)

	if delay > 0 {
		if err := d.sleep(ctx, delay); err != nil {
			return models.Failed(err)
		}
	}
	return d.extractor.FetchContent(ctx, chapterURL, referer)
}

// assemble builds the output document from the ordered task results
func assemble(book *models.BookInfo, results []taskResult) *output.Document {
	doc := &output.Document{
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Header:      headerLines(book),
		Chapters:    make([]output.Chapter, len(results)),
	}
	for i, r := range results {
		doc.Chapters[i] = r.chapter
	}

	name := book.Title
	if !book.IsSeries {
		for _, r := range results {
			if r.fetchedTitle != "" {
				name = r.fetchedTitle
				doc.Title = r.fetchedTitle
				break
			}
		}
	}
	doc.Name = utils.SanitizeFilename(name)
	return doc
}

// headerLines returns the book header for a series: the non-blank metadata lines followed by an
// empty entry, so the joined header ends with a blank line. Standalone chapters have no header.
func headerLines(book *models.BookInfo) []string {
	if !book.IsSeries {
		return nil
	}
	var header []string
	if t := strings.TrimSpace(book.Title); t != "" {
		header = append(header, "書名："+t)
	}
	if a := strings.TrimSpace(book.Author); a != "" {
		header = append(header, "作者："+a)
	}
	if d := strings.TrimSpace(book.Description); d != "" {
		header = append(header, "簡介："+d)
	}
	if len(header) > 0 {
		header = append(header, "")
	}
	return header
}
