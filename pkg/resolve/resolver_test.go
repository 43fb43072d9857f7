package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/novel-scraper/pkg/config"
	"github.com/Sriram-PR/novel-scraper/pkg/fetch"
	"github.com/Sriram-PR/novel-scraper/pkg/models"
	"github.com/Sriram-PR/novel-scraper/pkg/parse"
	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

const testBase = "https://www.pixiv.net"

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

type call struct {
	url     string
	referer string
}

// fakeGetter serves canned bodies by URL and records every call
type fakeGetter struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  []call
}

func (g *fakeGetter) GetString(ctx context.Context, rawURL, referer, encoding string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call{url: rawURL, referer: referer})
	if err, ok := g.errs[rawURL]; ok {
		return "", err
	}
	body, ok := g.bodies[rawURL]
	if !ok {
		return "", fmt.Errorf("unexpected URL %s", rawURL)
	}
	return body, nil
}

func listingPage(t *testing.T, ids []string, titles ...string) string {
	t.Helper()
	type novel struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	novels := make([]novel, len(ids))
	for i, id := range ids {
		novels[i] = novel{ID: id, Title: "第" + id + "話"}
		if i < len(titles) {
			novels[i].Title = titles[i]
		}
	}
	payload := map[string]any{
		"error":   false,
		"message": "",
		"body":    map[string]any{"thumbnails": map[string]any{"novel": novels}},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(data)
}

func idRange(from, to int) []string {
	var ids []string
	for i := from; i <= to; i++ {
		ids = append(ids, strconv.Itoa(i))
	}
	return ids
}

func newTestResolver(g fetch.Getter) *Resolver {
	return NewResolver(g, parse.Endpoints{BaseURL: testBase, Lang: "zh_tw"}, testLogger())
}

func listingURL(offset int) string {
	return parse.Endpoints{BaseURL: testBase, Lang: "zh_tw"}.SeriesContent("42", PageSize, offset)
}

const entryURL = testBase + "/novel/series/42"

func TestResolveChapters_PartialPage(t *testing.T) {
	g := &fakeGetter{bodies: map[string]string{
		listingURL(0): listingPage(t, idRange(1, 5)),
	}}

	chapters, err := newTestResolver(g).ResolveChapters(context.Background(), entryURL)

	require.NoError(t, err)
	require.Len(t, chapters, 5)
	assert.Equal(t, models.ChapterItem{Title: "第1話", URL: testBase + "/novel/show.php?id=1"}, chapters[0])
	assert.Equal(t, testBase+"/novel/show.php?id=5", chapters[4].URL)
	require.Len(t, g.calls, 1, "a short page ends pagination without another request")
	assert.Equal(t, entryURL, g.calls[0].referer)
}

func TestResolveChapters_ExactMultipleOfPageSize(t *testing.T) {
	g := &fakeGetter{bodies: map[string]string{
		listingURL(0):  listingPage(t, idRange(1, 30)),
		listingURL(30): listingPage(t, nil),
	}}

	chapters, err := newTestResolver(g).ResolveChapters(context.Background(), entryURL)

	require.NoError(t, err)
	assert.Len(t, chapters, 30)
	require.Len(t, g.calls, 2)
	assert.Equal(t, listingURL(0), g.calls[0].url)
	assert.Equal(t, listingURL(30), g.calls[1].url)
}

func TestResolveChapters_MultiplePagesKeepOrder(t *testing.T) {
	g := &fakeGetter{bodies: map[string]string{
		listingURL(0):  listingPage(t, idRange(1, 30)),
		listingURL(30): listingPage(t, idRange(31, 60)),
		listingURL(60): listingPage(t, idRange(61, 62)),
	}}

	chapters, err := newTestResolver(g).ResolveChapters(context.Background(), entryURL)

	require.NoError(t, err)
	require.Len(t, chapters, 62)
	for i, ch := range chapters {
		assert.Equal(t, fmt.Sprintf("%s/novel/show.php?id=%d", testBase, i+1), ch.URL)
	}
	assert.Len(t, g.calls, 3)
}

func TestResolveChapters_RepeatedFullPageStops(t *testing.T) {
	first := listingPage(t, idRange(1, 30))
	g := &fakeGetter{bodies: map[string]string{
		listingURL(0):  first,
		listingURL(30): listingPage(t, idRange(31, 60)),
		listingURL(60): first, // offset ignored, page 1 again
		listingURL(90): first,
	}}

	chapters, err := newTestResolver(g).ResolveChapters(context.Background(), entryURL)

	require.NoError(t, err)
	assert.Len(t, chapters, 60)
	require.Len(t, g.calls, 3, "a full page with nothing new ends pagination")
	assert.Equal(t, listingURL(60), g.calls[2].url)
}

func TestResolveChapters_DuplicatesAndMissingFields(t *testing.T) {
	g := &fakeGetter{bodies: map[string]string{
		listingURL(0): listingPage(t, []string{"1", "2", "1", "", "3"}, "一", "  ", "重複", "無id", "三"),
	}}

	chapters, err := newTestResolver(g).ResolveChapters(context.Background(), entryURL)

	require.NoError(t, err)
	assert.Equal(t, []models.ChapterItem{
		{Title: "一", URL: testBase + "/novel/show.php?id=1"},
		{Title: models.UnknownChapter, URL: testBase + "/novel/show.php?id=2"},
		{Title: "三", URL: testBase + "/novel/show.php?id=3"},
	}, chapters)
}

func TestResolveChapters_NoSeriesID(t *testing.T) {
	g := &fakeGetter{}

	chapters, err := newTestResolver(g).ResolveChapters(context.Background(), testBase+"/novel/show.php?id=9")

	require.NoError(t, err)
	assert.Empty(t, chapters)
	assert.Empty(t, g.calls)
}

func TestResolveChapters_Errors(t *testing.T) {
	fetchErr := errors.New("boom")

	t.Run("FetchError", func(t *testing.T) {
		g := &fakeGetter{errs: map[string]error{listingURL(0): fetchErr}}
		_, err := newTestResolver(g).ResolveChapters(context.Background(), entryURL)
		assert.ErrorIs(t, err, fetchErr)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		g := &fakeGetter{bodies: map[string]string{listingURL(0): "<html></html>"}}
		_, err := newTestResolver(g).ResolveChapters(context.Background(), entryURL)
		assert.ErrorIs(t, err, utils.ErrParsing)
	})

	t.Run("UpstreamError", func(t *testing.T) {
		g := &fakeGetter{bodies: map[string]string{listingURL(0): `{"error":true,"message":"not found","body":[]}`}}
		_, err := newTestResolver(g).ResolveChapters(context.Background(), entryURL)
		assert.ErrorIs(t, err, utils.ErrUpstream)
	})

	t.Run("SecondPageFails", func(t *testing.T) {
		g := &fakeGetter{
			bodies: map[string]string{listingURL(0): listingPage(t, idRange(1, 30))},
			errs:   map[string]error{listingURL(30): fetchErr},
		}
		chapters, err := newTestResolver(g).ResolveChapters(context.Background(), entryURL)
		assert.ErrorIs(t, err, fetchErr)
		assert.Nil(t, chapters)
	})
}

const seriesPage = `<!DOCTYPE html><html><head>
<meta property="twitter:title" content="  ">
<meta property="og:title" content="「星之海」/「山田太郎」的系列作品 [pixiv]">
<meta name="twitter:title" content="星之海">
<meta name="description" content="第一段&lt;br /&gt;第二段">
</head><body></body></html>`

func TestResolveBook_Series(t *testing.T) {
	g := &fakeGetter{bodies: map[string]string{
		entryURL:      seriesPage,
		listingURL(0): listingPage(t, idRange(1, 2)),
	}}

	book, err := newTestResolver(g).ResolveBook(context.Background(), entryURL)

	require.NoError(t, err)
	assert.True(t, book.IsSeries)
	assert.Equal(t, "星之海", book.Title, "blank property= value falls through to name=")
	assert.Equal(t, "山田太郎", book.Author)
	assert.Equal(t, "第一段\n\n第二段", book.Description)
	assert.Equal(t, entryURL, book.ReadURL)
	assert.Len(t, book.Chapters, 2)
}

func TestResolveBook_MissingMetadataUsesSentinels(t *testing.T) {
	g := &fakeGetter{bodies: map[string]string{
		entryURL:      `<html><head><title>x</title></head></html>`,
		listingURL(0): listingPage(t, idRange(1, 1)),
	}}

	book, err := newTestResolver(g).ResolveBook(context.Background(), entryURL)

	require.NoError(t, err)
	assert.Equal(t, models.UnknownTitle, book.Title)
	assert.Equal(t, models.UnknownAuthor, book.Author)
	assert.Equal(t, "", book.Description)
}

func TestResolveBook_Standalone(t *testing.T) {
	g := &fakeGetter{}
	chapterURL := testBase + "/novel/show.php?id=26333534"

	book, err := newTestResolver(g).ResolveBook(context.Background(), chapterURL)

	require.NoError(t, err)
	assert.False(t, book.IsSeries)
	assert.Equal(t, chapterURL, book.ReadURL)
	assert.Equal(t, []models.ChapterItem{{Title: models.UnknownChapter, URL: chapterURL}}, book.Chapters)
	assert.Empty(t, g.calls, "standalone resolution makes no network call")
}

func TestResolveBook_PageFetchFails(t *testing.T) {
	fetchErr := errors.New("page down")
	g := &fakeGetter{errs: map[string]error{entryURL: fetchErr}}

	book, err := newTestResolver(g).ResolveBook(context.Background(), entryURL)

	assert.ErrorIs(t, err, fetchErr)
	assert.Nil(t, book)
}

// TestResolveBook_OverHTTP runs the resolver through the real client and fetcher against a local server
func TestResolveBook_OverHTTP(t *testing.T) {
	var listingRequests atomic.Int32
	var gotReferer atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/novel/series/7":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, seriesPage)
		case strings.HasPrefix(r.URL.Path, "/ajax/novel/series_content/7"):
			listingRequests.Add(1)
			gotReferer.Store(r.Header.Get("Referer"))
			offset, _ := strconv.Atoi(r.URL.Query().Get("last_order"))
			assert.Equal(t, "30", r.URL.Query().Get("limit"))
			assert.Equal(t, "asc", r.URL.Query().Get("order_by"))
			assert.Equal(t, "zh_tw", r.URL.Query().Get("lang"))
			var ids []string
			if offset == 0 {
				ids = idRange(1, 3)
			}
			_, _ = io.WriteString(w, listingPage(t, ids))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := config.Default()
	_, err := cfg.Validate()
	require.NoError(t, err)
	fetcher := fetch.NewFetcher(fetch.NewClient(cfg, testLogger()), testLogger(), fetch.WithRetryDelays())
	defer fetcher.Close()

	resolver := NewResolver(fetcher, parse.Endpoints{BaseURL: server.URL, Lang: "zh_tw"}, testLogger())
	entry := server.URL + "/novel/series/7"

	book, err := resolver.ResolveBook(context.Background(), entry)

	require.NoError(t, err)
	assert.Equal(t, int32(1), listingRequests.Load())
	assert.Equal(t, entry, gotReferer.Load())
	require.Len(t, book.Chapters, 3)
	assert.Equal(t, server.URL+"/novel/show.php?id=1", book.Chapters[0].URL)
	assert.Equal(t, "星之海", book.Title)
}
