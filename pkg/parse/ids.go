package parse

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	seriesIDPattern = regexp.MustCompile(`series/(\d+)`)
	queryIDPattern  = regexp.MustCompile(`[?&]id=(\d+)`)
)

// SeriesID returns the numeric series identifier embedded in a series URL (".../novel/series/<digits>").
func SeriesID(rawURL string) (string, bool) {
	m := seriesIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ChapterID returns the numeric novel id for a chapter URL.
// A series/<digits> segment takes precedence over an id=<digits> query parameter.
func ChapterID(rawURL string) (string, bool) {
	if id, ok := SeriesID(rawURL); ok {
		return id, true
	}
	m := queryIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Endpoints builds the upstream URLs for one origin and UI language.
type Endpoints struct {
	BaseURL string // e.g. https://www.pixiv.net, no trailing slash
	Lang    string // e.g. zh_tw
}

// SeriesContent is one page of a series' chapter listing, ascending, starting after lastOrder items.
func (e Endpoints) SeriesContent(seriesID string, limit, lastOrder int) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("last_order", strconv.Itoa(lastOrder))
	q.Set("order_by", "asc")
	q.Set("lang", e.Lang)
	return fmt.Sprintf("%s/ajax/novel/series_content/%s?%s", e.base(), url.PathEscape(seriesID), q.Encode())
}

// NovelContent is the single-chapter content lookup.
func (e Endpoints) NovelContent(novelID string) string {
	return fmt.Sprintf("%s/ajax/novel/%s?lang=%s", e.base(), url.PathEscape(novelID), url.QueryEscape(e.Lang))
}

// ChapterURL is the public reading page of a chapter.
func (e Endpoints) ChapterURL(novelID string) string {
	return fmt.Sprintf("%s/novel/show.php?id=%s", e.base(), url.QueryEscape(novelID))
}

func (e Endpoints) base() string {
	return strings.TrimRight(e.BaseURL, "/")
}
