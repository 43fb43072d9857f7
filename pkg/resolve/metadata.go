package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/novel-scraper/pkg/process"
	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

var (
	titleKeys       = []string{"twitter:title", "og:title", "og:novel:book_name", "name"}
	descriptionKeys = []string{"description", "og:description"}

	// "「書名」/「作者」的系列作品 [pixiv]"
	authorPattern = regexp.MustCompile(`[/／]\s*([^/／]+?)的系列作品`)
)

// Metadata is what the series page says about the book. Blank fields mean "not found".
type Metadata struct {
	Title       string
	Author      string
	Description string
}

// ParseMetadata reads book metadata from the meta tags of a series page
func ParseMetadata(page string) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: series page HTML: %w", utils.ErrParsing, err)
	}

	meta := Metadata{
		Title:  metaContent(doc, titleKeys...),
		Author: authorFromTitle(metaContent(doc, "og:title")),
	}

	description, err := process.DescriptionToText(metaContent(doc, descriptionKeys...))
	if err != nil {
		return Metadata{}, err
	}
	meta.Description = description
	return meta, nil
}

// metaContent returns the first non-blank content among keys, trying property= before name= for each key
func metaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		for _, attr := range []string{"property", "name"} {
			var found string
			doc.Find(fmt.Sprintf(`meta[%s=%q]`, attr, key)).EachWithBreak(func(i int, s *goquery.Selection) bool {
				content, _ := s.Attr("content")
				found = strings.TrimSpace(content)
				return found == ""
			})
			if found != "" {
				return found
			}
		}
	}
	return ""
}

func authorFromTitle(ogTitle string) string {
	m := authorPattern.FindStringSubmatch(ogTitle)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], "「」 \t　")
}
