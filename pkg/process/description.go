package process

import (
	"fmt"
	"html"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

// DescriptionToText converts a series description (HTML fragment as found in the page meta tags) into plain text.
// Lines are trimmed and runs of blank lines collapse to one.
func DescriptionToText(fragment string) (string, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("%w: description HTML: %w", utils.ErrParsing, err)
	}
	body := doc.Find("body")
	cleanupDescription(body)

	cleaned, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("%w: description HTML: %w", utils.ErrParsing, err)
	}

	// The description is prose, not markdown: nothing may be backslash-escaped.
	converter := md.NewConverter("", true, &md.Options{EscapeMode: "disabled"})
	text, err := converter.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("%w: description HTML conversion: %w", utils.ErrParsing, err)
	}
	return squashBlankLines(text), nil
}

// cleanupDescription drops elements that carry no readable text
func cleanupDescription(content *goquery.Selection) {
	content.Find("script, style, img, iframe").Remove()

	// inline formatting would come back as markdown markers
	content.Find("b, strong, i, em, s, del, u, code").Each(func(i int, s *goquery.Selection) {
		s.ReplaceWithSelection(s.Contents())
	})

	// links keep their label only
	content.Find("a").Each(func(i int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" {
			s.Remove()
			return
		}
		s.ReplaceWithHtml(html.EscapeString(s.Text()))
	})
}

func squashBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
