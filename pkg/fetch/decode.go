package fetch

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

// DecodeBody converts body from the named charset (WHATWG label, e.g. "utf-8", "big5", "shift_jis") to a Go string.
// An empty name means utf-8. A leading UTF-8 BOM is dropped.
func DecodeBody(body []byte, charset string) (string, error) {
	name := strings.TrimSpace(charset)
	if name == "" {
		name = "utf-8"
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("%w: '%s': %w", utils.ErrEncoding, name, err)
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("%w: decoding as '%s': %w", utils.ErrEncoding, name, err)
	}
	return strings.TrimPrefix(string(decoded), "\uFEFF"), nil
}
