package parse

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

// NormalizeURL standardizes a chapter URL for identity comparison.
// It lowercases the scheme and host, removes default ports, trims a trailing slash from the path and drops the fragment.
// The query is kept (chapter identity lives in ?id=) but re-encoded in sorted key order.
// Does not modify the input *url.URL
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	normalized := *u

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	host, port, err := net.SplitHostPort(normalized.Host)
	if err == nil {
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host
		}
	}

	if normalized.Path == "" {
		normalized.Path = "/"
	} else if len(normalized.Path) > 1 && strings.HasSuffix(normalized.Path, "/") {
		normalized.Path = normalized.Path[:len(normalized.Path)-1]
	}

	normalized.Fragment = ""
	normalized.RawFragment = ""
	if normalized.RawQuery != "" {
		normalized.RawQuery = normalized.Query().Encode() // Encode sorts by key
	}

	return normalized.String()
}

// NormalizeString parses raw and normalizes it. Unparsable input is returned trimmed but otherwise untouched.
func NormalizeString(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return NormalizeURL(u)
}

// ValidateEntryURL checks that raw is an absolute http(s) URL and returns it trimmed.
func ValidateEntryURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", utils.ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrInvalidURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: '%s' must start with http:// or https://", utils.ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: '%s' has no host", utils.ErrInvalidURL, raw)
	}
	return raw, nil
}
