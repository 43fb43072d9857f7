package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

var knownOutputFormats = map[string]bool{"txt": true, "epub": true}

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// DefaultTimeoutMs
	if c.DefaultTimeoutMs <= 0 {
		warnings = append(warnings, fmt.Sprintf("default_timeout_ms should be > 0, defaulting to %d", DefaultTimeoutMs))
		c.DefaultTimeoutMs = DefaultTimeoutMs
	}

	// Concurrency
	if c.Concurrency <= 0 {
		warnings = append(warnings, fmt.Sprintf("concurrency should be > 0, defaulting to %d", DefaultConcurrency))
		c.Concurrency = DefaultConcurrency
	}

	// RequestDelayMs (0 disables the delay)
	if c.RequestDelayMs < 0 {
		return warnings, fmt.Errorf("%w: request_delay_ms cannot be negative (%d)", utils.ErrConfigValidation, c.RequestDelayMs)
	}

	// OutputDir
	if strings.TrimSpace(c.OutputDir) == "" {
		warnings = append(warnings, fmt.Sprintf("output_dir is empty, defaulting to '%s'", DefaultOutputDir))
		c.OutputDir = DefaultOutputDir
	}

	// Headers
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = DefaultUserAgent
	}
	if strings.TrimSpace(c.AcceptLanguage) == "" {
		c.AcceptLanguage = DefaultAcceptLanguage
	}
	if strings.ContainsAny(c.Cookie, "\r\n") {
		return warnings, fmt.Errorf("%w: cookie must be a single header line", utils.ErrConfigValidation)
	}

	// BaseURL
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	u, parseErr := url.Parse(c.BaseURL)
	if parseErr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return warnings, fmt.Errorf("%w: base_url must be an absolute http(s) URL, got '%s'", utils.ErrConfigValidation, c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	// Lang
	if c.Lang == "" {
		c.Lang = DefaultLang
	}

	// OutputFormat
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutputFormat
	}
	if !knownOutputFormats[c.OutputFormat] {
		return warnings, fmt.Errorf("%w: unknown output_format '%s' (want txt or epub)", utils.ErrConfigValidation, c.OutputFormat)
	}

	// HTTPClientSettings defaults
	c.validateHTTPClientSettings()

	return warnings, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		// Chapter fetches all go to one host; keep enough idle conns for the default concurrency
		h.MaxIdleConnsPerHost = DefaultConcurrency
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}
