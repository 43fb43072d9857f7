package config

import "time"

// Defaults for recognised options
const (
	DefaultTimeoutMs      = 15000
	DefaultConcurrency    = 10
	DefaultOutputDir      = "data"
	DefaultRequestDelayMs = 500
	DefaultBaseURL        = "https://www.pixiv.net"
	DefaultLang           = "zh_tw"
	DefaultAcceptLanguage = "zh-TW,zh;q=0.9,en;q=0.8"
	DefaultOutputFormat   = "txt"

	// DefaultUserAgent is a mobile Chrome UA
	DefaultUserAgent = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Mobile Safari/537.36"
)

// AppConfig holds the global application configuration
type AppConfig struct {
	DefaultTimeoutMs   int              `yaml:"default_timeout_ms"`  // Per-request timeout in milliseconds
	Concurrency        int              `yaml:"concurrency"`         // Max chapters fetched at once
	OutputDir          string           `yaml:"output_dir"`          // Directory the artifact is written to
	Cookie             string           `yaml:"cookie"`              // Raw Cookie header, needed for R-18 or follower-only works
	RequestDelayMs     int              `yaml:"request_delay_ms"`    // Delay paid inside each concurrency slot before fetching
	UserAgent          string           `yaml:"user_agent,omitempty"`
	AcceptLanguage     string           `yaml:"accept_language,omitempty"`
	BaseURL            string           `yaml:"base_url,omitempty"` // Upstream origin, overridable for mirrors and tests
	Lang               string           `yaml:"lang,omitempty"`     // lang query parameter sent to the JSON API
	OutputFormat       string           `yaml:"output_format,omitempty"`
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// Default returns a config populated with every default.
// Loaders unmarshal on top of it so keys missing from the file keep their defaults.
func Default() *AppConfig {
	cfg := &AppConfig{
		DefaultTimeoutMs: DefaultTimeoutMs,
		Concurrency:      DefaultConcurrency,
		OutputDir:        DefaultOutputDir,
		RequestDelayMs:   DefaultRequestDelayMs,
		UserAgent:        DefaultUserAgent,
		AcceptLanguage:   DefaultAcceptLanguage,
		BaseURL:          DefaultBaseURL,
		Lang:             DefaultLang,
		OutputFormat:     DefaultOutputFormat,
	}
	cfg.validateHTTPClientSettings()
	return cfg
}

// Timeout returns the per-request timeout
func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.DefaultTimeoutMs) * time.Millisecond
}

// RequestDelay returns the delay applied before each chapter fetch
func (c *AppConfig) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMs) * time.Millisecond
}
