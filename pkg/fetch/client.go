package fetch

import (
	"errors"
	"net"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/novel-scraper/pkg/config"
)

// NewClient creates the shared HTTP client based on the provided configuration.
// The transport chain is: fixed headers -> decompression -> pooled http.Transport.
func NewClient(cfg *config.AppConfig, log logrus.FieldLogger) *http.Client {
	log.Debug("Initializing HTTP client...")
	hc := cfg.HTTPClientSettings

	// Create custom dialer with configured timeouts
	dialer := &net.Dialer{
		Timeout:   hc.DialerTimeout,
		KeepAlive: hc.DialerKeepAlive,
	}

	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment, // Use system proxy settings
		DialContext:            dialer.DialContext,
		ForceAttemptHTTP2:      true,
		MaxIdleConns:           hc.MaxIdleConns,
		MaxIdleConnsPerHost:    hc.MaxIdleConnsPerHost,
		IdleConnTimeout:        hc.IdleConnTimeout,
		TLSHandshakeTimeout:    hc.TLSHandshakeTimeout,
		ExpectContinueTimeout:  hc.ExpectContinueTimeout,
		MaxResponseHeaderBytes: 1 << 20,
		DisableCompression:     true, // decompressTransport owns Accept-Encoding
	}
	if hc.ForceAttemptHTTP2 != nil {
		transport.ForceAttemptHTTP2 = *hc.ForceAttemptHTTP2
	}

	client := &http.Client{
		Timeout: cfg.Timeout(),
		Transport: &headerTransport{
			base:           &decompressTransport{base: transport},
			userAgent:      cfg.UserAgent,
			acceptLanguage: cfg.AcceptLanguage,
			cookie:         cfg.Cookie,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			log.Debugf("Redirecting: %s -> %s (hop %d)", via[len(via)-1].URL, req.URL, len(via))
			return nil
		},
	}
	log.WithFields(logrus.Fields{
		"timeout":    client.Timeout,
		"has_cookie": cfg.Cookie != "",
	}).Debug("HTTP client initialized.")
	return client
}

// headerTransport stamps the fixed per-instance headers on every request.
// Headers already set by the caller (Referer, a per-request Accept) win.
type headerTransport struct {
	base           http.RoundTripper
	userAgent      string
	acceptLanguage string
	cookie         string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	setDefault(r.Header, "User-Agent", t.userAgent)
	setDefault(r.Header, "Accept", "text/html")
	setDefault(r.Header, "Accept-Language", t.acceptLanguage)
	setDefault(r.Header, "Cookie", t.cookie)
	return t.base.RoundTrip(r)
}

// CloseIdleConnections forwards to the wrapped transport so http.Client.CloseIdleConnections works.
func (t *headerTransport) CloseIdleConnections() {
	closeIdle(t.base)
}

func setDefault(h http.Header, key, value string) {
	if value != "" && h.Get(key) == "" {
		h.Set(key, value)
	}
}

func closeIdle(rt http.RoundTripper) {
	type closeIdler interface{ CloseIdleConnections() }
	if ci, ok := rt.(closeIdler); ok {
		ci.CloseIdleConnections()
	}
}
