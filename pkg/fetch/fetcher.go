package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

// DefaultRetryDelays is the wait before each retry: 3 retries after the initial attempt, 4 attempts total.
var DefaultRetryDelays = []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond, 2000 * time.Millisecond}

// Getter is the fetch capability consumed by the resolver and the extractor
type Getter interface {
	GetString(ctx context.Context, rawURL, referer, encoding string) (string, error)
}

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the latter case
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Fetcher
type Option func(*Fetcher)

// WithRetryDelays replaces the retry table. An empty table disables retries.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(f *Fetcher) {
		f.retryDelays = append([]time.Duration(nil), delays...)
	}
}

// WithSleep replaces the clock used for retry waits
func WithSleep(fn SleepFunc) Option {
	return func(f *Fetcher) {
		if fn != nil {
			f.sleep = fn
		}
	}
}

// Fetcher performs GET requests with the fixed retry table, using an underlying http.Client
type Fetcher struct {
	client      *http.Client
	log         logrus.FieldLogger
	retryDelays []time.Duration
	sleep       SleepFunc
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(client *http.Client, log logrus.FieldLogger, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		log:         log,
		retryDelays: append([]time.Duration(nil), DefaultRetryDelays...),
		sleep:       Sleep,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetString fetches rawURL and decodes the body with the named charset ("" means utf-8).
// referer is sent when non-empty.
func (f *Fetcher) GetString(ctx context.Context, rawURL, referer, encoding string) (string, error) {
	body, err := f.GetBytes(ctx, rawURL, referer)
	if err != nil {
		return "", err
	}
	return DecodeBody(body, encoding)
}

// GetBytes fetches rawURL and returns the raw (decompressed) body.
// Any transport error or status outside [200, 400) is retried per the retry table.
// Context cancellation is returned as-is and never retried.
func (f *Fetcher) GetBytes(ctx context.Context, rawURL, referer string) ([]byte, error) {
	reqLog := f.log.WithField("url", rawURL)
	maxAttempts := len(f.retryDelays) + 1

	var lastErr error
	var lastStatus int

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := f.retryDelays[attempt-1]
			retryLog := reqLog.WithFields(logrus.Fields{"attempt": attempt, "max_retries": maxAttempts - 1, "delay": delay})
			if lastStatus != 0 {
				retryLog = retryLog.WithField("status_code", lastStatus)
			}
			retryLog.WithError(lastErr).Warn("Retrying request...")

			if err := f.sleep(ctx, delay); err != nil {
				reqLog.Debugf("Context cancelled during retry delay: %v", err)
				return nil, err
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, status, err := f.do(ctx, rawURL, referer)
		if err == nil {
			reqLog.WithFields(logrus.Fields{"status_code": status, "attempt": attempt, "bytes": len(body)}).Debug("Successfully fetched")
			return body, nil
		}

		// The caller's context ended; a client-side Timeout is a normal retryable failure
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr, lastStatus = err, status

		if errors.Is(err, utils.ErrRequestCreation) {
			// Malformed URL, no attempt will fix it
			return nil, &FetchError{URL: rawURL, Attempts: attempt + 1, Err: err}
		}
	}

	reqLog.WithError(lastErr).Errorf("All %d fetch attempts failed", maxAttempts)
	return nil, &FetchError{URL: rawURL, StatusCode: lastStatus, Attempts: maxAttempts, Err: lastErr}
}

// do performs one attempt. status is 0 when no response was received.
func (f *Fetcher) do(ctx context.Context, rawURL, referer string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		// Drain a bounded amount so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, resp.StatusCode, statusError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %w", utils.ErrResponseBodyRead, err)
	}
	return body, resp.StatusCode, nil
}

func statusError(code int) error {
	sentinel := utils.ErrOtherHTTPError
	switch {
	case code >= 400 && code < 500:
		sentinel = utils.ErrClientHTTPError
	case code >= 500:
		sentinel = utils.ErrServerHTTPError
	}
	return fmt.Errorf("%w: status %d %s", sentinel, code, http.StatusText(code))
}

// Close releases idle connections held by the shared client
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

// Sleep is the default SleepFunc
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
