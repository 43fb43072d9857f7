package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/novel-scraper/pkg/config"
	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

// testLogger returns a logger that discards output
func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// testClient returns a client built the same way as production, with a short timeout
func testClient(t *testing.T, mutate func(c *config.AppConfig)) *http.Client {
	t.Helper()
	cfg := config.Default()
	cfg.DefaultTimeoutMs = 5000
	if mutate != nil {
		mutate(cfg)
	}
	_, err := cfg.Validate()
	require.NoError(t, err)
	return NewClient(cfg, testLogger())
}

// sleepRecorder is an injectable clock that records requested delays without waiting
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// mockServer creates an httptest.Server that returns status codes in sequence.
// Returns the server and an atomic counter tracking request attempts.
func mockServer(t *testing.T, statusCodes []int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	attemptCount := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := int(attemptCount.Add(1)) - 1
		if idx >= len(statusCodes) {
			idx = len(statusCodes) - 1 // repeat last status
		}
		w.WriteHeader(statusCodes[idx])
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server, attemptCount
}

func TestGetString_Success(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusOK}, `{"body":{}}`)
	clock := &sleepRecorder{}

	fetcher := NewFetcher(testClient(t, nil), testLogger(), WithSleep(clock.Sleep))
	got, err := fetcher.GetString(context.Background(), server.URL, "", "")

	require.NoError(t, err)
	assert.Equal(t, `{"body":{}}`, got)
	assert.Equal(t, int32(1), attempts.Load())
	assert.Empty(t, clock.Delays())
}

func TestGetBytes_FailTwiceThenSucceed(t *testing.T) {
	server, attempts := mockServer(t, []int{500, 503, 200}, "ok")
	clock := &sleepRecorder{}

	fetcher := NewFetcher(testClient(t, nil), testLogger(), WithSleep(clock.Sleep))
	body, err := fetcher.GetBytes(context.Background(), server.URL, "")

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond}, clock.Delays())
}

func TestGetBytes_AllRetriesFail(t *testing.T) {
	server, attempts := mockServer(t, []int{500}, "")
	clock := &sleepRecorder{}

	fetcher := NewFetcher(testClient(t, nil), testLogger(), WithSleep(clock.Sleep))
	_, err := fetcher.GetBytes(context.Background(), server.URL, "")

	require.Error(t, err)
	assert.Equal(t, int32(4), attempts.Load())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond, 2000 * time.Millisecond}, clock.Delays())

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 500, fetchErr.StatusCode)
	assert.Equal(t, 4, fetchErr.Attempts)
	assert.Equal(t, server.URL, fetchErr.URL)
	assert.ErrorIs(t, err, utils.ErrRetryFailed)
	assert.ErrorIs(t, err, utils.ErrServerHTTPError)
	assert.Equal(t, "RetryFailed_HTTPServer", utils.CategorizeError(err))
}

func TestGetBytes_ClientErrorsAreRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"404 Not Found", http.StatusNotFound, utils.ErrClientHTTPError},
		{"403 Forbidden", http.StatusForbidden, utils.ErrClientHTTPError},
		{"429 Too Many Requests", http.StatusTooManyRequests, utils.ErrClientHTTPError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, attempts := mockServer(t, []int{tt.status}, "")
			clock := &sleepRecorder{}

			fetcher := NewFetcher(testClient(t, nil), testLogger(), WithSleep(clock.Sleep))
			_, err := fetcher.GetBytes(context.Background(), server.URL, "")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int32(4), attempts.Load(), "every non-2xx status is retried")
			assert.Len(t, clock.Delays(), 3)
		})
	}
}

func TestGetBytes_RedirectIsFollowed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "moved")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := NewFetcher(testClient(t, nil), testLogger(), WithRetryDelays())
	body, err := fetcher.GetBytes(context.Background(), server.URL+"/old", "")

	require.NoError(t, err)
	assert.Equal(t, "moved", string(body))
}

func TestGetBytes_NetworkErrorIsRetried(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	deadURL := server.URL
	server.Close() // Nothing listens any more
	clock := &sleepRecorder{}

	fetcher := NewFetcher(testClient(t, nil), testLogger(), WithSleep(clock.Sleep))
	_, err := fetcher.GetBytes(context.Background(), deadURL, "")

	require.Error(t, err)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 0, fetchErr.StatusCode)
	assert.Equal(t, 4, fetchErr.Attempts)
	assert.Len(t, clock.Delays(), 3)
	assert.ErrorIs(t, err, utils.ErrRetryFailed)
}

func TestGetBytes_ContextCancelledDuringRetry(t *testing.T) {
	server, attempts := mockServer(t, []int{500}, "")
	ctx, cancel := context.WithCancel(context.Background())

	cancellingSleep := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	fetcher := NewFetcher(testClient(t, nil), testLogger(), WithSleep(cancellingSleep))
	_, err := fetcher.GetBytes(ctx, server.URL, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, utils.ErrRetryFailed)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestGetBytes_InvalidURLNotRetried(t *testing.T) {
	clock := &sleepRecorder{}
	fetcher := NewFetcher(testClient(t, nil), testLogger(), WithSleep(clock.Sleep))

	_, err := fetcher.GetBytes(context.Background(), "http://[::1", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrRequestCreation)
	assert.Empty(t, clock.Delays())
}

func TestGetBytes_CustomRetryTable(t *testing.T) {
	server, attempts := mockServer(t, []int{502}, "")
	clock := &sleepRecorder{}

	fetcher := NewFetcher(testClient(t, nil), testLogger(),
		WithRetryDelays(time.Millisecond), WithSleep(clock.Sleep))
	_, err := fetcher.GetBytes(context.Background(), server.URL, "")

	require.Error(t, err)
	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, []time.Duration{time.Millisecond}, clock.Delays())
}

func TestNewFetcher_OwnsDefaultRetryTable(t *testing.T) {
	want := []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond, 2000 * time.Millisecond}

	first := NewFetcher(testClient(t, nil), testLogger())
	first.retryDelays[0] = 0
	second := NewFetcher(testClient(t, nil), testLogger())

	assert.Equal(t, want, DefaultRetryDelays)
	assert.Equal(t, want, second.retryDelays)
}

func TestGetString_SendsFixedHeadersAndReferer(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	client := testClient(t, func(c *config.AppConfig) {
		c.Cookie = "PHPSESSID=secret"
		c.UserAgent = "test-agent/1.0"
	})
	fetcher := NewFetcher(client, testLogger())

	_, err := fetcher.GetString(context.Background(), server.URL, "https://www.pixiv.net/novel/series/1", "utf-8")
	require.NoError(t, err)

	assert.Equal(t, "test-agent/1.0", got.Get("User-Agent"))
	assert.Equal(t, "text/html", got.Get("Accept"))
	assert.Equal(t, "zh-TW,zh;q=0.9,en;q=0.8", got.Get("Accept-Language"))
	assert.Equal(t, "PHPSESSID=secret", got.Get("Cookie"))
	assert.Equal(t, "https://www.pixiv.net/novel/series/1", got.Get("Referer"))
	assert.Equal(t, "gzip, deflate, br", got.Get("Accept-Encoding"))
}

func TestGetString_NoCookieNoReferer(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	fetcher := NewFetcher(testClient(t, nil), testLogger())
	_, err := fetcher.GetString(context.Background(), server.URL, "", "")
	require.NoError(t, err)

	assert.Empty(t, got.Get("Cookie"))
	assert.Empty(t, got.Get("Referer"))
	assert.Equal(t, config.DefaultUserAgent, got.Get("User-Agent"))
}

func TestFetcher_Close(t *testing.T) {
	fetcher := NewFetcher(testClient(t, nil), testLogger())
	assert.NotPanics(t, fetcher.Close)
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), time.Second)
	assert.NoError(t, Sleep(context.Background(), 0))
}
