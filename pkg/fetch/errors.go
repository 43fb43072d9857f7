package fetch

import (
	"fmt"

	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

// FetchError is returned once every attempt for a URL has failed.
// It matches utils.ErrRetryFailed and the last underlying cause with errors.Is.
type FetchError struct {
	URL        string
	StatusCode int // Last HTTP status, 0 when the last attempt got no response
	Attempts   int
	Err        error // Last underlying error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{utils.ErrRetryFailed, e.Err}
}
