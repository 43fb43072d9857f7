package models

// FetchStatus discriminates the variants of FetchResult
type FetchStatus int

const (
	FetchSuccess FetchStatus = iota // Content and Title are set
	FetchEmpty                      // Upstream answered but had no content; Err describes it
	FetchFailed                     // Transport, extraction or decoding failure; Err is set
)

func (s FetchStatus) String() string {
	switch s {
	case FetchSuccess:
		return "success"
	case FetchEmpty:
		return "empty"
	case FetchFailed:
		return "failed"
	}
	return "unknown"
}

// FetchResult is the outcome of fetching one chapter's content.
// Exactly one variant applies; use the constructors rather than building it by hand.
type FetchResult struct {
	Status  FetchStatus
	Content string
	Title   string
	Err     error
}

// Succeeded returns a success result.
func Succeeded(content, title string) FetchResult {
	return FetchResult{Status: FetchSuccess, Content: content, Title: title}
}

// Empty returns the empty-content result. title is whatever the upstream reported, possibly blank.
func Empty(title string, err error) FetchResult {
	return FetchResult{Status: FetchEmpty, Title: title, Err: err}
}

// Failed returns a failure result.
func Failed(err error) FetchResult {
	return FetchResult{Status: FetchFailed, Err: err}
}

// OK reports whether the result carries content.
func (r FetchResult) OK() bool { return r.Status == FetchSuccess }
