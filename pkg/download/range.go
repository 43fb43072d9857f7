package download

import (
	"fmt"

	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

// ClampRange normalises an inclusive [start, end] chapter range against a list of n chapters.
// start is floored at 0; a start at or past the end of the list is an error wrapping utils.ErrRange.
// A negative or out-of-bounds end means "through the last chapter", and an end before start selects start alone.
func ClampRange(n, start, end int) (int, int, error) {
	start = max(0, start)
	if start >= n {
		return 0, 0, fmt.Errorf("%w: start %d >= chapter count %d", utils.ErrRange, start, n)
	}
	switch {
	case end < 0 || end >= n:
		end = n - 1
	case end < start:
		end = start
	}
	return start, end, nil
}
