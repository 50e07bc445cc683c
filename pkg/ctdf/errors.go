package ctdf

import "errors"

var (
	// ErrFetchFailed means the upstream call failed and there was no cached
	// payload to fall back on.
	ErrFetchFailed = errors.New("feed temporarily unavailable")

	ErrUnknownRoute = errors.New("unknown route")
	ErrUnknownStop  = errors.New("unknown stop")

	// ErrMalformedRecord marks a single bad row in a text feed. The row is
	// skipped, the rest of the feed is still processed.
	ErrMalformedRecord = errors.New("malformed record")
)
