package http

import (
	"context"
	"time"

	"github.com/fwojciec/pagestem"
)

// DefaultRetryDelays returns the waits between fetch attempts: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
}

// fetchPage fetches page, trying again after each of delays while the
// failure may be temporary. Missing pages (ENOTFOUND) and unusable
// requests (EINVALID) fail at once.
func fetchPage(ctx context.Context, fetcher pagestem.Fetcher, page string, delays []time.Duration) (string, error) {
	for attempt := 0; ; attempt++ {
		html, err := fetcher.Fetch(ctx, page)
		if err == nil || attempt == len(delays) || !temporary(ctx, err) {
			return html, err
		}

		timer := time.NewTimer(delays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

func temporary(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch pagestem.ErrorCode(err) {
	case pagestem.ENOTFOUND, pagestem.EINVALID:
		return false
	}
	return true
}
