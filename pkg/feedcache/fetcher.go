package feedcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// HTTPFetcher GETs the key as an URL with cache busting headers. Transient
// failures are retried a few times inside a single fetch attempt.
type HTTPFetcher struct {
	Client    *http.Client
	Retries   uint64
	UserAgent string
}

func NewHTTPFetcher(timeout time.Duration, retries uint64) *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout: timeout,
		},
		Retries:   retries,
		UserAgent: "livetracker/1.0",
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.InitialInterval = 200 * time.Millisecond
	retryBackoff.MaxElapsedTime = 5 * time.Second

	return backoff.RetryNotifyWithData(
		func() ([]byte, error) {
			return f.get(ctx, url)
		},
		backoff.WithContext(backoff.WithMaxRetries(retryBackoff, f.Retries), ctx),
		func(err error, wait time.Duration) {
			log.Debug().Err(err).Str("url", url).Dur("wait", wait).Msg("Retrying feed fetch")
		},
	)
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)

		// Client errors will not get better by asking again
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	return io.ReadAll(resp.Body)
}
