package http

import (
	"context"
	"iter"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/pagestem"
	"golang.org/x/sync/errgroup"
)

// FieldError holds the fetch error of a record whose page could not be read.
const FieldError = "_error"

// DefaultConcurrency is the number of pages fetched at once.
const DefaultConcurrency = 10

// Source fills page records with their markup fetched over the network.
// Pages are fetched concurrently but records are yielded in input order.
// A page that cannot be fetched yields its record without content,
// carrying the error in FieldError.
type Source struct {
	Fetcher     pagestem.Fetcher
	Concurrency int

	// RateLimit is the number of requests per second sent to each host.
	// Zero disables limiting.
	RateLimit float64

	// RetryDelays overrides DefaultRetryDelays.
	RetryDelays []time.Duration
}

// fetchResult holds the outcome of fetching a single page.
type fetchResult struct {
	position int
	html     string
	err      error
}

// Records fetches the page of every record in pages. The yielded records
// are copies; pages is left untouched. Fetching stops when ctx is canceled
// or the consumer stops iterating.
func (s *Source) Records(ctx context.Context, pages []pagestem.Record) iter.Seq[pagestem.Record] {
	return func(yield func(pagestem.Record) bool) {
		if len(pages) == 0 {
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		concurrency := s.Concurrency
		if concurrency <= 0 {
			concurrency = DefaultConcurrency
		}
		delays := s.RetryDelays
		if delays == nil {
			delays = DefaultRetryDelays()
		}
		hosts := newHostLimiter(s.RateLimit)

		resultCh := make(chan fetchResult, len(pages))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		go func() {
			for i, page := range pages {
				if gctx.Err() != nil {
					break
				}
				g.Go(func() error {
					result := fetchResult{position: i}
					if result.err = hosts.wait(gctx, page.URL()); result.err == nil {
						result.html, result.err = fetchPage(gctx, s.Fetcher, page.URL(), delays)
					}
					resultCh <- result
					return nil
				})
			}
			_ = g.Wait()
			close(resultCh)
		}()

		// Results arrive in completion order; hold them until their turn.
		pending := make(map[int]fetchResult)
		next := 0
		for result := range resultCh {
			pending[result.position] = result
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if !yield(fill(pages[next], r)) {
					return
				}
				next++
			}
		}
	}
}

func fill(page pagestem.Record, r fetchResult) pagestem.Record {
	rec := page.Clone()
	if r.err != nil {
		rec[FieldError] = r.err.Error()
		return rec
	}
	rec[pagestem.FieldContent] = r.html
	return rec
}

// PageRecords turns urls into page records, keeping siteURL as the site
// URL of the pages below it.
func PageRecords(siteURL string, urls []string) []pagestem.Record {
	pages := make([]pagestem.Record, len(urls))
	for i, u := range urls {
		site, path := SplitURL(siteURL, u)
		pages[i] = pagestem.Record{
			pagestem.FieldSiteURL: site,
			pagestem.FieldPath:    path,
		}
	}
	return pages
}

// SplitURL splits rawURL into a site URL and a site-relative path. When
// rawURL lies below siteURL the site URL is kept; otherwise the scheme and
// host of rawURL are used.
func SplitURL(siteURL, rawURL string) (site, path string) {
	if siteURL != "" {
		base := strings.TrimRight(siteURL, "/")
		if rest, ok := strings.CutPrefix(rawURL, base); ok && (rest == "" || rest[0] == '/' || rest[0] == '?') {
			if !strings.HasPrefix(rest, "/") {
				rest = "/" + rest
			}
			return siteURL, rest
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", rawURL
	}
	path = u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return u.Scheme + "://" + u.Host, path
}
