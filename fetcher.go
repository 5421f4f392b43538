package pagestem

import (
	"context"
	"regexp"
)

// Fetcher retrieves page markup for the record sources that read from the
// network.
type Fetcher interface {
	// Fetch returns the body of url. The context controls timeout and
	// cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// SitemapService lists the pages a site announces in its sitemaps.
type SitemapService interface {
	// Pages returns one record per page listed by the sitemaps of siteURL,
	// checking robots.txt for sitemap directives before falling back to
	// /sitemap.xml. Records carry the site URL and path of the page, and
	// FieldLastModified when the sitemap dates it. Pages outside siteURL
	// and pages rejected by filter are left out; a nil filter accepts
	// every page.
	Pages(ctx context.Context, siteURL string, filter *URLFilter) ([]Record, error)
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}
	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}
	return true
}
