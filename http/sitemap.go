package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/pagestem"
)

// Ensure SitemapService implements pagestem.SitemapService.
var _ pagestem.SitemapService = (*SitemapService)(nil)

// SitemapService lists site pages from sitemaps fetched over HTTP. Sitemap
// indexes are followed, and sitemaps whose URL ends in .gz are
// decompressed.
type SitemapService struct {
	client *http.Client
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// Pages implements pagestem.SitemapService. The records come out in
// sitemap order; a page listed twice is kept once.
func (s *SitemapService) Pages(ctx context.Context, siteURL string, filter *pagestem.URLFilter) ([]pagestem.Record, error) {
	site, err := url.Parse(siteURL)
	if err != nil || site.Host == "" {
		return nil, pagestem.Errorf(pagestem.EINVALID, "invalid site URL %q", siteURL)
	}

	c := &collector{
		siteURL: siteURL,
		site:    site,
		filter:  filter,
		pages:   []pagestem.Record{},
		listed:  make(map[string]bool),
		read:    make(map[string]bool),
	}

	at := func(path string) string {
		return (&url.URL{Scheme: site.Scheme, Host: site.Host, Path: path}).String()
	}
	queue, err := s.robotsSitemaps(ctx, at("/robots.txt"))
	if err != nil {
		return nil, err
	}
	optional := len(queue) == 0
	if optional {
		queue = []string{at("/sitemap.xml")}
	}

	for len(queue) > 0 {
		loc := queue[0]
		queue = queue[1:]
		if c.read[loc] {
			continue
		}
		c.read[loc] = true

		nested, err := s.readSitemap(ctx, loc, c)
		switch {
		case err == nil:
		case optional && pagestem.ErrorCode(err) == pagestem.ENOTFOUND:
			// A site without robots.txt directives or /sitemap.xml has no pages to list.
		default:
			return nil, err
		}
		optional = false
		queue = append(queue, nested...)
	}
	return c.pages, nil
}

// collector accumulates the page records of one Pages call.
type collector struct {
	siteURL string
	site    *url.URL
	filter  *pagestem.URLFilter
	pages   []pagestem.Record
	listed  map[string]bool
	read    map[string]bool
}

// add records the page at loc unless it lies outside the site, is
// rejected by the filter or was listed before.
func (c *collector) add(loc, lastmod string) {
	u, err := url.Parse(loc)
	if err != nil || !c.contains(u) {
		return
	}
	u.Fragment = ""
	page := u.String()
	if c.listed[page] || !c.filter.Match(page) {
		return
	}
	c.listed[page] = true

	site, path := SplitURL(c.siteURL, page)
	rec := pagestem.Record{
		pagestem.FieldSiteURL: site,
		pagestem.FieldPath:    path,
	}
	if lastmod != "" {
		rec[pagestem.FieldLastModified] = lastmod
	}
	c.pages = append(c.pages, rec)
}

// contains reports whether u lies on the site host at or below the site
// path. Path prefixes match whole segments only.
func (c *collector) contains(u *url.URL) bool {
	if !strings.EqualFold(u.Host, c.site.Host) {
		return false
	}
	prefix := strings.TrimSuffix(c.site.Path, "/")
	if prefix == "" {
		return true
	}
	return u.Path == prefix || strings.HasPrefix(u.Path, prefix+"/")
}

// robotsSitemaps returns the Sitemap directives of a robots.txt file. A
// missing or unreadable file has none.
func (s *SitemapService) robotsSitemaps(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, nil
	}
	defer body.Close()

	var locs []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if loc := strings.TrimSpace(value); loc != "" {
			locs = append(locs, loc)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return locs, nil
}

// readSitemap reads one sitemap. Pages of a <urlset> go to c; the
// sitemaps named by a <sitemapindex> are returned for reading.
func (s *SitemapService) readSitemap(ctx context.Context, loc string, c *collector) ([]string, error) {
	body, err := s.get(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var r io.Reader = body
	if strings.HasSuffix(strings.ToLower(loc), ".gz") {
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, pagestem.Errorf(pagestem.EINVALID, "sitemap %s: %v", loc, err)
		}
		defer zr.Close()
		r = zr
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, pagestem.Errorf(pagestem.EINVALID, "parsing sitemap %s: %v", loc, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, pagestem.Errorf(pagestem.EINVALID, "empty sitemap %s", loc)
	}

	switch root.Tag {
	case "sitemapindex":
		var nested []string
		for _, el := range root.SelectElements("sitemap") {
			if next := childText(el, "loc"); next != "" {
				nested = append(nested, next)
			}
		}
		return nested, nil
	case "urlset":
		for _, el := range root.SelectElements("url") {
			if page := childText(el, "loc"); page != "" {
				c.add(page, childText(el, "lastmod"))
			}
		}
		return nil, nil
	default:
		return nil, pagestem.Errorf(pagestem.EINVALID, "sitemap %s: unexpected <%s> root", loc, root.Tag)
	}
}

func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

// get fetches a URL and returns the response body. A 404 or 410 response
// is reported as ENOTFOUND.
func (s *SitemapService) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, pagestem.Errorf(pagestem.EINVALID, "invalid request for %s: %v", target, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound, http.StatusGone:
		resp.Body.Close()
		return nil, pagestem.Errorf(pagestem.ENOTFOUND, "HTTP %d for %s", resp.StatusCode, target)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, target)
	}
}
