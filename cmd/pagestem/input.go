package main

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"regexp"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/bloom"
	pagestemfs "github.com/fwojciec/pagestem/fs"
	pagestemhttp "github.com/fwojciec/pagestem/http"
	"github.com/fwojciec/pagestem/jsonl"
	pagestemslog "github.com/fwojciec/pagestem/slog"
)

// input is an open record source. Err reports a read failure once the
// sequence has been consumed.
type input struct {
	Records iter.Seq[pagestem.Record]
	Err     func() error
	Close   func() error
}

func noErr() error { return nil }

// open opens the single record source selected by the flags.
func (f *InputFlags) open(deps *Dependencies) (*input, error) {
	var selected int
	for _, set := range []bool{f.Input != "", f.Dir != "", len(f.URL) > 0, f.Sitemap != ""} {
		if set {
			selected++
		}
	}
	if selected != 1 {
		return nil, pagestem.Errorf(pagestem.EINVALID, "exactly one of --input, --dir, --url or --sitemap required")
	}

	switch {
	case f.Input != "":
		return f.openJSONL(deps)
	case f.Dir != "":
		info, err := os.Stat(f.Dir)
		if err != nil || !info.IsDir() {
			return nil, pagestem.Errorf(pagestem.EINVALID, "not a directory: %s", f.Dir)
		}
		src := pagestemfs.NewDirSource(f.Dir, f.SiteURL)
		return &input{Records: src.Records(), Err: src.Err, Close: noErr}, nil
	case len(f.URL) > 0:
		urls := f.URL
		if unique := bloom.Dedupe(urls); len(unique) < len(urls) {
			fmt.Fprintf(deps.Stderr, "Skipping %d repeated URLs\n", len(urls)-len(unique))
			urls = unique
		}
		return f.fetch(deps, pagestemhttp.PageRecords(f.SiteURL, urls)), nil
	default:
		pages, err := f.discover(deps)
		if err != nil {
			return nil, err
		}
		return f.fetch(deps, pages), nil
	}
}

func (f *InputFlags) openJSONL(deps *Dependencies) (*input, error) {
	var r io.Reader = deps.Stdin
	closeFn := noErr
	if f.Input != "-" {
		file, err := os.Open(f.Input)
		if err != nil {
			return nil, pagestem.Errorf(pagestem.EINVALID, "cannot open input: %v", err)
		}
		r = file
		closeFn = file.Close
	}
	reader := jsonl.NewReader(r)
	return &input{Records: reader.Records(), Err: reader.Err, Close: closeFn}, nil
}

// discover lists the pages of the site named by --sitemap. With --site-url
// the pages are rebased onto that site URL.
func (f *InputFlags) discover(deps *Dependencies) ([]pagestem.Record, error) {
	filter, err := compileFilter(f.Filter)
	if err != nil {
		return nil, err
	}

	sitemaps := deps.Sitemaps
	if deps.Verbose {
		sitemaps = pagestemslog.NewLoggingSitemapService(sitemaps, deps.Logger)
	}
	pages, err := sitemaps.Pages(deps.Ctx, f.Sitemap, filter)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, pagestem.Errorf(pagestem.ENOTFOUND, "no pages found in sitemap of %s", f.Sitemap)
	}
	if f.SiteURL != "" {
		for _, p := range pages {
			p[pagestem.FieldSiteURL], p[pagestem.FieldPath] = pagestemhttp.SplitURL(f.SiteURL, p.URL())
		}
	}
	fmt.Fprintf(deps.Stderr, "Found %d pages in sitemap\n", len(pages))
	return pages, nil
}

func (f *InputFlags) fetch(deps *Dependencies, pages []pagestem.Record) *input {
	fetcher := deps.Fetcher
	if deps.Verbose {
		fetcher = pagestemslog.NewLoggingFetcher(fetcher, deps.Logger)
	}
	src := &pagestemhttp.Source{
		Fetcher:     fetcher,
		Concurrency: f.Concurrency,
		RateLimit:   f.RateLimit,
	}
	return &input{Records: src.Records(deps.Ctx, pages), Err: func() error { return contextErr(deps.Ctx) }, Close: noErr}
}

func contextErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	return nil
}

func compileFilter(patterns []string) (*pagestem.URLFilter, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	filter := &pagestem.URLFilter{}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, pagestem.Errorf(pagestem.EINVALID, "invalid filter pattern %q: %v", p, err)
		}
		filter.Include = append(filter.Include, re)
	}
	return filter, nil
}
