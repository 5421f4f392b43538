package mock

import (
	"context"

	"github.com/fwojciec/pagestem"
)

var _ pagestem.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of pagestem.SitemapService.
type SitemapService struct {
	PagesFn func(ctx context.Context, siteURL string, filter *pagestem.URLFilter) ([]pagestem.Record, error)
}

func (s *SitemapService) Pages(ctx context.Context, siteURL string, filter *pagestem.URLFilter) ([]pagestem.Record, error) {
	return s.PagesFn(ctx, siteURL, filter)
}
