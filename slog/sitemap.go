package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/pagestem"
)

// Ensure LoggingSitemapService implements pagestem.SitemapService.
var _ pagestem.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService and logs each listing at
// info level: the number of pages found, how many of them are dated, and
// the number of filter patterns in force.
type LoggingSitemapService struct {
	next   pagestem.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next pagestem.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// Pages implements pagestem.SitemapService.
func (s *LoggingSitemapService) Pages(ctx context.Context, siteURL string, filter *pagestem.URLFilter) (pages []pagestem.Record, err error) {
	defer func(begin time.Time) {
		var dated int
		for _, p := range pages {
			if p.Has(pagestem.FieldLastModified) {
				dated++
			}
		}
		var patterns int
		if filter != nil {
			patterns = len(filter.Include) + len(filter.Exclude)
		}
		s.logger.Info("sitemap pages",
			"site", siteURL,
			"patterns", patterns,
			"pages", len(pages),
			"dated", dated,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Pages(ctx, siteURL, filter)
}
