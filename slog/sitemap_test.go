package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/mock"
	pagestemslog "github.com/fwojciec/pagestem/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSitemapService_Pages(t *testing.T) {
	t.Parallel()

	t.Run("logs the pages found", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SitemapService{
			PagesFn: func(ctx context.Context, siteURL string, filter *pagestem.URLFilter) ([]pagestem.Record, error) {
				return []pagestem.Record{
					{pagestem.FieldSiteURL: siteURL, pagestem.FieldPath: "/a", pagestem.FieldLastModified: "2024-05-01"},
					{pagestem.FieldSiteURL: siteURL, pagestem.FieldPath: "/b"},
				}, nil
			},
		}
		filter := &pagestem.URLFilter{
			Include: []*regexp.Regexp{regexp.MustCompile(`/docs/`)},
			Exclude: []*regexp.Regexp{regexp.MustCompile(`/tag/`)},
		}

		pages, err := pagestemslog.NewLoggingSitemapService(inner, logger).Pages(context.Background(), "https://example.com/docs/", filter)

		require.NoError(t, err)
		assert.Len(t, pages, 2)
		output := buf.String()
		assert.Contains(t, output, `msg="sitemap pages"`)
		assert.Contains(t, output, "site=https://example.com/docs/")
		assert.Contains(t, output, "patterns=2")
		assert.Contains(t, output, "pages=2")
		assert.Contains(t, output, "dated=1")
	})

	t.Run("logs the error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SitemapService{
			PagesFn: func(ctx context.Context, siteURL string, filter *pagestem.URLFilter) ([]pagestem.Record, error) {
				return nil, errors.New("connection failed")
			},
		}

		_, err := pagestemslog.NewLoggingSitemapService(inner, logger).Pages(context.Background(), "https://example.com", nil)

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "pages=0")
		assert.Contains(t, output, `err="connection failed"`)
	})
}
