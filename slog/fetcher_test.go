package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/mock"
	pagestemslog "github.com/fwojciec/pagestem/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingFetcher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		html    string
		err     error
		level   slog.Level
		want    []string
		notWant []string
	}{
		{
			name:    "page fetched",
			html:    "<p>page</p>",
			level:   slog.LevelDebug,
			want:    []string{"level=DEBUG", "msg=fetch", "url=https://example.com/docs", "bytes=11"},
			notWant: []string{"level=WARN"},
		},
		{
			name:  "page missing",
			err:   pagestem.Errorf(pagestem.ENOTFOUND, "HTTP 404"),
			level: slog.LevelDebug,
			want:  []string{"level=WARN", "bytes=0", "code=not_found message=HTTP 404"},
		},
		{
			name:    "successful fetches hidden above debug",
			html:    "<p>page</p>",
			level:   slog.LevelInfo,
			notWant: []string{"msg=fetch"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: tt.level}))
			inner := &mock.Fetcher{
				FetchFn: func(ctx context.Context, url string) (string, error) {
					return tt.html, tt.err
				},
			}

			html, err := pagestemslog.NewLoggingFetcher(inner, logger).Fetch(context.Background(), "https://example.com/docs")

			assert.Equal(t, tt.html, html)
			assert.Equal(t, tt.err, err)
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}

	t.Run("close reaches the wrapped fetcher", func(t *testing.T) {
		t.Parallel()

		closeErr := errors.New("closed twice")
		inner := &mock.Fetcher{CloseFn: func() error { return closeErr }}

		err := pagestemslog.NewLoggingFetcher(inner, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Close()

		require.ErrorIs(t, err, closeErr)
	})
}
