package slog_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/mock"
	pagestemslog "github.com/fwojciec/pagestem/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRecordStore(t *testing.T) {
	t.Parallel()

	t.Run("logs saves and reports the count on commit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.RecordStore{
			SaveFn: func(ctx context.Context, rec pagestem.Record) error {
				if rec.Path() == "/bad" {
					return errors.New("disk full")
				}
				return nil
			},
			CommitFn: func() error { return nil },
		}

		store := pagestemslog.NewLoggingRecordStore(inner, debugLogger(&buf))
		require.NoError(t, store.Save(context.Background(), pagestem.Record{"_path": "/a"}))
		require.Error(t, store.Save(context.Background(), pagestem.Record{"_path": "/bad"}))
		require.NoError(t, store.Commit())

		output := buf.String()
		assert.Contains(t, output, "msg=save url=/a")
		assert.Contains(t, output, "err=\"disk full\"")
		assert.Contains(t, output, "msg=commit saved=1")
	})

	t.Run("warns on abort", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.RecordStore{
			SaveFn:  func(ctx context.Context, rec pagestem.Record) error { return nil },
			AbortFn: func() error { return nil },
		}

		store := pagestemslog.NewLoggingRecordStore(inner, debugLogger(&buf))
		require.NoError(t, store.Save(context.Background(), pagestem.Record{"_path": "/a"}))
		require.NoError(t, store.Abort())

		assert.Contains(t, buf.String(), "level=WARN msg=abort discarded=1")
	})
}
