package slog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fwojciec/pagestem"
)

// Ensure LoggingRecordStore implements pagestem.RecordStore.
var _ pagestem.RecordStore = (*LoggingRecordStore)(nil)

// LoggingRecordStore wraps a RecordStore with logging. Saves are logged at
// debug level; commit and abort report how many records were saved.
type LoggingRecordStore struct {
	next   pagestem.RecordStore
	logger *slog.Logger
	saved  atomic.Int64
}

// NewLoggingRecordStore creates a new LoggingRecordStore.
func NewLoggingRecordStore(next pagestem.RecordStore, logger *slog.Logger) *LoggingRecordStore {
	return &LoggingRecordStore{next: next, logger: logger}
}

// Save delegates to the wrapped store and logs the record.
func (s *LoggingRecordStore) Save(ctx context.Context, rec pagestem.Record) (err error) {
	defer func(begin time.Time) {
		if err == nil {
			s.saved.Add(1)
		}
		s.logger.DebugContext(ctx, "save",
			"url", rec.URL(),
			"fields", len(rec),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, rec)
}

// Commit delegates to the wrapped store.
func (s *LoggingRecordStore) Commit() (err error) {
	defer func(begin time.Time) {
		s.logger.Info("commit",
			"saved", s.saved.Swap(0),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Commit()
}

// Abort delegates to the wrapped store.
func (s *LoggingRecordStore) Abort() (err error) {
	defer func(begin time.Time) {
		s.logger.Warn("abort",
			"discarded", s.saved.Swap(0),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Abort()
}
