package mock

import (
	"context"

	"github.com/fwojciec/pagestem"
)

var _ pagestem.RecordStore = (*RecordStore)(nil)

// RecordStore is a mock implementation of pagestem.RecordStore.
type RecordStore struct {
	SaveFn   func(ctx context.Context, rec pagestem.Record) error
	CommitFn func() error
	AbortFn  func() error
}

func (s *RecordStore) Save(ctx context.Context, rec pagestem.Record) error {
	return s.SaveFn(ctx, rec)
}

func (s *RecordStore) Commit() error {
	return s.CommitFn()
}

func (s *RecordStore) Abort() error {
	return s.AbortFn()
}
