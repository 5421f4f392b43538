package main

import (
	"context"
	"errors"

	"github.com/fwojciec/pagestem"
)

// Ensure multiStore implements pagestem.RecordStore.
var _ pagestem.RecordStore = (multiStore)(nil)

// multiStore saves every record to each of its stores.
type multiStore []pagestem.RecordStore

func (m multiStore) Save(ctx context.Context, rec pagestem.Record) error {
	for _, s := range m {
		if err := s.Save(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m multiStore) Commit() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Commit())
	}
	return errors.Join(errs...)
}

func (m multiStore) Abort() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Abort())
	}
	return errors.Join(errs...)
}
