package mock

import "github.com/fwojciec/pagestem"

var _ pagestem.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of pagestem.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*pagestem.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*pagestem.ExtractResult, error) {
	return e.ExtractFn(html)
}
