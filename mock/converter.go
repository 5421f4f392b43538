package mock

import "github.com/fwojciec/pagestem"

var _ pagestem.Converter = (*Converter)(nil)

// Converter is a mock implementation of pagestem.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
