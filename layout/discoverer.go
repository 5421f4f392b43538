package layout

import "github.com/fwojciec/pagestem"

// Ensure Discoverer implements pagestem.LayoutDiscoverer.
var _ pagestem.LayoutDiscoverer = (*Discoverer)(nil)

// Discoverer learns layout patterns from a corpus.
type Discoverer struct{}

// NewDiscoverer creates a new Discoverer.
func NewDiscoverer() *Discoverer {
	return &Discoverer{}
}

// Discover implements pagestem.LayoutDiscoverer.
func (d *Discoverer) Discover(pages []pagestem.LayoutPage, opts pagestem.ClusterOptions) (*pagestem.PatternSet, error) {
	if opts.ClusterThreshold <= 0 || opts.ClusterThreshold > 1 {
		return nil, pagestem.Errorf(pagestem.EINVALID, "cluster threshold must be in (0, 1], got %v", opts.ClusterThreshold)
	}
	return Discover(pages, opts), nil
}
