package mock

import "github.com/fwojciec/pagestem"

var _ pagestem.TemplateMatcher = (*TemplateMatcher)(nil)

// TemplateMatcher is a mock implementation of pagestem.TemplateMatcher.
type TemplateMatcher struct {
	MatchFn func(group *pagestem.RuleGroup, html string) (*pagestem.Extraction, error)
}

func (m *TemplateMatcher) Match(group *pagestem.RuleGroup, html string) (*pagestem.Extraction, error) {
	return m.MatchFn(group, html)
}

var _ pagestem.LayoutDiscoverer = (*LayoutDiscoverer)(nil)

// LayoutDiscoverer is a mock implementation of pagestem.LayoutDiscoverer.
type LayoutDiscoverer struct {
	DiscoverFn func(pages []pagestem.LayoutPage, opts pagestem.ClusterOptions) (*pagestem.PatternSet, error)
}

func (d *LayoutDiscoverer) Discover(pages []pagestem.LayoutPage, opts pagestem.ClusterOptions) (*pagestem.PatternSet, error) {
	return d.DiscoverFn(pages, opts)
}

var _ pagestem.Evaluator = (*Evaluator)(nil)

// Evaluator is a mock implementation of pagestem.Evaluator.
type Evaluator struct {
	EvaluateFn func(expr string, rec pagestem.Record) (string, error)
}

func (e *Evaluator) Evaluate(expr string, rec pagestem.Record) (string, error) {
	return e.EvaluateFn(expr, rec)
}
