package pipeline

import (
	"iter"
	"net/url"
	"strings"

	"github.com/antchfx/xpath"
	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/htmlquery"
)

// Ensure LinkStage implements Stage.
var _ Stage = (*LinkStage)(nil)

// LinkStage extracts fields from repeated blocks on summary pages and
// merges them into the records the blocks link to.
//
// Every record is read before any is yielded, since a link may point at a
// record that has not been seen yet. Records come out in input order,
// followed by records synthesized for links with no record of their own.
type LinkStage struct {
	Matcher   pagestem.TemplateMatcher
	Evaluator pagestem.Evaluator
	Config    *pagestem.Config
	Progress  ProgressFunc

	repeat *xpath.Expr
	url    *xpath.Expr
	stats  pagestem.Stats
}

// NewLinkStage compiles the repeat and url expressions of cfg.Link.
func NewLinkStage(cfg *pagestem.Config, matcher pagestem.TemplateMatcher, evaluator pagestem.Evaluator) (*LinkStage, error) {
	if cfg.Link == nil {
		return nil, pagestem.Errorf(pagestem.EINVALID, "link configuration required")
	}
	repeat, err := htmlquery.Compile(cfg.Link.Repeat)
	if err != nil {
		return nil, err
	}
	u, err := htmlquery.Compile(cfg.Link.URL)
	if err != nil {
		return nil, err
	}
	return &LinkStage{
		Matcher:   matcher,
		Evaluator: evaluator,
		Config:    cfg,
		repeat:    repeat,
		url:       u,
	}, nil
}

// Name implements Stage.
func (s *LinkStage) Name() string { return "links" }

// Stats implements Stage.
func (s *LinkStage) Stats() pagestem.Stats { return s.stats }

// Process implements Stage.
func (s *LinkStage) Process(in iter.Seq[pagestem.Record]) iter.Seq[pagestem.Record] {
	return func(yield func(pagestem.Record) bool) {
		var records []pagestem.Record
		index := make(map[string]pagestem.Record)
		for rec := range in {
			records = append(records, rec)
			if _, ok := index[rec.URL()]; !ok {
				index[rec.URL()] = rec
			}
		}

		r := &redirector{stage: s, index: index, done: make(map[string]bool)}
		for _, rec := range records {
			r.scan(rec)
		}

		for _, rec := range records {
			if !yield(rec) {
				return
			}
		}
		for _, rec := range r.synthesized {
			if !yield(rec) {
				return
			}
		}
	}
}

type redirector struct {
	stage       *LinkStage
	index       map[string]pagestem.Record
	done        map[string]bool
	synthesized []pagestem.Record
}

func (r *redirector) scan(rec pagestem.Record) {
	s := r.stage
	cfg := s.Config
	s.stats.Seen++

	markup, ok := rec.HTML(cfg.ContentField)
	if !ok {
		s.stats.Skipped++
		report(s.Progress, ProgressEvent{Type: ProgressSkipped, Stage: s.Name(), URL: rec.URL()})
		return
	}
	doc, err := htmlquery.Parse(markup)
	if err != nil {
		s.stats.Unextracted++
		report(s.Progress, ProgressEvent{Type: ProgressUnextracted, Stage: s.Name(), URL: rec.URL(), Error: err})
		return
	}
	base, err := url.Parse(rec.URL())
	if err != nil {
		s.stats.Unextracted++
		report(s.Progress, ProgressEvent{Type: ProgressUnextracted, Stage: s.Name(), URL: rec.URL(), Error: err})
		return
	}

	for _, block := range doc.Query(s.repeat) {
		if block.Kind != htmlquery.StructuralNode {
			continue
		}
		r.redirect(rec, base, htmlquery.HTML(block))
	}
}

// redirect applies the rule groups to one block and merges the result into
// the record the block links to. The first block to reach a target wins;
// a target no group matched stays open for later blocks.
func (r *redirector) redirect(source pagestem.Record, base *url.URL, fragment string) {
	s := r.stage
	cfg := s.Config
	event := ProgressEvent{Stage: s.Name(), URL: source.URL()}

	target := r.address(base, fragment)
	if target == "" || r.done[target] {
		return
	}
	event.Target = target

	rec, found := r.index[target]
	if !found {
		rec = r.synthesize(source, target)
		if rec == nil {
			s.stats.Unresolved++
			event.Type = ProgressUnresolved
			report(s.Progress, event)
			return
		}
	}
	if rec.Has(cfg.RemainderField) && !cfg.Filter && !cfg.Link.Filter {
		s.stats.AlreadyMatched++
		event.Type = ProgressAlreadyMatched
		report(s.Progress, event)
		return
	}

	for _, g := range cfg.Groups {
		if !g.Applies(target) {
			continue
		}
		ext, err := s.Matcher.Match(g, fragment)
		if err != nil || !ext.OK() {
			continue
		}
		applier{Evaluator: s.Evaluator, Config: cfg, Progress: s.Progress, stage: s.Name()}.apply(rec, g, ext)
		r.done[target] = true
		s.stats.Redirected++
		event.Type = ProgressRedirected
		event.Group = g.Rank
		if !found {
			r.index[target] = rec
			r.synthesized = append(r.synthesized, rec)
			s.stats.Synthesized++
			event.Type = ProgressSynthesized
		}
		report(s.Progress, event)
		return
	}

	s.stats.Unextracted++
	event.Type = ProgressUnextracted
	report(s.Progress, event)
}

// address evaluates the url expression against a block and resolves the
// result against base. An element yields its href attribute, or its text
// when it has none.
func (r *redirector) address(base *url.URL, fragment string) string {
	doc, err := htmlquery.Parse(fragment)
	if err != nil {
		return ""
	}
	nodes := doc.Query(r.stage.url)
	if len(nodes) == 0 {
		return ""
	}
	n := nodes[0]
	raw := n.Literal
	if n.Kind == htmlquery.StructuralNode {
		if href, ok := htmlquery.Attr(n, "href"); ok {
			raw = href
		} else {
			raw = htmlquery.Text(n)
		}
	}
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || raw == "" {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}

// synthesize builds a minimal record for a link target when generating
// missing records is enabled and the address lies under the site prefix.
func (r *redirector) synthesize(source pagestem.Record, target string) pagestem.Record {
	link := r.stage.Config.Link
	if !link.GenerateMissing {
		return nil
	}
	prefix := link.URLPrefix
	if prefix == "" {
		prefix = source.SiteURL()
	}
	if prefix == "" || !strings.HasPrefix(target, prefix) {
		return nil
	}
	return pagestem.Record{
		pagestem.FieldSiteURL: prefix,
		pagestem.FieldPath:    strings.TrimPrefix(target, prefix),
	}
}
