package pipeline

import (
	"fmt"
	"iter"
	"strings"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/htmlquery"
	"github.com/fwojciec/pagestem/layout"
)

// Ensure AutoStage implements Stage.
var _ Stage = (*AutoStage)(nil)

// AutoStage learns extraction rules from the corpus itself. Pages carrying
// HTML are held back until the whole stream has been read; everything else
// passes through at once. Each held page is then matched against the
// discovered patterns and its varying sections become the title and text
// fields.
type AutoStage struct {
	Discoverer pagestem.LayoutDiscoverer
	Fallback   pagestem.Extractor
	Config     *pagestem.Config
	Progress   ProgressFunc

	stats     pagestem.Stats
	templates []*AutoTemplate
}

// AutoTemplate is the set of rules discovered for one layout pattern,
// expressed as XPath so it can be reused as explicit rule configuration.
type AutoTemplate struct {
	Pattern string
	Fields  []pagestem.FieldRules
}

// String renders the template in rule configuration syntax.
func (t *AutoTemplate) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# pattern %s\n", t.Pattern)
	for _, fr := range t.Fields {
		for i, r := range fr.Rules {
			if i == 0 {
				fmt.Fprintf(&b, "%s = %s %s\n", fr.Field, r.Mode, r.Expr)
				continue
			}
			fmt.Fprintf(&b, "\t%s\n", r.Expr)
		}
	}
	return b.String()
}

// Name implements Stage.
func (s *AutoStage) Name() string { return "auto" }

// Stats implements Stage.
func (s *AutoStage) Stats() pagestem.Stats { return s.stats }

// Templates returns the rules discovered for every pattern that matched at
// least one page, in order of first use.
func (s *AutoStage) Templates() []*AutoTemplate { return s.templates }

type candidate struct {
	rec    pagestem.Record
	markup string
	page   pagestem.LayoutPage
}

// Process implements Stage.
func (s *AutoStage) Process(in iter.Seq[pagestem.Record]) iter.Seq[pagestem.Record] {
	return func(yield func(pagestem.Record) bool) {
		cfg := s.Config
		var corpus []candidate
		for rec := range in {
			s.stats.Seen++
			event := ProgressEvent{Stage: s.Name(), URL: rec.URL()}
			markup, ok := rec.HTML(cfg.ContentField)
			switch {
			case rec.Has(cfg.RemainderField) && !cfg.Filter:
				s.stats.AlreadyMatched++
				event.Type = ProgressAlreadyMatched
			case !ok:
				s.stats.Skipped++
				event.Type = ProgressSkipped
			default:
				page, err := layout.Segment(event.URL, markup)
				if err == nil {
					corpus = append(corpus, candidate{rec: rec, markup: markup, page: page})
					continue
				}
				s.stats.Unextracted++
				event.Type = ProgressUnextracted
				event.Error = err
			}
			report(s.Progress, event)
			if !yield(rec) {
				return
			}
		}

		pages := make([]pagestem.LayoutPage, len(corpus))
		for i, c := range corpus {
			pages[i] = c.page
		}
		opts := cfg.Auto.Options
		set, err := s.Discoverer.Discover(pages, opts)
		if err != nil {
			set = nil
		}

		for _, c := range corpus {
			event := ProgressEvent{Stage: s.Name(), URL: c.rec.URL(), Error: err}
			if s.extract(c, set) {
				s.stats.Extracted++
				event.Type = ProgressExtracted
			} else {
				s.stats.Unextracted++
				event.Type = ProgressUnextracted
			}
			report(s.Progress, event)
			if !yield(c.rec) {
				return
			}
		}
	}
}

func (s *AutoStage) extract(c candidate, set *pagestem.PatternSet) bool {
	opts := s.Config.Auto.Options
	if m, ok := layout.Identify(set, c.page, opts.MatchThreshold, opts.Strict); ok {
		if tmpl := s.template(m.Pattern.ID, layout.Classify(m, opts)); tmpl != nil {
			if fields := apply(tmpl, c.markup); len(fields) > 0 {
				for k, v := range fields {
					c.rec[k] = v
				}
				return true
			}
		}
	}
	if s.Fallback == nil {
		return false
	}
	res, err := s.Fallback.Extract(c.markup)
	if err != nil || strings.TrimSpace(res.ContentHTML) == "" {
		return false
	}
	if res.Title != "" {
		c.rec["title"] = res.Title
	}
	c.rec[pagestem.FieldText] = "<div>" + res.ContentHTML + "</div>"
	return true
}

// template returns the rules for a pattern, building them from the section
// assignments the first time the pattern is seen.
func (s *AutoStage) template(pattern string, assignments []pagestem.Assignment) *AutoTemplate {
	for _, t := range s.templates {
		if t.Pattern == pattern {
			return t
		}
	}
	if len(assignments) == 0 {
		return nil
	}
	t := &AutoTemplate{Pattern: pattern}
	for _, a := range assignments {
		mode := pagestem.ModeHTML
		if a.Role == pagestem.RoleTitle {
			mode = pagestem.ModeText
		}
		expr := htmlquery.ToXPath(a.Path)
		if a.Path == layout.RootPath {
			expr = layout.RootXPath
		}
		t.add(a.Field, pagestem.Rule{Mode: mode, Expr: expr})
	}
	s.templates = append(s.templates, t)
	return t
}

func (t *AutoTemplate) add(field string, rule pagestem.Rule) {
	for i := range t.Fields {
		if t.Fields[i].Field != field {
			continue
		}
		for _, r := range t.Fields[i].Rules {
			if r.Expr == rule.Expr {
				return
			}
		}
		t.Fields[i].Rules = append(t.Fields[i].Rules, rule)
		return
	}
	t.Fields = append(t.Fields, pagestem.FieldRules{Field: field, Rules: []pagestem.Rule{rule}})
}

// apply evaluates a template against the full page. Nodes are not removed
// from the page. Overlapping nodes within a field are reduced to the
// outermost ones; text fields are joined with a space and markup fields are
// wrapped in a single <div>.
func apply(t *AutoTemplate, markup string) map[string]string {
	doc, err := htmlquery.Parse(markup)
	if err != nil {
		return nil
	}
	fields := make(map[string]string)
	for _, fr := range t.Fields {
		var matches []htmlquery.Match
		for _, r := range fr.Rules {
			expr, err := htmlquery.Compile(r.Expr)
			if err != nil {
				continue
			}
			var candidates []htmlquery.Match
			for _, n := range doc.Query(expr) {
				candidates = append(candidates, htmlquery.Match{Mode: r.Mode, Node: n})
			}
			matches = htmlquery.Reduce(matches, candidates)
		}
		if len(matches) == 0 {
			continue
		}
		var parts []string
		text := true
		for _, m := range matches {
			if m.Mode.IsText() {
				parts = append(parts, strings.TrimSpace(htmlquery.Text(m.Node)))
				continue
			}
			text = false
			parts = append(parts, htmlquery.HTML(m.Node))
		}
		if text {
			fields[fr.Field] = strings.Join(parts, " ")
		} else {
			fields[fr.Field] = "<div>" + strings.Join(parts, "") + "</div>"
		}
	}
	return fields
}
