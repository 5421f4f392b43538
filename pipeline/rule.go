package pipeline

import (
	"iter"

	"github.com/fwojciec/pagestem"
)

// Ensure RuleStage implements Stage.
var _ Stage = (*RuleStage)(nil)

// RuleStage applies explicit rule groups to each record as it streams by.
// Groups are tried in rank order and the first that succeeds as a whole is
// applied; records no group fits pass through unchanged.
type RuleStage struct {
	Matcher   pagestem.TemplateMatcher
	Evaluator pagestem.Evaluator
	Config    *pagestem.Config
	Progress  ProgressFunc

	stats pagestem.Stats
}

// Name implements Stage.
func (s *RuleStage) Name() string { return "rules" }

// Stats implements Stage.
func (s *RuleStage) Stats() pagestem.Stats { return s.stats }

// Process implements Stage.
func (s *RuleStage) Process(in iter.Seq[pagestem.Record]) iter.Seq[pagestem.Record] {
	return func(yield func(pagestem.Record) bool) {
		for rec := range in {
			s.extract(rec)
			if !yield(rec) {
				return
			}
		}
	}
}

func (s *RuleStage) extract(rec pagestem.Record) {
	cfg := s.Config
	s.stats.Seen++
	event := ProgressEvent{Stage: s.Name(), URL: rec.URL()}

	markup, ok := rec.HTML(cfg.ContentField)
	if !ok {
		s.stats.Skipped++
		event.Type = ProgressSkipped
		report(s.Progress, event)
		return
	}
	if rec.Has(cfg.RemainderField) && !cfg.Filter {
		s.stats.AlreadyMatched++
		event.Type = ProgressAlreadyMatched
		report(s.Progress, event)
		return
	}

	for _, g := range cfg.Groups {
		if !g.Applies(event.URL) {
			continue
		}
		ext, err := s.Matcher.Match(g, markup)
		if err != nil {
			event.Error = err
			break
		}
		if !ext.OK() {
			continue
		}
		applier{Evaluator: s.Evaluator, Config: cfg, Progress: s.Progress, stage: s.Name()}.apply(rec, g, ext)
		if !cfg.Filter {
			rec[cfg.RemainderField] = ext.Remainder
		}
		s.stats.Extracted++
		event.Type = ProgressExtracted
		event.Group = g.Rank
		report(s.Progress, event)
		return
	}

	s.stats.Unextracted++
	event.Type = ProgressUnextracted
	report(s.Progress, event)
}

// applier merges a successful extraction into a record.
type applier struct {
	Evaluator pagestem.Evaluator
	Config    *pagestem.Config
	Progress  ProgressFunc
	stage     string
}

// apply assigns the extracted fields, then evaluates the group's computed
// rules against the updated record, appending their results, and finally
// assigns the configuration's global computed rules outright.
func (a applier) apply(rec pagestem.Record, g *pagestem.RuleGroup, ext *pagestem.Extraction) {
	for field, value := range ext.Fields {
		rec[field] = value
	}
	for _, fr := range g.Computed() {
		for _, r := range fr.Rules {
			v, ok := a.evaluate(rec, fr.Field, r.Expr, g.Rank)
			if ok {
				rec[fr.Field] = rec.String(fr.Field) + v
			}
		}
	}
	for _, cr := range a.Config.Computed {
		if v, ok := a.evaluate(rec, cr.Field, cr.Expr, g.Rank); ok {
			rec[cr.Field] = v
		}
	}
	delete(rec, pagestem.FieldTree)
}

func (a applier) evaluate(rec pagestem.Record, field, expr string, group int) (string, bool) {
	if a.Evaluator == nil {
		return "", false
	}
	v, err := a.Evaluator.Evaluate(expr, rec)
	if err != nil {
		report(a.Progress, ProgressEvent{
			Type:  ProgressEvalFailed,
			Stage: a.stage,
			URL:   rec.URL(),
			Group: group,
			Field: field,
			Error: err,
		})
		return "", false
	}
	return v, true
}
