// Package pipeline wires the extraction engines into record stream stages.
//
// A stage consumes an ordered sequence of records and yields the same
// records, enriched in place. Stages never fail because of a single record:
// per-record outcomes are counted in pagestem.Stats and reported through a
// ProgressFunc.
package pipeline

import (
	"iter"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/htmlquery"
	"github.com/fwojciec/pagestem/layout"
)

// Stage is one step of the record pipeline.
type Stage interface {
	Name() string
	Process(in iter.Seq[pagestem.Record]) iter.Seq[pagestem.Record]
	Stats() pagestem.Stats
}

// ProgressType indicates what happened to a record.
type ProgressType int

const (
	ProgressSkipped ProgressType = iota
	ProgressAlreadyMatched
	ProgressExtracted
	ProgressUnextracted
	ProgressRedirected
	ProgressSynthesized
	ProgressUnresolved
	ProgressEvalFailed
)

func (t ProgressType) String() string {
	switch t {
	case ProgressSkipped:
		return "skipped"
	case ProgressAlreadyMatched:
		return "already_matched"
	case ProgressExtracted:
		return "extracted"
	case ProgressUnextracted:
		return "unextracted"
	case ProgressRedirected:
		return "redirected"
	case ProgressSynthesized:
		return "synthesized"
	case ProgressUnresolved:
		return "unresolved"
	case ProgressEvalFailed:
		return "eval_failed"
	}
	return "unknown"
}

// ProgressEvent reports the outcome for one record.
type ProgressEvent struct {
	Type  ProgressType
	Stage string
	URL   string

	// Group is the rank of the rule group applied, or zero.
	Group int

	// Field is set for computed rule failures.
	Field string

	// Target is the address fields were redirected to.
	Target string

	Error error
}

// ProgressFunc is a callback for reporting pipeline progress.
type ProgressFunc func(event ProgressEvent)

// Dependencies are the collaborators a pipeline is built from. Matcher and
// Discoverer default to the htmlquery and layout implementations.
type Dependencies struct {
	Matcher    pagestem.TemplateMatcher
	Discoverer pagestem.LayoutDiscoverer
	Evaluator  pagestem.Evaluator
	Fallback   pagestem.Extractor
	Converter  pagestem.Converter
	Progress   ProgressFunc
}

// New builds the pipeline described by cfg. Link redirection runs when
// configured; otherwise explicit rule groups run when present and layout
// discovery runs when they are not. A markdown stage follows when fields
// are listed for conversion. Configuration problems are reported here,
// before any record is read.
func New(cfg *pagestem.Config, deps Dependencies) (*Chain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if needsEvaluator(cfg) && deps.Evaluator == nil {
		return nil, pagestem.Errorf(pagestem.EINVALID, "computed rules require an evaluator")
	}
	if len(cfg.Groups) > 0 && deps.Matcher == nil {
		m, err := htmlquery.NewMatcher(cfg.Groups)
		if err != nil {
			return nil, err
		}
		deps.Matcher = m
	}

	var stages []Stage
	switch {
	case cfg.Link != nil:
		s, err := NewLinkStage(cfg, deps.Matcher, deps.Evaluator)
		if err != nil {
			return nil, err
		}
		s.Progress = deps.Progress
		stages = append(stages, s)
	case len(cfg.Groups) > 0:
		stages = append(stages, &RuleStage{
			Matcher:   deps.Matcher,
			Evaluator: deps.Evaluator,
			Config:    cfg,
			Progress:  deps.Progress,
		})
	case !cfg.Auto.Disable:
		if cfg.Auto.Fallback != pagestem.FallbackNone && deps.Fallback == nil {
			return nil, pagestem.Errorf(pagestem.EINVALID, "fallback extractor %q not provided", cfg.Auto.Fallback)
		}
		if deps.Discoverer == nil {
			deps.Discoverer = layout.NewDiscoverer()
		}
		stages = append(stages, &AutoStage{
			Discoverer: deps.Discoverer,
			Fallback:   deps.Fallback,
			Config:     cfg,
			Progress:   deps.Progress,
		})
	}

	if len(cfg.Markdown) > 0 {
		if deps.Converter == nil {
			return nil, pagestem.Errorf(pagestem.EINVALID, "markdown conversion requires a converter")
		}
		stages = append(stages, &MarkdownStage{
			Converter: deps.Converter,
			Fields:    cfg.Markdown,
			Progress:  deps.Progress,
		})
	}
	return NewChain(stages...), nil
}

func needsEvaluator(cfg *pagestem.Config) bool {
	if len(cfg.Computed) > 0 {
		return true
	}
	for _, g := range cfg.Groups {
		if len(g.Computed()) > 0 {
			return true
		}
	}
	return false
}

// Chain runs stages one after another.
type Chain struct {
	stages []Stage
}

// NewChain composes stages in order.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Stages returns the composed stages.
func (c *Chain) Stages() []Stage {
	return c.stages
}

// Process feeds in through every stage.
func (c *Chain) Process(in iter.Seq[pagestem.Record]) iter.Seq[pagestem.Record] {
	out := in
	for _, s := range c.stages {
		out = s.Process(out)
	}
	return out
}

func report(progress ProgressFunc, event ProgressEvent) {
	if progress != nil {
		progress(event)
	}
}
