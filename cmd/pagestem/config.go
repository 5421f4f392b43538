package main

import (
	"github.com/fwojciec/pagestem"
	pagestemexpr "github.com/fwojciec/pagestem/expr"
	"github.com/fwojciec/pagestem/htmlquery"
	"github.com/fwojciec/pagestem/htmltomarkdown"
	"github.com/fwojciec/pagestem/layout"
	"github.com/fwojciec/pagestem/pipeline"
	"github.com/fwojciec/pagestem/readability"
	pagestemslog "github.com/fwojciec/pagestem/slog"
	"github.com/fwojciec/pagestem/trafilatura"
	pagestemyaml "github.com/fwojciec/pagestem/yaml"
)

// load returns the configuration named by the flags. Rule lines given on
// the command line replace the configured rule groups.
func (f *ConfigFlags) load() (*pagestem.Config, error) {
	cfg := pagestem.DefaultConfig()
	if f.Config != "" {
		loaded, err := pagestemyaml.LoadConfig(f.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(f.Rule) > 0 {
		entries := make([]pagestem.RuleEntry, 0, len(f.Rule))
		for _, line := range f.Rule {
			entry, err := pagestem.ParseRule(line)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		groups, err := pagestem.BuildRuleGroups(entries)
		if err != nil {
			return nil, err
		}
		cfg.Groups = groups
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDependencies builds the pipeline collaborators for cfg. Every rule
// is compiled here so configuration errors surface before input is read.
func newDependencies(cfg *pagestem.Config, deps *Dependencies) (pipeline.Dependencies, error) {
	var out pipeline.Dependencies

	var matcher pagestem.TemplateMatcher
	if len(cfg.Groups) > 0 {
		m, err := htmlquery.NewMatcher(cfg.Groups)
		if err != nil {
			return out, err
		}
		matcher = m
	}

	evaluator := pagestemexpr.NewEvaluator()
	for _, src := range computedExprs(cfg) {
		if err := evaluator.Compile(src); err != nil {
			return out, err
		}
	}

	var discoverer pagestem.LayoutDiscoverer = layout.NewDiscoverer()
	var eval pagestem.Evaluator = evaluator

	var fallback pagestem.Extractor
	switch cfg.Auto.Fallback {
	case pagestem.FallbackTrafilatura:
		fallback = trafilatura.NewExtractor(trafilatura.WithLinks())
	case pagestem.FallbackReadability:
		fallback = readability.NewExtractor()
	}

	if deps.Verbose {
		if matcher != nil {
			matcher = pagestemslog.NewLoggingMatcher(matcher, deps.Logger)
		}
		discoverer = pagestemslog.NewLoggingDiscoverer(discoverer, deps.Logger)
		eval = pagestemslog.NewLoggingEvaluator(eval, deps.Logger)
	}

	out.Matcher = matcher
	out.Discoverer = discoverer
	out.Evaluator = eval
	out.Fallback = fallback
	out.Converter = htmltomarkdown.NewConverter()
	out.Progress = progressLogger(deps)
	return out, nil
}

func computedExprs(cfg *pagestem.Config) []string {
	var exprs []string
	for _, cr := range cfg.Computed {
		exprs = append(exprs, cr.Expr)
	}
	for _, g := range cfg.Groups {
		for _, fr := range g.Computed() {
			for _, r := range fr.Rules {
				exprs = append(exprs, r.Expr)
			}
		}
	}
	return exprs
}

// progressLogger logs every pipeline event. Failures are warnings; the
// rest is only visible with --verbose.
func progressLogger(deps *Dependencies) pipeline.ProgressFunc {
	return func(e pipeline.ProgressEvent) {
		attrs := []any{"stage", e.Stage, "url", e.URL}
		if e.Group > 0 {
			attrs = append(attrs, "group", e.Group)
		}
		if e.Field != "" {
			attrs = append(attrs, "field", e.Field)
		}
		if e.Target != "" {
			attrs = append(attrs, "target", e.Target)
		}
		if e.Error != nil {
			attrs = append(attrs, "err", errorText(e.Error))
		}

		if e.Type == pipeline.ProgressEvalFailed || e.Error != nil {
			deps.Logger.WarnContext(deps.Ctx, e.Type.String(), attrs...)
			return
		}
		deps.Logger.DebugContext(deps.Ctx, e.Type.String(), attrs...)
	}
}
