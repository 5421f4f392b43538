package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/pagestem"
)

// Ensure LoggingMatcher implements pagestem.TemplateMatcher.
var _ pagestem.TemplateMatcher = (*LoggingMatcher)(nil)

// LoggingMatcher wraps a TemplateMatcher with debug logging of every group
// attempt. Claimed nodes that could not be detached are logged as warnings.
type LoggingMatcher struct {
	next   pagestem.TemplateMatcher
	logger *slog.Logger
}

// NewLoggingMatcher creates a new LoggingMatcher.
func NewLoggingMatcher(next pagestem.TemplateMatcher, logger *slog.Logger) *LoggingMatcher {
	return &LoggingMatcher{next: next, logger: logger}
}

// Match delegates to the wrapped matcher and logs the outcome.
func (m *LoggingMatcher) Match(group *pagestem.RuleGroup, html string) (ext *pagestem.Extraction, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"group", group.Rank,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		}
		if ext != nil {
			attrs = append(attrs,
				"ok", ext.OK(),
				"matched", ext.Matched,
				"unmatched", ext.Unmatched,
				"failed", ext.Failed,
				"detached", ext.Detached,
				"skipped_detach", ext.SkippedDetach,
			)
		}
		m.logger.Debug("match", attrs...)
		if ext != nil && ext.SkippedDetach > 0 {
			m.logger.Warn("claimed nodes outside the tree",
				"group", group.Rank,
				"count", ext.SkippedDetach,
			)
		}
	}(time.Now())
	return m.next.Match(group, html)
}

// Ensure LoggingDiscoverer implements pagestem.LayoutDiscoverer.
var _ pagestem.LayoutDiscoverer = (*LoggingDiscoverer)(nil)

// LoggingDiscoverer wraps a LayoutDiscoverer with logging.
type LoggingDiscoverer struct {
	next   pagestem.LayoutDiscoverer
	logger *slog.Logger
}

// NewLoggingDiscoverer creates a new LoggingDiscoverer.
func NewLoggingDiscoverer(next pagestem.LayoutDiscoverer, logger *slog.Logger) *LoggingDiscoverer {
	return &LoggingDiscoverer{next: next, logger: logger}
}

// Discover delegates to the wrapped discoverer and logs the pattern count.
func (d *LoggingDiscoverer) Discover(pages []pagestem.LayoutPage, opts pagestem.ClusterOptions) (set *pagestem.PatternSet, err error) {
	defer func(begin time.Time) {
		var patterns int
		if set != nil {
			patterns = len(set.Patterns)
		}
		d.logger.Info("layout discovery",
			"pages", len(pages),
			"patterns", patterns,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return d.next.Discover(pages, opts)
}

// Ensure LoggingEvaluator implements pagestem.Evaluator.
var _ pagestem.Evaluator = (*LoggingEvaluator)(nil)

// LoggingEvaluator wraps an Evaluator with debug logging.
type LoggingEvaluator struct {
	next   pagestem.Evaluator
	logger *slog.Logger
}

// NewLoggingEvaluator creates a new LoggingEvaluator.
func NewLoggingEvaluator(next pagestem.Evaluator, logger *slog.Logger) *LoggingEvaluator {
	return &LoggingEvaluator{next: next, logger: logger}
}

// Evaluate delegates to the wrapped evaluator and logs the expression.
func (e *LoggingEvaluator) Evaluate(expr string, rec pagestem.Record) (value string, err error) {
	defer func(begin time.Time) {
		e.logger.Debug("evaluate",
			"expr", expr,
			"url", rec.URL(),
			"bytes", len(value),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Evaluate(expr, rec)
}
