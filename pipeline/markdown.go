package pipeline

import (
	"iter"
	"strings"

	"github.com/fwojciec/pagestem"
)

// Ensure MarkdownStage implements Stage.
var _ Stage = (*MarkdownStage)(nil)

// MarkdownSuffix is appended to a field name to name its Markdown rendition.
const MarkdownSuffix = "_markdown"

// MarkdownStage renders HTML fields as Markdown next to the original.
type MarkdownStage struct {
	Converter pagestem.Converter
	Fields    []string
	Progress  ProgressFunc

	stats pagestem.Stats
}

// Name implements Stage.
func (s *MarkdownStage) Name() string { return "markdown" }

// Stats implements Stage.
func (s *MarkdownStage) Stats() pagestem.Stats { return s.stats }

// Process implements Stage.
func (s *MarkdownStage) Process(in iter.Seq[pagestem.Record]) iter.Seq[pagestem.Record] {
	return func(yield func(pagestem.Record) bool) {
		for rec := range in {
			s.convert(rec)
			if !yield(rec) {
				return
			}
		}
	}
}

func (s *MarkdownStage) render(html, pageURL string) (string, error) {
	if pc, ok := s.Converter.(pagestem.PageConverter); ok && strings.Contains(pageURL, "://") {
		return pc.ConvertPage(html, pageURL)
	}
	return s.Converter.Convert(html)
}

func (s *MarkdownStage) convert(rec pagestem.Record) {
	s.stats.Seen++
	event := ProgressEvent{Stage: s.Name(), URL: rec.URL(), Type: ProgressSkipped}
	converted := false
	for _, field := range s.Fields {
		v := rec.String(field)
		if strings.TrimSpace(v) == "" {
			continue
		}
		md, err := s.render(v, rec.URL())
		if err != nil {
			event.Field = field
			event.Error = err
			continue
		}
		rec[field+MarkdownSuffix] = md
		converted = true
	}
	if converted {
		s.stats.Extracted++
		event.Type = ProgressExtracted
	} else {
		s.stats.Skipped++
	}
	report(s.Progress, event)
}
