package pipeline_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/mock"
	"github.com/fwojciec/pagestem/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var articles = []string{
	"Quantum mechanics describes nature at the smallest scales of energy levels",
	"Medieval castles were built with thick stone walls and deep moats around",
	"Tropical rainforests host an enormous diversity of plants insects birds",
}

func article(title, body string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head><body>
<div id="header"><p>Example Site Header</p></div>
<div class="headline"><h1>%s</h1></div>
<div class="content"><p>%s</p></div>
</body></html>`, title, title, body)
}

func autoConfig() *pagestem.Config {
	cfg := pagestem.DefaultConfig()
	cfg.Auto.Options.ScoreThreshold = 10
	return cfg
}

func corpus() []pagestem.Record {
	titles := []string{"Article One", "Second Story", "Third Report"}
	var recs []pagestem.Record
	for i, body := range articles {
		recs = append(recs, record(fmt.Sprintf("/%d", i), article(titles[i], body)))
	}
	return recs
}

func TestAutoStage(t *testing.T) {
	t.Parallel()

	t.Run("extracts the varying sections of a shared layout", func(t *testing.T) {
		t.Parallel()

		chain := build(t, autoConfig(), pipeline.Dependencies{})
		skipped := pagestem.Record{pagestem.FieldPath: "/file.pdf", pagestem.FieldMimetype: "application/pdf"}

		out := run(chain, append(corpus(), skipped)...)

		require.Len(t, out, 4)
		assert.Equal(t, skipped, out[0])
		assert.Equal(t, "Article One", out[1]["title"])
		assert.Equal(t, "<div><p>"+articles[0]+"</p></div>", out[1][pagestem.FieldText])
		assert.Equal(t, "Third Report", out[3]["title"])
		assert.NotContains(t, out[1][pagestem.FieldText], "Example Site Header")

		stage := chain.Stages()[0]
		assert.Equal(t, 3, stage.Stats().Extracted)
		assert.Equal(t, 1, stage.Stats().Skipped)

		tmpls := stage.(*pipeline.AutoStage).Templates()
		require.Len(t, tmpls, 1)
		assert.Contains(t, tmpls[0].String(), `title = text //div[matches(@class,"(?i)^headline$")]//h1`)
		assert.Contains(t, tmpls[0].String(), `text = html //div[matches(@class,"(?i)^content$")]//p`)
	})

	t.Run("discovered template parses as rule configuration", func(t *testing.T) {
		t.Parallel()

		chain := build(t, autoConfig(), pipeline.Dependencies{})
		run(chain, corpus()...)
		tmpl := chain.Stages()[0].(*pipeline.AutoStage).Templates()[0]

		groups, err := pagestem.ParseRules(tmpl.String())

		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, tmpl.Fields, groups[0].Fields)
	})

	t.Run("text directly in the body leaves nested sections out", func(t *testing.T) {
		t.Parallel()

		var recs []pagestem.Record
		for i, body := range articles {
			markup := fmt.Sprintf(`<html><head><title>Page</title></head><body><div id="nav"><p>Example Site Navigation Menu</p></div>%s</body></html>`, body)
			recs = append(recs, record(fmt.Sprintf("/%d", i), markup))
		}
		chain := build(t, autoConfig(), pipeline.Dependencies{})

		out := run(chain, recs...)

		require.Len(t, out, 3)
		text, ok := out[0][pagestem.FieldText].(string)
		require.True(t, ok)
		assert.Contains(t, text, articles[0])
		assert.NotContains(t, text, "Navigation")
		assert.NotContains(t, text, "<body")

		tmpls := chain.Stages()[0].(*pipeline.AutoStage).Templates()
		require.Len(t, tmpls, 1)
		assert.NotContains(t, tmpls[0].String(), "html //body\n")
	})

	t.Run("records already processed pass through first", func(t *testing.T) {
		t.Parallel()

		recs := corpus()
		recs[1][pagestem.FieldTemplate] = ""
		chain := build(t, autoConfig(), pipeline.Dependencies{})

		out := run(chain, recs...)

		assert.Equal(t, "/1", out[0].Path())
		assert.NotContains(t, out[0], "title")
		assert.Equal(t, 1, chain.Stages()[0].Stats().AlreadyMatched)
	})

	t.Run("unmatched pages pass through unchanged", func(t *testing.T) {
		t.Parallel()

		cfg := autoConfig()
		cfg.Auto.Options.ScoreThreshold = 1e9
		chain := build(t, cfg, pipeline.Dependencies{})

		out := run(chain, corpus()...)

		for _, rec := range out {
			assert.NotContains(t, rec, "title")
		}
		assert.Equal(t, 3, chain.Stages()[0].Stats().Unextracted)
	})

	t.Run("fallback extractor fills unmatched pages", func(t *testing.T) {
		t.Parallel()

		cfg := autoConfig()
		cfg.Auto.Options.ScoreThreshold = 1e9
		cfg.Auto.Fallback = pagestem.FallbackReadability
		fallback := &mock.Extractor{
			ExtractFn: func(html string) (*pagestem.ExtractResult, error) {
				return &pagestem.ExtractResult{Title: "Guessed", ContentHTML: "<p>main</p>"}, nil
			},
		}
		chain := build(t, cfg, pipeline.Dependencies{Fallback: fallback})

		out := run(chain, corpus()[0])

		assert.Equal(t, "Guessed", out[0]["title"])
		assert.Equal(t, "<div><p>main</p></div>", out[0][pagestem.FieldText])
	})

	t.Run("discovery errors leave pages unextracted", func(t *testing.T) {
		t.Parallel()

		var events []pipeline.ProgressEvent
		discoverer := &mock.LayoutDiscoverer{
			DiscoverFn: func([]pagestem.LayoutPage, pagestem.ClusterOptions) (*pagestem.PatternSet, error) {
				return nil, errors.New("boom")
			},
		}
		chain := build(t, autoConfig(), pipeline.Dependencies{
			Discoverer: discoverer,
			Progress:   func(e pipeline.ProgressEvent) { events = append(events, e) },
		})

		out := run(chain, corpus()...)

		require.Len(t, out, 3)
		require.Len(t, events, 3)
		assert.Equal(t, pipeline.ProgressUnextracted, events[0].Type)
		assert.EqualError(t, events[0].Error, "boom")
	})
}

func TestMarkdownStage(t *testing.T) {
	t.Parallel()

	t.Run("converts listed fields", func(t *testing.T) {
		t.Parallel()

		cfg := rulesConfig(t, "text = html //p\n")
		cfg.Markdown = []string{"text", "missing"}
		converter := &mock.Converter{
			ConvertFn: func(html string) (string, error) { return "md:" + html, nil },
		}
		chain := build(t, cfg, pipeline.Dependencies{Converter: converter})

		out := run(chain, record("/a", "<p>x</p>"))

		assert.Equal(t, "md:<p>x</p>", out[0]["text_markdown"])
		assert.NotContains(t, out[0], "missing_markdown")
		assert.Equal(t, 1, chain.Stages()[1].Stats().Extracted)
	})
}
