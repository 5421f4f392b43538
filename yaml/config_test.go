package yaml_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty document yields the defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := yaml.ParseConfig([]byte(""))

		require.NoError(t, err)
		assert.Equal(t, pagestem.DefaultConfig(), cfg)
	})

	t.Run("parses every section", func(t *testing.T) {
		t.Parallel()

		cfg, err := yaml.ParseConfig([]byte(`
content_field: body
remainder_field: _leftover
filter: true
rules: |
  title = text //h1
  2-title = text //h2
  text = html //p
    optional //div[@class="extra"]
computed:
  description: 'title + " (" + _path + ")"'
  slug: lower(title)
link:
  repeat: //li
  url: //a/@href
  url_prefix: http://example.com/
  generate_missing: true
auto:
  score_threshold: 20
  fallback: trafilatura
markdown: [text]
`))

		require.NoError(t, err)
		assert.Equal(t, "body", cfg.ContentField)
		assert.Equal(t, "_leftover", cfg.RemainderField)
		assert.True(t, cfg.Filter)

		require.Len(t, cfg.Groups, 2)
		assert.Equal(t, 1, cfg.Groups[0].Rank)
		require.Len(t, cfg.Groups[0].Fields, 2)
		assert.Equal(t, []pagestem.Rule{
			{Mode: pagestem.ModeHTML, Expr: "//p"},
			{Mode: pagestem.ModeOptionalHTML, Expr: `//div[@class="extra"]`},
		}, cfg.Groups[0].Fields[1].Rules)
		assert.Equal(t, 2, cfg.Groups[1].Rank)

		assert.Equal(t, []pagestem.ComputedRule{
			{Field: "description", Expr: `title + " (" + _path + ")"`},
			{Field: "slug", Expr: "lower(title)"},
		}, cfg.Computed)

		assert.Equal(t, &pagestem.LinkConfig{
			Repeat:          "//li",
			URL:             "//a/@href",
			URLPrefix:       "http://example.com/",
			GenerateMissing: true,
		}, cfg.Link)

		want := pagestem.DefaultClusterOptions()
		want.ScoreThreshold = 20
		assert.Equal(t, want, cfg.Auto.Options)
		assert.Equal(t, pagestem.FallbackTrafilatura, cfg.Auto.Fallback)
		assert.Equal(t, []string{"text"}, cfg.Markdown)
	})

	t.Run("rules as an ordered mapping", func(t *testing.T) {
		t.Parallel()

		cfg, err := yaml.ParseConfig([]byte(`
rules:
  text: html //p
  title: text //h1
  2-title:
    - text //h2
    - //h3
`))

		require.NoError(t, err)
		require.Len(t, cfg.Groups, 2)
		assert.Equal(t, "text", cfg.Groups[0].Fields[0].Field)
		assert.Equal(t, "title", cfg.Groups[0].Fields[1].Field)
		assert.Equal(t, []pagestem.Rule{
			{Mode: pagestem.ModeText, Expr: "//h2"},
			{Mode: pagestem.ModeText, Expr: "//h3"},
		}, cfg.Groups[1].Fields[0].Rules)
	})

	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "rules: [unclosed"},
		{"rule without an expression", "rules: \"title = \"\n"},
		{"link without groups", "link:\n  repeat: //li\n  url: //a\n"},
		{"threshold out of range", "auto:\n  cluster_threshold: 2\n"},
		{"unknown fallback", "auto:\n  fallback: magic\n"},
		{"computed not a mapping", "computed: [a, b]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := yaml.ParseConfig([]byte(tt.data))

			require.Error(t, err)
			assert.Equal(t, pagestem.EINVALID, pagestem.ErrorCode(err))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("reads a file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "pagestem.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules: \"title = text //h1\"\n"), 0o644))

		cfg, err := yaml.LoadConfig(path)

		require.NoError(t, err)
		require.Len(t, cfg.Groups, 1)
	})

	t.Run("missing file is an internal error", func(t *testing.T) {
		t.Parallel()

		_, err := yaml.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))

		require.Error(t, err)
		assert.Equal(t, pagestem.EINTERNAL, pagestem.ErrorCode(err))
	})
}
