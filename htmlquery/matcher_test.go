package htmlquery_test

import (
	"testing"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGroups(t *testing.T, src string) []*pagestem.RuleGroup {
	t.Helper()
	groups, err := pagestem.ParseRules(src)
	require.NoError(t, err)
	return groups
}

func match(t *testing.T, src, markup string) *pagestem.Extraction {
	t.Helper()
	groups := mustGroups(t, src)
	m, err := htmlquery.NewMatcher(groups)
	require.NoError(t, err)
	ext, err := m.Match(groups[0], markup)
	require.NoError(t, err)
	return ext
}

func TestMatcher_Match(t *testing.T) {
	t.Parallel()

	t.Run("extracts text and html fields and leaves the shell behind", func(t *testing.T) {
		t.Parallel()

		ext := match(t, "title = text //h1\ntext = html //p\n",
			`<div class="body"><h1>Title</h1><p>Body text</p></div>`)

		require.True(t, ext.OK())
		assert.Equal(t, "Title", ext.Fields["title"])
		assert.Equal(t, "<p>Body text</p>", ext.Fields["text"])
		assert.Equal(t, `<div class="body"></div>`, ext.Remainder)
		assert.ElementsMatch(t, []string{"title", "text"}, ext.Matched)
		assert.Equal(t, 2, ext.Detached)
	})

	t.Run("text suffix coerces html mode to text", func(t *testing.T) {
		t.Parallel()

		ext := match(t, "title = html //h1/text()\n", `<h1>Hello <b>world</b></h1>`)

		require.True(t, ext.OK())
		assert.Equal(t, "Hello world", ext.Fields["title"])
	})

	t.Run("optional text suffix keeps the rule optional", func(t *testing.T) {
		t.Parallel()

		ext := match(t, "title = text //h1\nsub = optional //h2/text()\n", `<h1>Title</h1>`)

		require.True(t, ext.OK())
		assert.Equal(t, []string{"sub"}, ext.Unmatched)
		assert.NotContains(t, ext.Fields, "sub")
	})

	t.Run("failed required rule abandons the group without touching the tree", func(t *testing.T) {
		t.Parallel()

		ext := match(t, "title = text //h1\nbody = html //article\n", `<h1>Title</h1><p>x</p>`)

		assert.False(t, ext.OK())
		assert.Equal(t, []string{"body"}, ext.Failed)
		assert.Empty(t, ext.Fields)
		assert.Empty(t, ext.Remainder)
		assert.Zero(t, ext.Detached)
	})

	t.Run("text pieces are joined with a single space", func(t *testing.T) {
		t.Parallel()

		ext := match(t, "items = text //li\n", `<ul><li>one</li><li>two</li><li>three</li></ul>`)

		assert.Equal(t, "one two three", ext.Fields["items"])
		assert.Equal(t, "<ul></ul>", ext.Remainder)
	})

	t.Run("delete removes nodes without producing a value", func(t *testing.T) {
		t.Parallel()

		ext := match(t, "title = text //h1\nnav = delete //nav\n",
			`<nav>menu</nav><h1>Title</h1><p>keep</p>`)

		require.True(t, ext.OK())
		assert.NotContains(t, ext.Fields, "nav")
		assert.Equal(t, "<p>keep</p>", ext.Remainder)
	})

	t.Run("later rules of a field cannot claim nodes inside earlier claims", func(t *testing.T) {
		t.Parallel()

		ext := match(t, "text = html //div\n  //p\n", `<div><p>a</p></div><p>b</p>`)

		assert.Equal(t, "<div><p>a</p></div><p>b</p>", ext.Fields["text"])
		assert.Empty(t, ext.Remainder)
	})

	t.Run("overlap across fields is tolerated when detaching", func(t *testing.T) {
		t.Parallel()

		ext := match(t, "wrapper = html //section\nbody = text //p\n", `<section><p>inner</p></section>`)

		require.True(t, ext.OK())
		assert.Equal(t, 1, ext.Detached)
		assert.Equal(t, 1, ext.SkippedDetach)
		assert.Equal(t, "inner", ext.Fields["body"])
		assert.Equal(t, "<section><p>inner</p></section>", ext.Fields["wrapper"])
	})

	t.Run("attribute values are assigned verbatim", func(t *testing.T) {
		t.Parallel()

		ext := match(t, "link = text //a/@href\n", `<a href="/item1">desc</a>`)

		require.True(t, ext.OK())
		assert.Equal(t, "/item1", ext.Fields["link"])
		assert.True(t, ext.Literal["link"])
		assert.Equal(t, `<a href="/item1">desc</a>`, ext.Remainder)
	})

	t.Run("scalar expressions produce literal values", func(t *testing.T) {
		t.Parallel()

		ext := match(t, "count = text count(//li)\n", `<ul><li>a</li><li>b</li></ul>`)

		assert.Equal(t, "2", ext.Fields["count"])
		assert.True(t, ext.Literal["count"])
	})

	t.Run("full documents render whole", func(t *testing.T) {
		t.Parallel()

		ext := match(t, "title = text //h1\n",
			`<html><head><title>x</title></head><body><h1>Title</h1></body></html>`)

		assert.Equal(t, "<html><head><title>x</title></head><body></body></html>", ext.Remainder)
	})

	t.Run("exslt regular expressions are accepted", func(t *testing.T) {
		t.Parallel()

		ext := match(t, `text = html //div[re:test(@class, "^body$", "i")]`+"\n",
			`<div class="BODY">x</div><div class="other">y</div>`)

		require.True(t, ext.OK())
		assert.Equal(t, `<div class="BODY">x</div>`, ext.Fields["text"])
	})

	t.Run("remainder is stable when the leftover is matched again", func(t *testing.T) {
		t.Parallel()

		src := "title = optional //h1/text()\n"
		first := match(t, src, `<div><h1>T</h1><p>p</p></div>`)
		second := match(t, src, first.Remainder)

		assert.Equal(t, first.Remainder, second.Remainder)
		assert.Equal(t, []string{"title"}, second.Unmatched)
	})
}

func TestNewMatcher(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid expressions", func(t *testing.T) {
		t.Parallel()

		_, err := htmlquery.NewMatcher(mustGroups(t, "title = text //h1[\n"))

		require.Error(t, err)
		assert.Equal(t, pagestem.EINVALID, pagestem.ErrorCode(err))
	})

	t.Run("ignores computed rules", func(t *testing.T) {
		t.Parallel()

		_, err := htmlquery.NewMatcher(mustGroups(t, "title = text //h1\nslug = tal _path + \"/x\"\n"))

		require.NoError(t, err)
	})
}
