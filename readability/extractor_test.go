package readability_test

import (
	"net/url"
	"testing"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/readability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(body string) string {
	return `<!DOCTYPE html>
<html>
<head><title>Page Title</title></head>
<body>` + body + `</body>
</html>`
}

func TestExtractor_RejectsEmptyInput(t *testing.T) {
	t.Parallel()

	_, err := readability.NewExtractor().Extract("")

	require.Error(t, err)
	assert.Equal(t, pagestem.EINVALID, pagestem.ErrorCode(err))
}

func TestExtractor_ExtractsTitleAndArticle(t *testing.T) {
	t.Parallel()

	result, err := readability.NewExtractor().Extract(page(`
<nav><a href="/home">Home Nav Link</a></nav>
<aside class="sidebar"><p>Sidebar navigation content</p></aside>
<article>
<h1>Main Heading</h1>
<p>This is the important article paragraph text that must be kept.</p>
<ul><li>First item</li><li>Second item</li></ul>
</article>
<footer><p>Footer copyright text 2024</p></footer>`))

	require.NoError(t, err)
	assert.Equal(t, "Page Title", result.Title)
	assert.Contains(t, result.ContentHTML, "important article paragraph text")
	assert.Contains(t, result.ContentHTML, "<li")
	assert.NotContains(t, result.ContentHTML, "Home Nav Link")
	assert.NotContains(t, result.ContentHTML, "Sidebar navigation content")
	assert.NotContains(t, result.ContentHTML, "Footer copyright text")
}

func TestExtractor_PreservesCodeBlocks(t *testing.T) {
	t.Parallel()

	result, err := readability.NewExtractor().Extract(page(`
<article>
<p>Here is how to print a greeting from a program written in Go:</p>
<pre><code class="language-go"><span>fmt</span>.Println("hello")</code></pre>
</article>`))

	require.NoError(t, err)
	assert.Contains(t, result.ContentHTML, "<pre")
	assert.Contains(t, result.ContentHTML, "Println")
}

func TestExtractor_ResolvesRelativeLinks(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://example.com/docs/page")
	require.NoError(t, err)
	ext := &readability.Extractor{BaseURL: base}

	result, err := ext.Extract(page(`
<article>
<p>Read <a href="/docs/other">the other page</a> for the complete description of this feature.</p>
</article>`))

	require.NoError(t, err)
	assert.Contains(t, result.ContentHTML, `href="https://example.com/docs/other"`)
}
