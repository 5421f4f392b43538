// Package htmltomarkdown renders extracted HTML fields as Markdown.
package htmltomarkdown

import (
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/pagestem"
)

// Ensure Converter implements pagestem.PageConverter at compile time.
var _ pagestem.PageConverter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert HTML to Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms an HTML fragment into Markdown. Relative links stay
// relative.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", pagestem.Errorf(pagestem.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result), nil
}

// ConvertPage transforms an HTML fragment into Markdown, resolving relative
// links and images against pageURL.
func (c *Converter) ConvertPage(html, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return "", pagestem.Errorf(pagestem.EINVALID, "invalid page URL %q", pageURL)
	}
	if strings.TrimSpace(html) == "" {
		return "", pagestem.Errorf(pagestem.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html, converter.WithDomain(u.Scheme+"://"+u.Host))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result), nil
}
