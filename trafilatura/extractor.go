// Package trafilatura guesses the main content of pages no layout pattern
// covers, using go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/pagestem"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements pagestem.Extractor at compile time.
var _ pagestem.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct {
	opts trafilatura.Options
}

// Option configures an Extractor.
type Option func(*trafilatura.Options)

// WithLinks keeps hyperlinks in the extracted content.
func WithLinks() Option {
	return func(o *trafilatura.Options) { o.IncludeLinks = true }
}

// WithImages keeps images in the extracted content.
func WithImages() Option {
	return func(o *trafilatura.Options) { o.IncludeImages = true }
}

// NewExtractor creates a new Extractor. Comment sections are excluded and
// the readability fallback algorithms are enabled.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{opts: trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
	}}
	for _, opt := range opts {
		opt(&e.opts)
	}
	return e
}

// Extract processes raw HTML and returns the main content. A page without
// recognizable content is reported as ENOMATCH.
func (e *Extractor) Extract(rawHTML string) (*pagestem.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, pagestem.Errorf(pagestem.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), e.opts)
	if err != nil {
		return nil, pagestem.Errorf(pagestem.ENOMATCH, "no main content: %v", err)
	}
	if result.ContentNode == nil {
		return nil, pagestem.Errorf(pagestem.ENOMATCH, "no main content")
	}

	contentHTML, err := renderChildren(result.ContentNode)
	if err != nil {
		return nil, err
	}

	return &pagestem.ExtractResult{
		Title:       strings.TrimSpace(result.Metadata.Title),
		ContentHTML: contentHTML,
	}, nil
}

// renderChildren renders the children of n; the content node itself is a
// synthetic wrapper.
func renderChildren(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
