// Package readability guesses the main content of pages no layout pattern
// covers, using go-readability.
package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/pagestem"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements pagestem.Extractor at compile time.
var _ pagestem.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct {
	// BaseURL, when set, is used to resolve relative links and images.
	BaseURL *url.URL
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content. A page without
// recognizable content is reported as ENOMATCH.
func (e *Extractor) Extract(rawHTML string) (*pagestem.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, pagestem.Errorf(pagestem.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), e.BaseURL)
	if err != nil {
		return nil, pagestem.Errorf(pagestem.ENOMATCH, "no main content: %v", err)
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return nil, pagestem.Errorf(pagestem.ENOMATCH, "no main content")
	}

	return &pagestem.ExtractResult{
		Title:       strings.TrimSpace(article.Title),
		ContentHTML: article.Content,
	}, nil
}
