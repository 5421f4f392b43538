package pagestem

// ExtractResult holds the content a fallback extractor found on a page.
type ExtractResult struct {
	Title       string
	ContentHTML string
}

// Extractor guesses the main content of a single page without templates.
// It is used for pages no discovered layout pattern matches.
type Extractor interface {
	Extract(html string) (*ExtractResult, error)
}

// Converter converts extracted HTML fields to Markdown.
type Converter interface {
	Convert(html string) (string, error)
}

// PageConverter is a Converter that can resolve relative links against the
// address of the page the markup came from.
type PageConverter interface {
	Converter
	ConvertPage(html, pageURL string) (string, error)
}
