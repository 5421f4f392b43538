// Package fs reads records from a directory tree and stores extracted
// records as Markdown files.
package fs

import (
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/pagestem"
)

// URLToPath converts a page URL to a relative file path.
// Example: https://example.com/docs/api/users → docs/api/users.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", pagestem.Errorf(pagestem.EINVALID, "invalid URL %q: %v", rawURL, err)
	}

	path := u.Path

	// Handle root or trailing slash → index.md
	if path == "" || path == "/" {
		return "index.md", nil
	}

	path = strings.TrimPrefix(path, "/")

	if strings.HasSuffix(path, "/") {
		return path + "index.md", nil
	}

	// Pages saved from disk keep their extension in the path.
	for _, ext := range []string{".html", ".htm", ".xhtml"} {
		if strings.HasSuffix(path, ext) {
			path = strings.TrimSuffix(path, ext)
			break
		}
	}
	return path + ".md", nil
}

// FormatRecord formats a record as Markdown with YAML frontmatter. The body
// is read from the first non-empty field of bodyFields.
func FormatRecord(rec pagestem.Record, bodyFields []string, now time.Time) string {
	var body string
	for _, f := range bodyFields {
		if body = rec.String(f); body != "" {
			break
		}
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(rec.URL())
	if title := rec.String("title"); title != "" {
		b.WriteString("\ntitle: ")
		b.WriteString(quote(title))
	}
	if desc := rec.String("description"); desc != "" {
		b.WriteString("\ndescription: ")
		b.WriteString(quote(desc))
	}
	b.WriteString("\nextracted: ")
	b.WriteString(now.Format("2006-01-02"))
	b.WriteString("\n---\n\n")
	b.WriteString(body)
	return b.String()
}

// quote wraps values YAML would otherwise misread.
func quote(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if strings.ContainsAny(s, `:#"'[]{}&*!|>%@`+"`") {
		return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
	}
	return s
}
