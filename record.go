package pagestem

import (
	"context"
	"strings"
)

// Reserved record fields.
const (
	FieldPath     = "_path"
	FieldSiteURL  = "_site_url"
	FieldContent  = "_content"
	FieldText     = "text"
	FieldMimetype = "_mimetype"
	FieldTemplate = "_template"
	FieldTree     = "_tree"

	// FieldLastModified is the last modification date a sitemap gives for
	// a page, as written there.
	FieldLastModified = "_lastmod"
)

// Record is one page flowing through the pipeline. It is an open mapping of
// field names to values; extraction stages mutate it in place.
type Record map[string]any

// String returns the field as a string, or "" if it is absent or not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Has reports whether the field is present, regardless of its value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Path returns the site-relative path of the page.
func (r Record) Path() string {
	return r.String(FieldPath)
}

// SiteURL returns the base address of the site the page belongs to.
func (r Record) SiteURL() string {
	return r.String(FieldSiteURL)
}

// URL returns the canonical address of the page: the site URL and the path
// joined with exactly one slash.
func (r Record) URL() string {
	return JoinURL(r.SiteURL(), r.Path())
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// HTML returns the markup payload of the record and true when the record
// carries HTML. The payload is read from field, falling back to "text" when
// field is "_content" and empty. A record without a path, or whose mimetype
// is set to something other than an HTML type, carries no markup.
func (r Record) HTML(field string) (string, bool) {
	if !r.Has(FieldPath) {
		return "", false
	}
	if mt, ok := r[FieldMimetype].(string); ok && mt != "" && !IsHTMLMimetype(mt) {
		return "", false
	}
	content := r.String(field)
	if content == "" && field == FieldContent {
		content = r.String(FieldText)
	}
	if strings.TrimSpace(content) == "" {
		return "", false
	}
	return content, true
}

// IsHTMLMimetype reports whether mt names an HTML document type.
func IsHTMLMimetype(mt string) bool {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch mt {
	case "text/html", "text/xhtml", "application/xhtml+xml":
		return true
	}
	return false
}

// JoinURL joins a site URL and a site-relative path with exactly one slash.
func JoinURL(siteURL, path string) string {
	if siteURL == "" {
		return path
	}
	if path == "" {
		return siteURL
	}
	return strings.TrimRight(siteURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// RecordStore persists records with atomic semantics.
// Save stages a record; Commit makes staged records permanent;
// Abort discards them.
type RecordStore interface {
	Save(ctx context.Context, rec Record) error
	Commit() error
	Abort() error
}
