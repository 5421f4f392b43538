// Package pagestem extracts structured fields (title, description, body text)
// from HTML pages. Fields are found either with explicit XPath rules grouped
// into ranked templates, or by discovering the layout skeleton a set of pages
// shares and separating boilerplate from unique content.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., htmlquery/, sqlite/, yaml/).
package pagestem
