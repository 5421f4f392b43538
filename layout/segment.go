// Package layout discovers the repeating skeleton shared by a corpus of
// pages and tells the sections that vary from page to page apart from the
// boilerplate that does not.
package layout

import (
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/pagestem"
	"golang.org/x/net/html"
)

// blockTags are the elements that start a new text block.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"center": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tbody": true, "td": true, "tfoot": true, "th": true, "thead": true,
	"tr": true, "ul": true,
}

// skipTags hold no visible text.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
}

// keyAttrs are the attributes that distinguish otherwise identical blocks.
var keyAttrs = []string{"id", "class", "align"}

// RootPath is the path of text sitting directly in <body>.
const RootPath = "body"

// RootXPath selects the content of the RootPath section: the non-blank
// text and inline children of <body>, leaving out every element that
// forms a section of its own.
var RootXPath = rootXPath()

func rootXPath() string {
	var tests []string
	for _, tag := range slices.Sorted(maps.Keys(blockTags)) {
		tests = append(tests, "self::"+tag)
	}
	for _, tag := range slices.Sorted(maps.Keys(skipTags)) {
		tests = append(tests, "self::"+tag)
	}
	return "//body/node()[self::text() or self::*][not(" + strings.Join(tests, " or ") + ")][normalize-space()]"
}

// Segment reduces a page to its text blocks. Each block carries the path of
// block-level elements enclosing it, below <body>, with each step written as
// the tag name followed by ":attr=value" for its key attributes.
func Segment(id, markup string) (pagestem.LayoutPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return pagestem.LayoutPage{}, pagestem.Errorf(pagestem.EINVALID, "failed to parse HTML: %v", err)
	}

	page := pagestem.LayoutPage{
		ID:    id,
		Title: normalizeSpace(doc.Find("title").First().Text()),
	}
	s := &segmenter{page: &page}
	doc.Find("body").First().Contents().Each(func(_ int, sel *goquery.Selection) {
		s.walk(sel.Get(0), nil)
	})
	s.flush(nil)
	return page, nil
}

type segmenter struct {
	page *pagestem.LayoutPage
	text strings.Builder
}

func (s *segmenter) walk(n *html.Node, path []string) {
	switch n.Type {
	case html.TextNode:
		s.text.WriteString(n.Data)
		s.text.WriteByte(' ')
		return
	case html.ElementNode:
	default:
		return
	}
	if skipTags[n.Data] {
		return
	}
	if n.Data == "br" {
		s.text.WriteByte(' ')
		return
	}
	if !blockTags[n.Data] {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			s.walk(c, path)
		}
		return
	}

	s.flush(path)
	inner := append(path[:len(path):len(path)], step(n))
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c, inner)
	}
	s.flush(inner)
}

// flush closes the pending text run as a block at path.
func (s *segmenter) flush(path []string) {
	text := normalizeSpace(s.text.String())
	s.text.Reset()
	if text == "" {
		return
	}
	p := RootPath
	if len(path) > 0 {
		p = strings.Join(path, "/")
	}
	s.page.Blocks = append(s.page.Blocks, pagestem.Block{
		Path:   p,
		Text:   text,
		Weight: utf8.RuneCountInString(text),
	})
}

func step(n *html.Node) string {
	var b strings.Builder
	b.WriteString(n.Data)
	for _, key := range keyAttrs {
		for _, a := range n.Attr {
			if a.Key != key {
				continue
			}
			v := strings.ToLower(strings.TrimSpace(a.Val))
			if v == "" || strings.ContainsAny(v, `/:="`) {
				continue
			}
			b.WriteString(":" + key + "=" + v)
		}
	}
	return b.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
