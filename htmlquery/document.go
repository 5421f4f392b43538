// Package htmlquery implements the rule engine on top of antchfx/htmlquery:
// pages are parsed with golang.org/x/net/html, rules are XPath expressions,
// and extraction removes claimed nodes from the tree so the leftover markup
// can be recorded.
package htmlquery

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"github.com/fwojciec/pagestem"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	reDocumentTag = regexp.MustCompile(`(?i)<(html|body|head)[\s>/]`)
	reLeadingTag  = regexp.MustCompile(`^\s*<([a-zA-Z][a-zA-Z0-9]*)`)
)

// fragmentContext maps elements the parser only accepts inside a specific
// parent to that parent.
var fragmentContext = map[string]string{
	"tr":       "tbody",
	"td":       "tr",
	"th":       "tr",
	"tbody":    "table",
	"thead":    "table",
	"tfoot":    "table",
	"caption":  "table",
	"colgroup": "table",
	"col":      "colgroup",
	"option":   "select",
	"optgroup": "select",
}

// Document is a parsed page.
type Document struct {
	root     *html.Node
	fragment bool
}

// Parse parses markup into a Document. Input without an <html>, <head> or
// <body> tag is treated as a fragment: Render then returns only the
// content of the synthesized body. A fragment opening with a table row,
// cell or select option is parsed in the context of its required parent so
// the element survives.
func Parse(markup string) (*Document, error) {
	fragment := !reDocumentTag.MatchString(markup)
	if fragment {
		if sm := reLeadingTag.FindStringSubmatch(markup); sm != nil {
			if parent, ok := fragmentContext[strings.ToLower(sm[1])]; ok {
				return parseInContext(markup, parent)
			}
		}
	}
	root, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, pagestem.Errorf(pagestem.EINVALID, "failed to parse HTML: %v", err)
	}
	return &Document{root: root, fragment: fragment}, nil
}

// parseInContext parses markup as the content of a parent element and
// places the resulting nodes directly under the body of a new document.
func parseInContext(markup, parent string) (*Document, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: parent, DataAtom: atom.Lookup([]byte(parent))}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, pagestem.Errorf(pagestem.EINVALID, "failed to parse HTML: %v", err)
	}
	root := &html.Node{Type: html.DocumentNode}
	doc := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	head := &html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	root.AppendChild(doc)
	doc.AppendChild(head)
	doc.AppendChild(body)
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return &Document{root: root, fragment: true}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Query evaluates a compiled expression against the whole document.
func (d *Document) Query(expr *xpath.Expr) []*Node {
	return Evaluate(d.root, expr)
}

// Evaluate evaluates a compiled expression with top as the context node.
// Node-set results become structural nodes, except attributes, which become
// literal nodes. Scalar results become a single literal node; an empty
// string or false yields nothing.
func Evaluate(top *html.Node, expr *xpath.Expr) []*Node {
	switch v := expr.Evaluate(htmlquery.CreateXPathNavigator(top)).(type) {
	case *xpath.NodeIterator:
		var nodes []*Node
		for v.MoveNext() {
			nav, ok := v.Current().(*htmlquery.NodeNavigator)
			if !ok {
				continue
			}
			if nav.NodeType() == xpath.AttributeNode {
				nodes = append(nodes, attribute(nav.Current(), nav.LocalName(), nav.Value()))
				continue
			}
			nodes = append(nodes, Structural(nav.Current()))
		}
		return nodes
	case string:
		if v == "" {
			return nil
		}
		return []*Node{Literal(v)}
	case float64:
		return []*Node{Literal(strconv.FormatFloat(v, 'f', -1, 64))}
	case bool:
		if !v {
			return nil
		}
		return []*Node{Literal("true")}
	}
	return nil
}

// Detach removes a structural node from the document. It returns false,
// leaving the tree untouched, for literal nodes and for nodes that are no
// longer part of the document, either removed directly or sitting inside a
// removed subtree.
func (d *Document) Detach(n *Node) bool {
	if n.Kind != StructuralNode || n.Elem == d.root || !d.contains(n.Elem) {
		return false
	}
	n.Elem.Parent.RemoveChild(n.Elem)
	return true
}

func (d *Document) contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// Render serializes what is left of the document.
func (d *Document) Render() string {
	if !d.fragment {
		return render(d.root)
	}
	body := findElement(d.root, "body")
	if body == nil {
		return render(d.root)
	}
	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// Text returns the text content of a node: the concatenated descendant
// text for structural nodes, the value itself for literals.
func Text(n *Node) string {
	if n.Kind == LiteralNode {
		return n.Literal
	}
	return htmlquery.InnerText(n.Elem)
}

// HTML returns the markup of a node including the node itself.
func HTML(n *Node) string {
	if n.Kind == LiteralNode {
		return n.Literal
	}
	return htmlquery.OutputHTML(n.Elem, true)
}

// Attr returns the value of an attribute of a structural node.
func Attr(n *Node, name string) (string, bool) {
	if n.Kind != StructuralNode {
		return "", false
	}
	for _, a := range n.Elem.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func render(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

var reEXSLTTest = regexp.MustCompile(`re:test\(\s*([^,()]+?)\s*,\s*(["'])(.*?)["']\s*(?:,\s*["']([a-z]*)["']\s*)?\)`)

// Compile compiles an XPath expression. Calls to the EXSLT regular
// expression function re:test(value, "pattern", "flags") are accepted and
// rewritten to matches(value, "(?flags)pattern").
func Compile(expr string) (*xpath.Expr, error) {
	rewritten := reEXSLTTest.ReplaceAllStringFunc(expr, func(m string) string {
		sm := reEXSLTTest.FindStringSubmatch(m)
		pattern := sm[3]
		if flags := strings.ReplaceAll(sm[4], "g", ""); flags != "" {
			pattern = "(?" + flags + ")" + pattern
		}
		return fmt.Sprintf("matches(%s,%s%s%s)", sm[1], sm[2], pattern, sm[2])
	})
	compiled, err := xpath.Compile(rewritten)
	if err != nil {
		return nil, pagestem.Errorf(pagestem.EINVALID, "invalid expression %q: %v", expr, err)
	}
	return compiled, nil
}

var reSegmentAttr = regexp.MustCompile(`:([^/:=]+)=([^/:]*)`)

// ToXPath converts a layout section path such as
// "div:class=section1/p:align=center/span" into an XPath expression. Each
// attribute predicate becomes a case-insensitive anchored regular
// expression test, every step uses the descendant axis, and the whole path
// is anchored at the document root:
//
//	//div[matches(@class,"(?i)^section1$")]//p[matches(@align,"(?i)^center$")]//span
func ToXPath(path string) string {
	path = reSegmentAttr.ReplaceAllStringFunc(path, func(m string) string {
		sm := reSegmentAttr.FindStringSubmatch(m)
		return fmt.Sprintf(`[matches(@%s,"(?i)^%s$")]`, sm[1], regexp.QuoteMeta(sm[2]))
	})
	return "//" + strings.ReplaceAll(path, "/", "//")
}
