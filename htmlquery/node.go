package htmlquery

import "golang.org/x/net/html"

// NodeKind tells structural tree nodes apart from literal values.
type NodeKind int

const (
	// StructuralNode is an element, text or comment node of the page tree.
	StructuralNode NodeKind = iota

	// LiteralNode is a string result: an attribute value or a scalar
	// expression result. It has no place in the tree.
	LiteralNode
)

// Node is one result of evaluating an expression against a page.
type Node struct {
	Kind NodeKind

	// Elem is set for structural nodes.
	Elem *html.Node

	// Literal is set for literal nodes.
	Literal string

	// owner and attr identify attribute literals so the same attribute
	// reached by two expressions is recognized as one node.
	owner *html.Node
	attr  string
}

// Structural wraps a tree node.
func Structural(n *html.Node) *Node {
	return &Node{Kind: StructuralNode, Elem: n}
}

// Literal wraps a string value.
func Literal(s string) *Node {
	return &Node{Kind: LiteralNode, Literal: s}
}

func attribute(owner *html.Node, name, value string) *Node {
	return &Node{Kind: LiteralNode, Literal: value, owner: owner, attr: name}
}

// Same reports whether n and o denote the same node.
func (n *Node) Same(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil || n.Kind != o.Kind {
		return false
	}
	if n.Kind == StructuralNode {
		return n.Elem == o.Elem
	}
	return n.owner != nil && n.owner == o.owner && n.attr == o.attr
}

// IsAncestorOf reports whether n is a strict ancestor of o in the tree.
// Literal nodes have no ancestors and are ancestors of nothing.
func (n *Node) IsAncestorOf(o *Node) bool {
	if n.Kind != StructuralNode || o.Kind != StructuralNode {
		return false
	}
	for p := o.Elem.Parent; p != nil; p = p.Parent {
		if p == n.Elem {
			return true
		}
	}
	return false
}
