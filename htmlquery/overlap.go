package htmlquery

import "github.com/fwojciec/pagestem"

// Match is a node claimed by a rule, together with the rule's mode.
type Match struct {
	Mode pagestem.Mode
	Node *Node
}

// Reduce merges candidates into existing so that no two retained nodes are
// the same node or stand in an ancestor/descendant relation. An ancestor
// replaces its descendants, and a node identical to a retained one replaces
// it. A candidate below a retained node is dropped.
//
// The retained set does not depend on the order of the inputs: it is always
// the set of outermost nodes. existing is modified in place.
func Reduce(existing []Match, candidates []Match) []Match {
	for _, c := range candidates {
		if covered(existing, c.Node) {
			continue
		}
		kept := existing[:0]
		for _, e := range existing {
			if c.Node.Same(e.Node) || c.Node.IsAncestorOf(e.Node) {
				continue
			}
			kept = append(kept, e)
		}
		existing = append(kept, c)
	}
	return existing
}

// covered reports whether n is a strict descendant of a retained node.
func covered(existing []Match, n *Node) bool {
	for _, e := range existing {
		if e.Node.IsAncestorOf(n) {
			return true
		}
	}
	return false
}
