package htmlquery

import (
	"strings"
	"sync"

	"github.com/antchfx/xpath"
	"github.com/fwojciec/pagestem"
)

// Ensure Matcher implements pagestem.TemplateMatcher.
var _ pagestem.TemplateMatcher = (*Matcher)(nil)

// Matcher applies rule groups to pages. Expressions are compiled once and
// cached; a Matcher is safe for concurrent use.
type Matcher struct {
	mu    sync.Mutex
	exprs map[string]*xpath.Expr
}

// NewMatcher returns a Matcher with every structural expression of groups
// compiled. An invalid expression is reported with code EINVALID.
func NewMatcher(groups []*pagestem.RuleGroup) (*Matcher, error) {
	m := &Matcher{exprs: make(map[string]*xpath.Expr)}
	for _, g := range groups {
		for _, fr := range g.Structural() {
			for _, r := range fr.Rules {
				if _, err := m.compile(r.Normalize().Expr); err != nil {
					return nil, pagestem.Errorf(pagestem.EINVALID, "rule group %d field %q: %s",
						g.Rank, fr.Field, pagestem.ErrorMessage(err))
				}
			}
		}
	}
	return m, nil
}

func (m *Matcher) compile(expr string) (*xpath.Expr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.exprs[expr]; ok {
		return e, nil
	}
	e, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	m.exprs[expr] = e
	return e, nil
}

type claim struct {
	field   string
	matches []Match
}

// Match evaluates the structural rules of group against markup.
//
// Every field's matches are collected without touching the tree. Only when
// no required rule came up empty are the claimed nodes removed and the
// field values serialized, so a failed group leaves nothing behind.
func (m *Matcher) Match(group *pagestem.RuleGroup, markup string) (*pagestem.Extraction, error) {
	doc, err := Parse(markup)
	if err != nil {
		return nil, err
	}

	ext := &pagestem.Extraction{
		Group:   group.Rank,
		Fields:  make(map[string]string),
		Literal: make(map[string]bool),
	}

	var claims []claim
	for _, fr := range group.Structural() {
		c := claim{field: fr.Field}
		failed, skipped := false, false
		for _, r := range fr.Rules {
			r = r.Normalize()
			expr, err := m.compile(r.Expr)
			if err != nil {
				return nil, err
			}
			nodes := doc.Query(expr)
			if len(nodes) == 0 {
				if r.Mode.Optional() {
					skipped = true
				} else {
					failed = true
				}
				continue
			}
			candidates := make([]Match, len(nodes))
			for i, n := range nodes {
				candidates[i] = Match{Mode: r.Mode, Node: n}
			}
			c.matches = Reduce(c.matches, candidates)
		}
		switch {
		case failed:
			ext.Failed = append(ext.Failed, fr.Field)
		case len(c.matches) > 0:
			ext.Matched = append(ext.Matched, fr.Field)
		case skipped:
			ext.Unmatched = append(ext.Unmatched, fr.Field)
		}
		if len(c.matches) > 0 {
			claims = append(claims, c)
		}
	}
	if len(ext.Failed) > 0 {
		return ext, nil
	}

	for _, c := range claims {
		for _, match := range c.matches {
			switch {
			case match.Node.Kind == LiteralNode:
			case doc.Detach(match.Node):
				ext.Detached++
			default:
				ext.SkippedDetach++
			}
		}
	}

	for _, c := range claims {
		serialize(ext, c)
	}
	ext.Remainder = doc.Render()
	return ext, nil
}

// serialize accumulates the value of one field. Text pieces are joined with
// a single space, markup is concatenated, deleted nodes contribute nothing
// and literal values overwrite whatever was accumulated.
func serialize(ext *pagestem.Extraction, c claim) {
	var (
		b       strings.Builder
		started bool
	)
	for _, match := range c.matches {
		if match.Mode == pagestem.ModeDelete {
			continue
		}
		if match.Node.Kind == LiteralNode {
			b.Reset()
			b.WriteString(match.Node.Literal)
			started = true
			ext.Literal[c.field] = true
			continue
		}
		if match.Mode.IsText() {
			if started && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(Text(match.Node))
		} else {
			b.WriteString(HTML(match.Node))
		}
		started = true
	}
	if started {
		ext.Fields[c.field] = b.String()
	}
}
