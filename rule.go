package pagestem

import (
	"bufio"
	"sort"
	"strconv"
	"strings"
)

// Mode controls how the nodes matched by a rule are used.
type Mode int

// Rule modes.
const (
	ModeHTML Mode = iota
	ModeText
	ModeOptionalHTML
	ModeOptionalText
	ModeDelete
	ModeComputed
)

var modeNames = map[string]Mode{
	"html":         ModeHTML,
	"text":         ModeText,
	"optional":     ModeOptionalHTML,
	"optionalhtml": ModeOptionalHTML,
	"optionaltext": ModeOptionalText,
	"delete":       ModeDelete,
	"tal":          ModeComputed,
	"computed":     ModeComputed,
	"expr":         ModeComputed,
}

// ParseMode parses a mode keyword. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	m, ok := modeNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, Errorf(EINVALID, "unknown rule mode %q", s)
	}
	return m, nil
}

// String returns the canonical keyword for the mode.
func (m Mode) String() string {
	switch m {
	case ModeHTML:
		return "html"
	case ModeText:
		return "text"
	case ModeOptionalHTML:
		return "optionalhtml"
	case ModeOptionalText:
		return "optionaltext"
	case ModeDelete:
		return "delete"
	case ModeComputed:
		return "tal"
	}
	return "mode(" + strconv.Itoa(int(m)) + ")"
}

// Optional reports whether a rule in this mode may match nothing without
// failing its group.
func (m Mode) Optional() bool {
	return m == ModeOptionalHTML || m == ModeOptionalText
}

// IsText reports whether matched nodes are serialized as plain text.
func (m Mode) IsText() bool {
	return m == ModeText || m == ModeOptionalText
}

// TextVariant returns the text-flavored equivalent of the mode.
// Delete and computed modes are returned unchanged.
func (m Mode) TextVariant() Mode {
	switch m {
	case ModeHTML:
		return ModeText
	case ModeOptionalHTML:
		return ModeOptionalText
	}
	return m
}

// TextSuffix is the expression suffix that forces a text-flavored mode.
const TextSuffix = "/text()"

// Rule is one (mode, expression) pair.
type Rule struct {
	Mode Mode
	Expr string
}

// Normalize applies the text-suffix shorthand: an expression ending in
// "/text()" is stripped of the suffix and its mode becomes text-flavored.
func (r Rule) Normalize() Rule {
	expr := strings.TrimSpace(r.Expr)
	if r.Mode == ModeComputed || !strings.HasSuffix(strings.ToLower(expr), TextSuffix) {
		return Rule{Mode: r.Mode, Expr: expr}
	}
	return Rule{Mode: r.Mode.TextVariant(), Expr: expr[:len(expr)-len(TextSuffix)]}
}

// FieldRules is the ordered list of rules for one field.
type FieldRules struct {
	Field string
	Rules []Rule
}

// RuleGroup is a template: an ordered set of field rules that either all
// succeed together or are abandoned together.
type RuleGroup struct {
	Rank int

	// Path, if set, restricts the group to pages whose canonical URL equals it.
	Path string

	Fields []FieldRules
}

// Applies reports whether the group may be tried on a page at url.
func (g *RuleGroup) Applies(url string) bool {
	return g.Path == "" || g.Path == url
}

// Structural returns the field rules evaluated against the page tree.
func (g *RuleGroup) Structural() []FieldRules {
	return g.filter(func(m Mode) bool { return m != ModeComputed })
}

// Computed returns the field rules evaluated against the record.
func (g *RuleGroup) Computed() []FieldRules {
	return g.filter(func(m Mode) bool { return m == ModeComputed })
}

func (g *RuleGroup) filter(keep func(Mode) bool) []FieldRules {
	var out []FieldRules
	for _, fr := range g.Fields {
		var rules []Rule
		for _, r := range fr.Rules {
			if keep(r.Mode) {
				rules = append(rules, r)
			}
		}
		if len(rules) > 0 {
			out = append(out, FieldRules{Field: fr.Field, Rules: rules})
		}
	}
	return out
}

// Validate returns an error if the group has no fields or a field has no rules.
func (g *RuleGroup) Validate() error {
	if len(g.Fields) == 0 {
		return Errorf(EINVALID, "rule group %d has no fields", g.Rank)
	}
	for _, fr := range g.Fields {
		if fr.Field == "" {
			return Errorf(EINVALID, "rule group %d has a field without a name", g.Rank)
		}
		if len(fr.Rules) == 0 {
			return Errorf(EINVALID, "field %q in rule group %d has no rules", fr.Field, g.Rank)
		}
		for _, r := range fr.Rules {
			if strings.TrimSpace(r.Expr) == "" {
				return Errorf(EINVALID, "field %q in rule group %d has an empty expression", fr.Field, g.Rank)
			}
		}
	}
	return nil
}

// RuleEntry is one unparsed "key = value" rule entry.
type RuleEntry struct {
	Key   string
	Value string
}

// ParseRules parses rule configuration text. Each entry is a line of the
// form "key = value"; indented lines continue the previous value. Lines
// starting with '#' or ';' are comments.
func ParseRules(src string) ([]*RuleGroup, error) {
	var entries []RuleEntry
	scanner := bufio.NewScanner(strings.NewReader(src))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(entries) == 0 {
				return nil, Errorf(EINVALID, "line %d: continuation without a rule", lineNo)
			}
			entries[len(entries)-1].Value += "\n" + trimmed
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, Errorf(EINVALID, "line %d: expected \"field = mode expression\"", lineNo)
		}
		entries = append(entries, RuleEntry{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	if err := scanner.Err(); err != nil {
		return nil, Errorf(EINVALID, "read rules: %v", err)
	}
	return BuildRuleGroups(entries)
}

// BuildRuleGroups assembles ordered rule entries into rule groups sorted by
// rank. Field order within a group follows entry order.
func BuildRuleGroups(entries []RuleEntry) ([]*RuleGroup, error) {
	byRank := make(map[int]*RuleGroup)
	for _, e := range entries {
		rank, field, err := ParseRuleKey(e.Key)
		if err != nil {
			return nil, err
		}
		g, ok := byRank[rank]
		if !ok {
			g = &RuleGroup{Rank: rank}
			byRank[rank] = g
		}
		if field == "path" {
			g.Path = strings.TrimSpace(e.Value)
			continue
		}
		rules, err := ParseRuleValue(e.Value)
		if err != nil {
			return nil, Errorf(EINVALID, "rule %q: %s", e.Key, ErrorMessage(err))
		}
		appendFieldRules(g, field, rules)
	}

	groups := make([]*RuleGroup, 0, len(byRank))
	for _, g := range byRank {
		if err := g.Validate(); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Rank < groups[j].Rank })
	return groups, nil
}

func appendFieldRules(g *RuleGroup, field string, rules []Rule) {
	for i := range g.Fields {
		if g.Fields[i].Field == field {
			g.Fields[i].Rules = append(g.Fields[i].Rules, rules...)
			return
		}
	}
	g.Fields = append(g.Fields, FieldRules{Field: field, Rules: rules})
}

// ParseRuleKey splits a rule key into its group rank and field name.
// Accepted forms are "field", "field-N" and "N-field"; the rank defaults to 1.
func ParseRuleKey(key string) (rank int, field string, err error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, "", Errorf(EINVALID, "empty rule key")
	}
	if head, tail, ok := strings.Cut(key, "-"); ok {
		if n, err := strconv.Atoi(head); err == nil && tail != "" {
			return n, tail, nil
		}
	}
	if i := strings.LastIndexByte(key, '-'); i > 0 {
		if n, err := strconv.Atoi(key[i+1:]); err == nil {
			return n, key[:i], nil
		}
	}
	return 1, key, nil
}

// ParseRuleValue parses the value side of a rule entry. Each line is
// "[mode] expression"; a line without a mode keyword inherits the mode of the
// previous line, and the first line defaults to html.
func ParseRuleValue(value string) ([]Rule, error) {
	var rules []Rule
	mode := ModeHTML
	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		expr := line
		if word, rest, ok := strings.Cut(line, " "); ok {
			if m, err := ParseMode(word); err == nil {
				mode, expr = m, strings.TrimSpace(rest)
			}
		}
		if expr == "" {
			return nil, Errorf(EINVALID, "missing expression after mode %q", mode)
		}
		rules = append(rules, Rule{Mode: mode, Expr: expr})
	}
	if len(rules) == 0 {
		return nil, Errorf(EINVALID, "no expressions")
	}
	return rules, nil
}

// ParseRule parses a single "key = value" rule line, as accepted on the
// command line.
func ParseRule(line string) (RuleEntry, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok || strings.TrimSpace(key) == "" || strings.TrimSpace(value) == "" {
		return RuleEntry{}, Errorf(EINVALID, "rule %q: expected \"field = mode expression\"", line)
	}
	return RuleEntry{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)}, nil
}
