package pagestem

// Extraction is the outcome of applying one rule group to one page.
//
// Values are accumulated per group attempt and are only meaningful when OK
// reports true; a failed attempt is discarded wholesale.
type Extraction struct {
	Group int

	// Fields maps field name to the serialized value: plain text for
	// text-flavored rules, markup for html-flavored rules.
	Fields map[string]string

	// Literal marks fields whose value came from a non-structural match
	// (an attribute or a scalar expression) and was assigned verbatim.
	Literal map[string]bool

	// Matched lists fields with at least one matching rule.
	Matched []string

	// Unmatched lists optional fields that found nothing.
	Unmatched []string

	// Failed lists required fields that found nothing.
	Failed []string

	// Remainder is the page markup left after every claimed node was removed.
	Remainder string

	// Detached counts nodes removed from the tree; SkippedDetach counts
	// claimed nodes that were already outside the tree when their turn came.
	Detached      int
	SkippedDetach int
}

// OK reports whether every required rule of the group matched.
func (e *Extraction) OK() bool {
	return e != nil && len(e.Failed) == 0
}

// TemplateMatcher applies rule groups to HTML pages.
type TemplateMatcher interface {
	// Match evaluates the group's structural rules against html. A group
	// whose required rules do not all match yields an Extraction with
	// OK() == false; an error is returned only for unusable input.
	Match(group *RuleGroup, html string) (*Extraction, error)
}

// Evaluator evaluates computed-rule expressions against a record.
type Evaluator interface {
	Evaluate(expr string, rec Record) (string, error)
}

// Stats counts record outcomes for one pipeline stage.
type Stats struct {
	Seen           int
	Skipped        int
	AlreadyMatched int
	Extracted      int
	Unextracted    int
	Redirected     int
	Synthesized    int
	Unresolved     int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Seen += other.Seen
	s.Skipped += other.Skipped
	s.AlreadyMatched += other.AlreadyMatched
	s.Extracted += other.Extracted
	s.Unextracted += other.Unextracted
	s.Redirected += other.Redirected
	s.Synthesized += other.Synthesized
	s.Unresolved += other.Unresolved
}
