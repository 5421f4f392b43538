package pagestem

import "strings"

// Fallback extractor names for pages no layout pattern matches.
const (
	FallbackNone        = ""
	FallbackTrafilatura = "trafilatura"
	FallbackReadability = "readability"
)

// Config is the extraction configuration, loaded once before any record is
// processed.
type Config struct {
	// ContentField names the HTML-bearing record field.
	ContentField string

	// RemainderField receives the leftover markup and marks a record as
	// processed.
	RemainderField string

	// Filter lets extraction run on records that already carry the
	// remainder marker, and suppresses writing it.
	Filter bool

	// Groups are the explicit rule groups, sorted by rank. When empty the
	// pipeline discovers rules from the corpus.
	Groups []*RuleGroup

	// Computed holds stage-level computed rules, assigned outright after a
	// successful extraction.
	Computed []ComputedRule

	Link     *LinkConfig
	Auto     AutoConfig
	Markdown []string
}

// ComputedRule assigns the result of an expression to a field.
type ComputedRule struct {
	Field string
	Expr  string
}

// LinkConfig redirects fields extracted from repeated blocks on a summary
// page to the records the blocks link to.
type LinkConfig struct {
	// Repeat selects each repeated block on the current page.
	Repeat string

	// URL selects, within a block, the address of the linked page.
	URL string

	// URLPrefix is the site URL of synthesized records. It defaults to the
	// site URL of the summary page.
	URLPrefix string

	// GenerateMissing synthesizes a record for links that do not resolve to
	// a record in the stream.
	GenerateMissing bool

	// Filter applies fields to targets that already carry the remainder
	// marker. Config.Filter has the same effect.
	Filter bool
}

// AutoConfig controls layout discovery.
type AutoConfig struct {
	Disable  bool
	Options  ClusterOptions
	Fallback string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		ContentField:   FieldContent,
		RemainderField: FieldTemplate,
		Auto: AutoConfig{
			Options: DefaultClusterOptions(),
		},
	}
}

// Validate returns an error if the configuration cannot be used.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ContentField) == "" {
		return Errorf(EINVALID, "content field required")
	}
	if strings.TrimSpace(c.RemainderField) == "" {
		return Errorf(EINVALID, "remainder field required")
	}
	for _, g := range c.Groups {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	for _, cr := range c.Computed {
		if cr.Field == "" || strings.TrimSpace(cr.Expr) == "" {
			return Errorf(EINVALID, "computed rule requires a field and an expression")
		}
	}
	if c.Link != nil {
		if strings.TrimSpace(c.Link.Repeat) == "" || strings.TrimSpace(c.Link.URL) == "" {
			return Errorf(EINVALID, "link redirection requires repeat and url expressions")
		}
		if len(c.Groups) == 0 {
			return Errorf(EINVALID, "link redirection requires rule groups")
		}
	}
	switch c.Auto.Fallback {
	case FallbackNone, FallbackTrafilatura, FallbackReadability:
	default:
		return Errorf(EINVALID, "unknown fallback extractor %q", c.Auto.Fallback)
	}
	o := c.Auto.Options
	for name, v := range map[string]float64{
		"cluster_threshold": o.ClusterThreshold,
		"title_threshold":   o.TitleThreshold,
		"match_threshold":   o.MatchThreshold,
		"diff_threshold":    o.DiffThreshold,
	} {
		if v < 0 || v > 1 {
			return Errorf(EINVALID, "%s must be between 0 and 1, got %v", name, v)
		}
	}
	if o.ScoreThreshold < 0 || o.MainThreshold < 0 {
		return Errorf(EINVALID, "score and main thresholds must not be negative")
	}
	return nil
}
