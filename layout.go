package pagestem

// Block is one run of text on a page together with the structural path of
// the block-level elements enclosing it.
type Block struct {
	Path   string
	Text   string
	Weight int
}

// LayoutPage is a page reduced to its text blocks.
type LayoutPage struct {
	ID     string
	Title  string
	Blocks []Block
}

// Section is one slot of a discovered layout pattern.
type Section struct {
	Path string

	// DiffScore measures how much the section's text varies across the
	// cluster's pages, from 0 (identical) to 1 (nothing shared).
	DiffScore float64

	// MainScore is the mean text weight of the section across the cluster.
	MainScore float64
}

// NoSection marks an absent section index.
const NoSection = -1

// Pattern is the layout skeleton shared by a cluster of pages.
type Pattern struct {
	ID       string
	Sections []Section

	// TitleSection is the index of the section holding the page title, or
	// NoSection.
	TitleSection int

	// MainSection is always NoSection. Main content is chosen from score
	// thresholds alone.
	MainSection int

	Score float64
	Pages []string
}

// PatternSet is the set of patterns retained after discovery.
type PatternSet struct {
	Patterns []*Pattern
}

// SectionMatch holds the blocks of one page that fill a pattern section.
type SectionMatch struct {
	Section int
	Blocks  []Block
}

// LayoutMatch is the result of matching one page against a pattern set.
type LayoutMatch struct {
	Pattern  *Pattern
	Score    float64
	Sections []SectionMatch
}

// Role is the semantic role assigned to a matched section.
type Role string

// Section roles.
const (
	RoleTitle Role = "title"
	RoleMain  Role = "main"
	RoleSub   Role = "sub"
)

// Assignment binds a pattern section to an output field.
type Assignment struct {
	Section int
	Field   string
	Role    Role
	Path    string
}

// ClusterOptions tunes layout discovery and matching.
type ClusterOptions struct {
	ClusterThreshold float64 `yaml:"cluster_threshold"`
	TitleThreshold   float64 `yaml:"title_threshold"`
	ScoreThreshold   float64 `yaml:"score_threshold"`
	MatchThreshold   float64 `yaml:"match_threshold"`
	DiffThreshold    float64 `yaml:"diff_threshold"`
	MainThreshold    float64 `yaml:"main_threshold"`
	Strict           bool    `yaml:"strict"`
}

// DefaultClusterOptions returns the default discovery thresholds.
func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{
		ClusterThreshold: 0.97,
		TitleThreshold:   0.6,
		ScoreThreshold:   100,
		MatchThreshold:   0.8,
		DiffThreshold:    0.5,
		MainThreshold:    50,
		Strict:           true,
	}
}

// LayoutDiscoverer learns layout patterns from a corpus of pages.
type LayoutDiscoverer interface {
	Discover(pages []LayoutPage, opts ClusterOptions) (*PatternSet, error)
}
