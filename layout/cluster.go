package layout

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/pagestem"
)

// run is a maximal sequence of consecutive blocks sharing one path.
type run struct {
	sig    uint64
	path   string
	blocks []pagestem.Block
}

// fingerprint collapses a page's blocks into runs.
func fingerprint(page pagestem.LayoutPage) []run {
	var runs []run
	for _, b := range page.Blocks {
		if n := len(runs); n > 0 && runs[n-1].path == b.Path {
			runs[n-1].blocks = append(runs[n-1].blocks, b)
			continue
		}
		runs = append(runs, run{sig: signature(b.Path), path: b.Path, blocks: []pagestem.Block{b}})
	}
	return runs
}

func signature(path string) uint64 {
	return xxhash.Sum64String(path)
}

func signatures(runs []run) []uint64 {
	sigs := make([]uint64, len(runs))
	for i, r := range runs {
		sigs[i] = r.sig
	}
	return sigs
}

// lcsTable returns the dynamic programming table of the longest common
// subsequence of a and b.
func lcsTable(a, b []uint64) [][]int {
	t := make([][]int, len(a)+1)
	for i := range t {
		t[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				t[i][j] = t[i+1][j+1] + 1
			} else {
				t[i][j] = max(t[i+1][j], t[i][j+1])
			}
		}
	}
	return t
}

// align pairs each element of a with the index of the element of b it is
// matched to in a longest common subsequence, or -1.
func align(a, b []uint64) []int {
	t := lcsTable(a, b)
	pairs := make([]int, len(a))
	for i := range pairs {
		pairs[i] = -1
	}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			pairs[i] = j
			i++
			j++
		case t[i+1][j] >= t[i][j+1]:
			i++
		default:
			j++
		}
	}
	return pairs
}

// lcs returns the longest common subsequence of a and b.
func lcs(a, b []uint64) []uint64 {
	var out []uint64
	for i, j := range align(a, b) {
		if j >= 0 {
			out = append(out, a[i])
		}
	}
	return out
}

// similarity is 2·|LCS| / (|a| + |b|).
func similarity(a, b []uint64) float64 {
	if len(a)+len(b) == 0 {
		return 0
	}
	return 2 * float64(lcsTable(a, b)[0][0]) / float64(len(a)+len(b))
}

type cluster struct {
	rep     []uint64
	members []member
}

type member struct {
	page pagestem.LayoutPage
	runs []run
}

// Discover groups pages by structural similarity and derives one pattern
// per cluster. A page joins the first cluster whose representative is at
// least ClusterThreshold similar to it. Clusters scoring below
// ScoreThreshold are dropped.
func Discover(pages []pagestem.LayoutPage, opts pagestem.ClusterOptions) *pagestem.PatternSet {
	var clusters []*cluster
	for _, p := range pages {
		runs := fingerprint(p)
		if len(runs) == 0 {
			continue
		}
		sigs := signatures(runs)
		var home *cluster
		for _, c := range clusters {
			if similarity(c.rep, sigs) >= opts.ClusterThreshold {
				home = c
				break
			}
		}
		if home == nil {
			home = &cluster{rep: sigs}
			clusters = append(clusters, home)
		}
		home.members = append(home.members, member{page: p, runs: runs})
	}

	set := &pagestem.PatternSet{}
	for _, c := range clusters {
		pat := c.pattern(opts)
		if pat == nil || pat.Score < opts.ScoreThreshold {
			continue
		}
		set.Patterns = append(set.Patterns, pat)
	}
	return set
}

func (c *cluster) pattern(opts pagestem.ClusterOptions) *pagestem.Pattern {
	common := signatures(c.members[0].runs)
	for _, m := range c.members[1:] {
		common = lcs(common, signatures(m.runs))
	}
	if len(common) == 0 {
		return nil
	}

	// texts[s][k] is the text of section s on member k.
	texts := make([][]string, len(common))
	weights := make([]float64, len(common))
	titles := make([]float64, len(common))
	paths := make([]string, len(common))
	for _, m := range c.members {
		pairs := align(common, signatures(m.runs))
		titleWords := words(m.page.Title)
		for s, j := range pairs {
			if j < 0 {
				texts[s] = append(texts[s], "")
				continue
			}
			r := m.runs[j]
			paths[s] = r.path
			text := runText(r)
			texts[s] = append(texts[s], text)
			weights[s] += float64(runWeight(r))
			titles[s] += dice(words(text), titleWords)
		}
	}

	n := float64(len(c.members))
	pat := &pagestem.Pattern{
		TitleSection: pagestem.NoSection,
		MainSection:  pagestem.NoSection,
	}
	best := 0.0
	var ids []string
	for s := range common {
		sect := pagestem.Section{
			Path:      paths[s],
			DiffScore: diffScore(texts[s]),
			MainScore: weights[s] / n,
		}
		pat.Sections = append(pat.Sections, sect)
		pat.Score += sect.DiffScore * sect.MainScore
		if t := titles[s] / n; t >= opts.TitleThreshold && t > best {
			best = t
			pat.TitleSection = s
		}
		ids = append(ids, paths[s])
	}
	pat.Score *= n
	pat.ID = fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(ids, "\n")))
	for _, m := range c.members {
		pat.Pages = append(pat.Pages, m.page.ID)
	}
	return pat
}

func runText(r run) string {
	parts := make([]string, len(r.blocks))
	for i, b := range r.blocks {
		parts[i] = b.Text
	}
	return strings.Join(parts, " ")
}

func runWeight(r run) int {
	w := 0
	for _, b := range r.blocks {
		w += b.Weight
	}
	return w
}

// diffScore is one minus the mean pairwise word-set Jaccard similarity of
// the texts. A single text does not vary.
func diffScore(texts []string) float64 {
	if len(texts) < 2 {
		return 0
	}
	sets := make([]map[string]bool, len(texts))
	for i, t := range texts {
		sets[i] = words(t)
	}
	var sum float64
	pairs := 0
	for i := range sets {
		for j := i + 1; j < len(sets); j++ {
			sum += jaccard(sets[i], sets[j])
			pairs++
		}
	}
	return 1 - sum/float64(pairs)
}

func words(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[w] = true
	}
	return set
}

func intersection(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}

func jaccard(a, b map[string]bool) float64 {
	union := len(a) + len(b) - intersection(a, b)
	if union == 0 {
		return 1
	}
	return float64(intersection(a, b)) / float64(union)
}

func dice(a, b map[string]bool) float64 {
	if len(a)+len(b) == 0 {
		return 0
	}
	return 2 * float64(intersection(a, b)) / float64(len(a)+len(b))
}
