package layout

import "github.com/fwojciec/pagestem"

// Identify finds the pattern in set that best fits page. A pattern is a
// candidate when the page's fingerprint is at least threshold similar to
// the pattern's sections. Each section receives the page blocks aligned
// with it; in strict mode a section left without blocks rejects the
// pattern.
func Identify(set *pagestem.PatternSet, page pagestem.LayoutPage, threshold float64, strict bool) (*pagestem.LayoutMatch, bool) {
	if set == nil {
		return nil, false
	}
	runs := fingerprint(page)
	sigs := signatures(runs)

	var best *pagestem.LayoutMatch
	for _, pat := range set.Patterns {
		psigs := make([]uint64, len(pat.Sections))
		for i, s := range pat.Sections {
			psigs[i] = signature(s.Path)
		}
		score := similarity(psigs, sigs)
		if score < threshold || (best != nil && score <= best.Score) {
			continue
		}
		m := &pagestem.LayoutMatch{Pattern: pat, Score: score}
		ok := true
		for s, j := range align(psigs, sigs) {
			sm := pagestem.SectionMatch{Section: s}
			if j >= 0 {
				sm.Blocks = runs[j].blocks
			}
			if strict && len(sm.Blocks) == 0 {
				ok = false
				break
			}
			m.Sections = append(m.Sections, sm)
		}
		if ok {
			best = m
		}
	}
	return best, best != nil
}

// Classify assigns a role to every section of a match. The pattern's title
// section becomes the title. Sections varying at least DiffThreshold become
// text: main text when they follow the title section and weigh at least
// MainThreshold, secondary text otherwise. Everything else is boilerplate.
func Classify(m *pagestem.LayoutMatch, opts pagestem.ClusterOptions) []pagestem.Assignment {
	if m == nil || m.Pattern == nil {
		return nil
	}
	pat := m.Pattern
	var out []pagestem.Assignment
	for _, sm := range m.Sections {
		sect := pat.Sections[sm.Section]
		a := pagestem.Assignment{Section: sm.Section, Path: sect.Path}
		switch {
		case sm.Section == pat.TitleSection:
			a.Field, a.Role = "title", pagestem.RoleTitle
		case sect.DiffScore >= opts.DiffThreshold:
			a.Field, a.Role = pagestem.FieldText, pagestem.RoleSub
			if pat.TitleSection < sm.Section && sect.MainScore >= opts.MainThreshold {
				a.Role = pagestem.RoleMain
			}
		default:
			continue
		}
		out = append(out, a)
	}
	return out
}
