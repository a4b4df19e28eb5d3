package resolver

import (
	"cmp"
	"slices"

	"git.home.luguber.info/inful/docmigrate/internal/markdown"
)

// sourceMap translates offsets in embed-expanded text back to the body that
// was expanded. Offsets inside an expansion map to the start of its embed.
type sourceMap []markdown.Edit

func newSourceMap(edits []markdown.Edit) sourceMap {
	if len(edits) == 0 {
		return nil
	}
	m := slices.Clone(edits)
	slices.SortFunc(m, func(a, b markdown.Edit) int { return cmp.Compare(a.Start, b.Start) })
	return m
}

func (m sourceMap) original(offset int) int {
	delta := 0
	for _, e := range m {
		start := e.Start + delta
		if offset < start {
			break
		}
		if offset < start+len(e.Replacement) {
			return e.Start
		}
		delta += len(e.Replacement) - (e.End - e.Start)
	}
	return offset - delta
}
