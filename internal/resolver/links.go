package resolver

import (
	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/markdown"
)

// Link records one rewritten wikilink or expanded embed.
type Link struct {
	Source   string // docId of the document being written
	Target   string // docId of the resolved document, empty when unresolved
	Raw      string
	Strategy Strategy
	Line     int
	Embed    bool
}

// Stats counts what happened to one document.
type Stats struct {
	LinksRewritten  int
	LinksUnresolved int
	EmbedsExpanded  int
	EmbedsMissing   int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.LinksRewritten += o.LinksRewritten
	s.LinksUnresolved += o.LinksUnresolved
	s.EmbedsExpanded += o.EmbedsExpanded
	s.EmbedsMissing += o.EmbedsMissing
}

// Result is the outcome of Process.
type Result struct {
	Body       []byte
	Stats      Stats
	Unresolved []diagnostics.UnresolvedLink
	Links      []Link
}

// Process expands embeds in body and then rewrites its wikilinks. rec is the
// document being written; lineOffset is the number of lines that precede body
// in the source file, so reported line numbers point into the original file.
// Links that arrived through an embed are reported at the embed's position.
func (r *Resolver) Process(rec *index.FileRecord, body []byte, lineOffset int) (*Result, error) {
	res := &Result{}
	expanded, smap := r.expand(rec, body, res)
	var position func(int) (int, int)
	if smap != nil {
		orig := markdown.Parse(body)
		position = func(offset int) (int, int) { return orig.Position(smap.original(offset)) }
	}
	out, err := r.rewriteLinks(rec, expanded, lineOffset, position, res)
	if err != nil {
		return nil, err
	}
	res.Body = out
	return res, nil
}

// RewriteLinks rewrites the wikilinks of body without expanding embeds.
func (r *Resolver) RewriteLinks(rec *index.FileRecord, body []byte, lineOffset int) (*Result, error) {
	res := &Result{}
	out, err := r.rewriteLinks(rec, body, lineOffset, nil, res)
	if err != nil {
		return nil, err
	}
	res.Body = out
	return res, nil
}

// rewriteLinks reports positions through position, or against body itself
// when position is nil.
func (r *Resolver) rewriteLinks(rec *index.FileRecord, body []byte, lineOffset int, position func(int) (int, int), res *Result) ([]byte, error) {
	doc := markdown.Parse(body)
	if position == nil {
		position = doc.Position
	}
	return doc.Rewrite(func(p *markdown.Prose) []markdown.Edit {
		var edits []markdown.Edit
		for _, m := range wikilinkPattern.FindAllSubmatchIndex(doc.Text(p), -1) {
			start, end := p.Start+m[0], p.Start+m[1]
			if start > 0 && (body[start-1] == '!' || body[start-1] == '\\') {
				continue
			}
			abs := make([]int, len(m))
			for i, v := range m {
				abs[i] = v
				if v >= 0 {
					abs[i] = v + p.Start
				}
			}
			w := parseWikilink(body, abs)
			if w.Target == "" && w.Heading == "" {
				continue
			}
			line, col := position(start)
			repl := r.rewriteOne(rec, w, line+lineOffset, col, res)
			edits = append(edits, markdown.Edit{Start: start, End: end, Replacement: []byte(repl)})
		}
		return edits
	})
}

func (r *Resolver) rewriteOne(rec *index.FileRecord, w Wikilink, line, col int, res *Result) string {
	source := docID(rec)

	if w.Target == "" {
		text := w.Alias
		if text == "" {
			text = w.Heading
		}
		res.Stats.LinksRewritten++
		res.Links = append(res.Links, Link{Source: source, Target: source, Raw: w.Raw, Strategy: StrategyAnchor, Line: line})
		return markdownLink(text, anchor(w.Heading))
	}

	text := w.Alias
	if text == "" && w.Heading != "" {
		text = w.Heading
	}
	if text == "" {
		text = w.Target
	}

	target, strategy := r.Resolve(w.Target)
	if target == nil {
		res.Stats.LinksUnresolved++
		entry := diagnostics.UnresolvedLink{Original: "[[" + w.Inner() + "]]", Line: line, Column: col}
		if rec != nil {
			entry.Source = rec.SourcePath
		}
		res.Unresolved = append(res.Unresolved, entry)
		res.Links = append(res.Links, Link{Source: source, Raw: w.Raw, Strategy: StrategyUnresolved, Line: line})
		r.log.Debug("Unresolved wikilink", logfields.Path(entry.Source), logfields.Line(line), logfields.Column(col), logfields.Target(w.Target))
		return markdownLink(text, r.FallbackURL(w.Target, w.Heading))
	}

	target.AddReference()
	res.Stats.LinksRewritten++
	res.Links = append(res.Links, Link{Source: source, Target: target.DocID, Raw: w.Raw, Strategy: strategy, Line: line})
	return markdownLink(text, r.URL(target, w.Heading))
}

func docID(rec *index.FileRecord) string {
	if rec == nil {
		return ""
	}
	return rec.DocID
}
