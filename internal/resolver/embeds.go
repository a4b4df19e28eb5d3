package resolver

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/docmigrate/internal/frontmatter"
	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/markdown"
	"git.home.luguber.info/inful/docmigrate/internal/naming"
)

// origin is the file whose text is being scanned for embeds. rec is nil for
// files reached through the relative-path fallback.
type origin struct {
	rec  *index.FileRecord
	path string
}

func (o origin) dir() string { return filepath.Dir(o.path) }

func (o origin) name() string {
	if o.rec != nil {
		return o.rec.SourceName
	}
	base := filepath.Base(o.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type expansion struct {
	top   *index.FileRecord
	res   *Result
	stack []string
	// edits applied to the top-level body, for mapping positions back.
	edits []markdown.Edit
}

// ExpandEmbeds replaces every ![[target#heading]] in body with the referenced
// content. Missing targets and sections become visible placeholders.
func (r *Resolver) ExpandEmbeds(rec *index.FileRecord, body []byte) ([]byte, Stats) {
	res := &Result{}
	out, _ := r.expand(rec, body, res)
	return out, res.Stats
}

func (r *Resolver) expand(rec *index.FileRecord, body []byte, res *Result) ([]byte, sourceMap) {
	if !bytes.Contains(body, []byte("![[")) {
		return body, nil
	}
	src := origin{rec: rec}
	if rec != nil {
		src.path = rec.SourcePath
	}
	x := &expansion{top: rec, res: res}
	if src.path != "" {
		x.stack = []string{stackKey(src.path, "")}
	}
	out := r.expandIn(x, src, body, 0)
	return out, newSourceMap(x.edits)
}

func (r *Resolver) expandIn(x *expansion, src origin, body []byte, depth int) []byte {
	doc := markdown.Parse(body)
	var applied []markdown.Edit
	out, err := doc.Rewrite(func(p *markdown.Prose) []markdown.Edit {
		var edits []markdown.Edit
		for _, m := range embedPattern.FindAllSubmatchIndex(doc.Text(p), -1) {
			abs := make([]int, len(m))
			for i, v := range m {
				abs[i] = v
				if v >= 0 {
					abs[i] = v + p.Start
				}
			}
			if abs[0] > 0 && body[abs[0]-1] == '\\' {
				continue
			}
			e := parseEmbed(body, abs)
			repl := r.expandOne(x, src, e, depth)
			edits = append(edits, markdown.Edit{Start: abs[0], End: abs[1], Replacement: []byte(repl)})
		}
		applied = append(applied, edits...)
		return edits
	})
	if err != nil {
		// Matches within disjoint prose spans cannot overlap.
		r.log.Error("Embed expansion failed", logfields.Path(src.path), logfields.Error(err))
		return body
	}
	if depth == 0 {
		x.edits = applied
	}
	return out
}

func (r *Resolver) expandOne(x *expansion, src origin, e Embed, depth int) string {
	if e.Target == "" && e.Heading == "" {
		return e.Raw
	}
	if asset := r.asset(e.Target); asset != nil {
		asset.AddReference()
		x.res.Stats.EmbedsExpanded++
		x.res.Links = append(x.res.Links, Link{Source: docID(x.top), Target: asset.DestPath(), Raw: e.Raw, Strategy: StrategyName, Embed: true})
		return markdownImage(assetAlt(e, asset), r.AssetURL(x.top, asset))
	}

	target, ok := r.embedTarget(src, e.Target)
	if !ok {
		r.log.Warning("Embed target not found", logfields.Path(src.path), logfields.Target(e.Target))
		return r.missing(x, e, "> **Missing embed: "+e.Target+"**")
	}

	key := stackKey(target.path, e.Heading)
	if slices.Contains(x.stack, key) {
		r.log.Warning("Embed cycle detected", logfields.Path(src.path), logfields.Target(e.display()))
		return r.missing(x, e, "> **Embed cycle: "+e.display()+"**")
	}
	if depth >= r.opts.MaxEmbedDepth {
		r.log.Warning("Embed depth limit reached", logfields.Path(src.path), logfields.Target(e.display()), logfields.Count(depth))
		return r.missing(x, e, "> **Embed depth exceeded: "+e.display()+"**")
	}

	raw, err := os.ReadFile(target.path)
	if err != nil {
		r.log.Warning("Embed target unreadable", logfields.Path(target.path), logfields.Error(err))
		return r.missing(x, e, "> **Missing embed: "+e.Target+"**")
	}
	_, content, _, _, splitErr := frontmatter.Split(raw)
	if splitErr != nil {
		content = raw
	}

	snippet := string(content)
	if e.Heading != "" {
		section, found := markdown.ExtractSection(snippet, e.Heading)
		if !found {
			r.log.Warning("Embed section not found", logfields.Path(target.path), logfields.Heading(e.Heading))
			return r.missing(x, e, "> **Missing embed section:** "+e.Target+"#"+e.Heading)
		}
		snippet = section
	}
	snippet = strings.TrimSpace(snippet)

	if target.rec != nil {
		target.rec.AddReference()
	}
	x.res.Stats.EmbedsExpanded++
	x.res.Links = append(x.res.Links, Link{Source: docID(x.top), Target: docID(target.rec), Raw: e.Raw, Strategy: StrategyName, Embed: true})

	body := []byte(snippet)
	if x.top == nil || target.rec != x.top {
		body = r.retarget(body, r.originRef(target))
	}

	x.stack = append(x.stack, key)
	defer func() { x.stack = x.stack[:len(x.stack)-1] }()
	return string(r.expandIn(x, target, body, depth+1))
}

func (r *Resolver) missing(x *expansion, e Embed, placeholder string) string {
	x.res.Stats.EmbedsMissing++
	x.res.Links = append(x.res.Links, Link{Source: docID(x.top), Raw: e.Raw, Strategy: StrategyUnresolved, Embed: true})
	return placeholder
}

// embedTarget resolves an embed target: the containing file for an empty
// name, then file name, slug and the general lookup, then a file next to the
// containing one.
func (r *Resolver) embedTarget(src origin, target string) (origin, bool) {
	if target == "" {
		return src, src.path != ""
	}
	if !strings.ContainsAny(target, `/\`) {
		key := index.Key(r.stripDocExt(target))
		if recs := r.ix.FileByName[key]; len(recs) > 0 {
			return origin{rec: recs[0], path: recs[0].SourcePath}, true
		}
		if rec, ok := r.ix.FileBySlug[key]; ok {
			return origin{rec: rec, path: rec.SourcePath}, true
		}
	}
	if rec, _ := r.Resolve(target); rec != nil {
		return origin{rec: rec, path: rec.SourcePath}, true
	}
	if src.path == "" {
		return origin{}, false
	}
	guess := filepath.Join(src.dir(), filepath.FromSlash(target))
	if filepath.Ext(guess) == "" {
		guess += ".md"
	}
	if st, err := os.Stat(guess); err == nil && st.Mode().IsRegular() {
		return origin{path: guess}, true
	}
	return origin{}, false
}

// asset returns the non-document file a target names, if any.
func (r *Resolver) asset(target string) *index.FileRecord {
	ext := strings.ToLower(path.Ext(target))
	if ext == "" || slices.Contains(r.opts.DocumentExtensions, ext) {
		return nil
	}
	name := target
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	recs := r.ix.AssetByName[index.Key(name)]
	if len(recs) == 0 {
		return nil
	}
	if want := strings.ToLower(naming.NormalizePath(target)); strings.Contains(want, "/") {
		for _, rec := range recs {
			if strings.HasSuffix("/"+strings.ToLower(rec.RelPath), "/"+want) {
				return rec
			}
		}
	}
	return recs[0]
}

// assetAlt uses the alias as alt text unless it is an Obsidian size hint.
func assetAlt(e Embed, asset *index.FileRecord) string {
	if e.Alias != "" {
		if _, err := strconv.Atoi(strings.SplitN(e.Alias, "x", 2)[0]); err != nil {
			return e.Alias
		}
	}
	return asset.SourceName
}

// originRef is the link target that points back at o: its base name when
// that is unambiguous, else its vault-relative path.
func (r *Resolver) originRef(o origin) string {
	if o.rec == nil {
		return o.name()
	}
	if len(r.ix.FileByName[index.Key(o.rec.SourceName)]) > 1 {
		return naming.StripExt(o.rec.RelPath)
	}
	return o.rec.SourceName
}

// retarget points in-page links of an embedded snippet at the snippet's
// origin, so [[#Heading]] keeps addressing the document it was written in.
func (r *Resolver) retarget(snippet []byte, ref string) []byte {
	if !bytes.Contains(snippet, []byte("[[#")) {
		return snippet
	}
	doc := markdown.Parse(snippet)
	out, err := doc.Rewrite(func(p *markdown.Prose) []markdown.Edit {
		var edits []markdown.Edit
		for _, m := range wikilinkPattern.FindAllSubmatchIndex(doc.Text(p), -1) {
			start := p.Start + m[0]
			if m[3] != m[2] || m[4] < 0 || (start > 0 && snippet[start-1] == '!') {
				continue
			}
			repl := "[[" + ref + string(snippet[p.Start+m[4]:p.Start+m[1]])
			edits = append(edits, markdown.Edit{Start: start, End: p.Start + m[1], Replacement: []byte(repl)})
		}
		return edits
	})
	if err != nil {
		return snippet
	}
	return out
}

func stackKey(p, heading string) string {
	return filepath.Clean(p) + "#" + strings.ToLower(heading)
}
