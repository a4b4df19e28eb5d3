package resolver

import (
	"path"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/naming"
)

// Strategy names the lookup that resolved a target.
type Strategy string

const (
	StrategyAnchor     Strategy = "anchor"
	StrategyPath       Strategy = "path"
	StrategyName       Strategy = "name"
	StrategyTitle      Strategy = "title"
	StrategySlug       Strategy = "slug"
	StrategySlugified  Strategy = "slugified"
	StrategyUnresolved Strategy = "unresolved"
)

// DefaultMaxEmbedDepth bounds nested embed expansion.
const DefaultMaxEmbedDepth = 4

// Options controls URL construction and embed expansion.
type Options struct {
	// LinkPrefix is prepended to docIds; "/" yields root-relative URLs.
	LinkPrefix         string
	MaxEmbedDepth      int
	DocumentExtensions []string
}

// Resolver rewrites documents against a finished, read-only Index. It is safe
// for concurrent use; the only shared state it touches is each record's
// atomic reference counter.
type Resolver struct {
	ix    *index.Index
	opts  Options
	log   diagnostics.Logger
	paths []pathEntry
}

type pathEntry struct {
	key string // lowercased RelPath without extension
	rec *index.FileRecord
}

// New returns a Resolver for ix. A nil logger discards output.
func New(ix *index.Index, opts Options, log diagnostics.Logger) *Resolver {
	if opts.MaxEmbedDepth <= 0 {
		opts.MaxEmbedDepth = DefaultMaxEmbedDepth
	}
	if len(opts.DocumentExtensions) == 0 {
		opts.DocumentExtensions = []string{".md", ".txt"}
	}
	if log == nil {
		log = diagnostics.Discard{}
	}
	r := &Resolver{ix: ix, opts: opts, log: log}
	for _, rec := range ix.Documents() {
		r.paths = append(r.paths, pathEntry{key: strings.ToLower(naming.StripExt(rec.RelPath)), rec: rec})
	}
	return r
}

// Resolve maps a free-text target to a document, trying path suffix (for
// path-like targets), file name, title, slug, then the slugified target
// against slugs and file names. The first hit wins.
func (r *Resolver) Resolve(target string) (*index.FileRecord, Strategy) {
	t := strings.TrimSpace(target)
	if t == "" {
		return nil, StrategyUnresolved
	}
	if r.isPathLike(t) {
		if rec := r.byPath(t); rec != nil {
			return rec, StrategyPath
		}
	}
	key := index.Key(t)
	if recs := r.ix.FileByName[key]; len(recs) > 0 {
		return recs[0], StrategyName
	}
	if rec, ok := r.ix.FileByTitle[key]; ok {
		return rec, StrategyTitle
	}
	if rec, ok := r.ix.FileBySlug[key]; ok {
		return rec, StrategySlug
	}
	if s := naming.Slugify(t); s != "" {
		if rec, ok := r.ix.FileBySlug[s]; ok {
			return rec, StrategySlugified
		}
		if recs := r.ix.FileByName[s]; len(recs) > 0 {
			return recs[0], StrategySlugified
		}
	}
	return nil, StrategyUnresolved
}

func (r *Resolver) isPathLike(t string) bool {
	if strings.ContainsAny(t, `/\`) {
		return true
	}
	return slices.Contains(r.opts.DocumentExtensions, strings.ToLower(path.Ext(t)))
}

// stripDocExt removes a document extension, leaving other dots alone.
func (r *Resolver) stripDocExt(name string) string {
	if slices.Contains(r.opts.DocumentExtensions, strings.ToLower(path.Ext(name))) {
		return naming.StripExt(name)
	}
	return name
}

// byPath matches a path-like target against source paths relative to the
// vault root, on whole segment boundaries.
func (r *Resolver) byPath(t string) *index.FileRecord {
	want := strings.ToLower(r.stripDocExt(naming.NormalizePath(t)))
	if want == "" {
		return nil
	}
	for _, p := range r.paths {
		if p.key == want || strings.HasSuffix(p.key, "/"+want) {
			return p.rec
		}
	}
	return nil
}

// URL builds the link to rec, with an optional heading anchor.
func (r *Resolver) URL(rec *index.FileRecord, heading string) string {
	return r.prefixed(rec.DocID) + anchor(heading)
}

// FallbackURL is the best-effort link emitted for an unresolved target.
func (r *Resolver) FallbackURL(target, heading string) string {
	s := naming.Slugify(target)
	if s == "" {
		s = "untitled"
	}
	return r.prefixed(s) + anchor(heading)
}

// AssetURL links a non-document file relative to the directory of the
// document that will contain the link.
func (r *Resolver) AssetURL(from *index.FileRecord, asset *index.FileRecord) string {
	fromDir := ""
	if from != nil {
		fromDir = from.DestDir
	}
	return relativePath(fromDir, asset.DestPath())
}

func (r *Resolver) prefixed(id string) string {
	p := r.opts.LinkPrefix
	if p == "" {
		return id
	}
	return strings.TrimSuffix(p, "/") + "/" + id
}

// anchor renders "#slug", keeping "^id" block references verbatim.
func anchor(heading string) string {
	if heading == "" {
		return ""
	}
	if strings.HasPrefix(heading, "^") {
		return "#" + heading
	}
	if s := naming.HeadingSlug(heading); s != "" {
		return "#" + s
	}
	return ""
}

// relativePath returns target relative to dir, both slash-separated and
// relative to the destination root.
func relativePath(dir, target string) string {
	from := splitPath(dir)
	to := splitPath(target)
	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}
	var b strings.Builder
	if common == len(from) {
		b.WriteString("./")
	}
	for range from[common:] {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(to[common:], "/"))
	return b.String()
}

func splitPath(p string) []string {
	p = naming.NormalizePath(p)
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
