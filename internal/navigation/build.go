package navigation

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/naming"
)

// DefaultRootGroup names the group holding root-level documents.
const DefaultRootGroup = "Intro"

// Options controls Build.
type Options struct {
	RootGroup  string
	Crosslinks []Crosslink
}

var indexBaseNames = []string{"index", "readme"}

// Build derives the sidebars for ix. It never fails: folders without any
// documents simply produce empty groups or categories.
func Build(ix *index.Index, opts Options, log diagnostics.Logger) *Sidebars {
	if log == nil {
		log = diagnostics.Discard{}
	}
	if opts.RootGroup == "" {
		opts.RootGroup = DefaultRootGroup
	}

	sb := &Sidebars{}
	seen := map[string]int{}
	add := func(name string, items []Node) {
		seen[name]++
		if n := seen[name]; n > 1 {
			log.Warning("Duplicate sidebar name; adding suffix", logfields.Key(name), logfields.Count(n))
			name = name + " " + strconv.Itoa(n)
		}
		sb.Groups = append(sb.Groups, Group{Name: name, Items: items})
	}

	add(opts.RootGroup, rootItems(ix, opts.Crosslinks))
	for _, top := range sortedSubfolders(ix, "") {
		add(GroupName(top), folderItems(ix, top))
	}
	return sb
}

// GroupName is the sidebar key for a top-level folder: its explicit title
// unless generic, else its humanized slug, else "Overview".
func GroupName(f *index.FolderRecord) string {
	if l := folderLabel(f); l != "" {
		return l
	}
	return "Overview"
}

func folderLabel(f *index.FolderRecord) string {
	title := ""
	if f.ExplicitTitle {
		title = f.DestTitle
	}
	return naming.Label(title, f.DestSlug)
}

func rootItems(ix *index.Index, crosslinks []Crosslink) []Node {
	items := []Node{}
	for _, d := range sortedDocs(ix.DocumentsIn("")) {
		items = append(items, docNode(d, ""))
	}
	for _, c := range crosslinks {
		items = append(items, &Ref{ID: c.ID, Label: c.Label})
	}
	return items
}

// folderItems builds a top-level group. A folder holding only its index
// document collapses to that single leaf.
func folderItems(ix *index.Index, folder *index.FolderRecord) []Node {
	docs := ix.DocumentsIn(folder.DestDir)
	indexDoc := DetectIndexDoc(folder, docs)
	subs := sortedSubfolders(ix, folder.DestDir)
	rest := sortedDocs(without(docs, indexDoc))

	items := []Node{}
	if indexDoc != nil {
		items = append(items, docNode(indexDoc, "Overview"))
		if len(subs) == 0 && len(rest) == 0 {
			return items
		}
	}
	for _, sub := range subs {
		items = append(items, category(ix, sub))
	}
	for _, d := range rest {
		items = append(items, docNode(d, ""))
	}
	return items
}

// category builds a nested folder: subfolders first, then documents, with a
// link to the index document when one exists.
func category(ix *index.Index, folder *index.FolderRecord) *Category {
	docs := ix.DocumentsIn(folder.DestDir)
	indexDoc := DetectIndexDoc(folder, docs)

	c := &Category{Label: folderLabel(folder), Items: []Node{}}
	if c.Label == "" {
		c.Label = "Untitled"
	}
	if indexDoc != nil {
		c.Link = indexDoc.DocID
	}
	for _, sub := range sortedSubfolders(ix, folder.DestDir) {
		c.Items = append(c.Items, category(ix, sub))
	}
	for _, d := range sortedDocs(without(docs, indexDoc)) {
		c.Items = append(c.Items, docNode(d, ""))
	}
	return c
}

// DetectIndexDoc picks the landing document of folder among docs, trying in
// order: docId equal to the folder path, docId equal to folder path plus a
// folder name variant, a base name of index or readme, and a base name equal
// to a folder name variant. It returns nil when nothing matches.
func DetectIndexDoc(folder *index.FolderRecord, docs []*index.FileRecord) *index.FileRecord {
	dir := naming.NormalizePath(folder.DestDir)
	variants := folderVariants(folder)

	for _, d := range docs {
		if d.DocID == dir {
			return d
		}
	}
	for _, v := range variants {
		want := v
		if dir != "" {
			want = dir + "/" + v
		}
		for _, d := range docs {
			if d.DocID == want {
				return d
			}
		}
	}
	for _, d := range docs {
		if slices.Contains(indexBaseNames, baseName(d)) {
			return d
		}
	}
	for _, d := range docs {
		if slices.Contains(variants, baseName(d)) {
			return d
		}
	}
	return nil
}

func folderVariants(f *index.FolderRecord) []string {
	var out []string
	for _, s := range []string{f.FinalDestFolder, f.DestSlug, f.SourceName} {
		s = strings.ToLower(naming.StripExt(s))
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func baseName(d *index.FileRecord) string {
	return strings.ToLower(naming.StripExt(d.DestSlug))
}

func docNode(d *index.FileRecord, fallback string) *Doc {
	label := strings.TrimSpace(d.DestTitle)
	if label == "" {
		label = cmp.Or(fallback, "Untitled")
	}
	return &Doc{ID: d.DocID, Label: label, Position: d.SidebarPosition}
}

func without(docs []*index.FileRecord, skip *index.FileRecord) []*index.FileRecord {
	out := make([]*index.FileRecord, 0, len(docs))
	for _, d := range docs {
		if d != skip {
			out = append(out, d)
		}
	}
	return out
}

func sortedDocs(docs []*index.FileRecord) []*index.FileRecord {
	out := slices.Clone(docs)
	slices.SortStableFunc(out, func(a, b *index.FileRecord) int {
		return compareEntries(a.SidebarPosition, b.SidebarPosition, a.DestTitle, b.DestTitle)
	})
	return out
}

func sortedSubfolders(ix *index.Index, dir string) []*index.FolderRecord {
	out := ix.Subfolders(dir)
	slices.SortStableFunc(out, func(a, b *index.FolderRecord) int {
		return compareEntries(a.SidebarPosition, b.SidebarPosition, a.DestTitle, b.DestTitle)
	})
	return out
}

// compareEntries orders by position with unset (negative) positions last,
// then by natural label order.
func compareEntries(pa, pb int, la, lb string) int {
	if pa != pb {
		switch {
		case pa < 0:
			return 1
		case pb < 0:
			return -1
		}
		return cmp.Compare(pa, pb)
	}
	return naming.CompareNatural(la, lb)
}
