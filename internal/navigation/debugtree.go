package navigation

import (
	"fmt"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/docmigrate/internal/index"
)

// DebugTree renders every folder with its index document and remaining
// documents, one line each, indented by depth.
func DebugTree(ix *index.Index) string {
	root := ix.RootFolder()
	if root == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Root: %s\n", root.SourcePath)

	var walk func(f *index.FolderRecord, depth int)
	walk = func(f *index.FolderRecord, depth int) {
		indent := strings.Repeat("  ", depth)
		docs := ix.DocumentsIn(f.DestDir)
		idx := DetectIndexDoc(f, docs)
		fmt.Fprintf(&b, "%s- [dir] %s (final=%q, pos=%s, source=%s, key=%q)\n",
			indent, titleOr(f.DestTitle), f.FinalDestFolder, fmtPos(f.SidebarPosition), f.PositionSource, f.DestDir)
		if idx != nil {
			fmt.Fprintf(&b, "%s  - [index] %s (docId=%s, pos=%s, file=%q)\n",
				indent, titleOr(idx.DestTitle), idx.DocID, fmtPos(idx.SidebarPosition), idx.SourceName+idx.SourceExt)
		}
		for _, d := range sortedDocs(without(docs, idx)) {
			fmt.Fprintf(&b, "%s  - [doc] %s (docId=%s, pos=%s, slug=%q, file=%q)\n",
				indent, titleOr(d.DestTitle), d.DocID, fmtPos(d.SidebarPosition), d.DestSlug, d.SourceName+d.SourceExt)
		}
		for _, sub := range sortedSubfolders(ix, f.DestDir) {
			walk(sub, depth+1)
		}
	}
	walk(root, 0)
	return b.String()
}

// ASCIITree renders the folder hierarchy in the style of tree(1), with
// root-level documents listed after the top-level folders.
func ASCIITree(ix *index.Index) string {
	root := ix.RootFolder()
	if root == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Root: %s\n", root.SourcePath)

	var walk func(f *index.FolderRecord, prefix string)
	walk = func(f *index.FolderRecord, prefix string) {
		fmt.Fprintf(&b, "%s%s (pos=%s, final=%q)\n", prefix, titleOr(f.DestTitle), fmtPos(f.SidebarPosition), f.FinalDestFolder)
		docs := ix.DocumentsIn(f.DestDir)
		idx := DetectIndexDoc(f, docs)
		if idx != nil {
			asciiDoc(&b, prefix, idx)
		}
		for _, d := range sortedDocs(without(docs, idx)) {
			asciiDoc(&b, prefix, d)
		}
		for _, sub := range sortedSubfolders(ix, f.DestDir) {
			walk(sub, prefix+"│   ")
		}
	}
	for _, top := range sortedSubfolders(ix, "") {
		walk(top, "")
	}
	for _, d := range sortedDocs(ix.DocumentsIn("")) {
		asciiDoc(&b, "", d)
	}
	return b.String()
}

func asciiDoc(b *strings.Builder, prefix string, d *index.FileRecord) {
	fmt.Fprintf(b, "%s├── %s (pos=%s, %q)\n", prefix, titleOr(d.DestTitle), fmtPos(d.SidebarPosition), d.SourceName+d.SourceExt)
}

func titleOr(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return "Untitled"
}

func fmtPos(p int) string {
	if p < 0 {
		return "auto"
	}
	return strconv.Itoa(p)
}
