package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	ferrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/frontmatter"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/naming"
)

// ErrSourceRootMissing is the cause attached when the vault root is absent.
var ErrSourceRootMissing = errors.New("source root does not exist")

// Options controls how the walk derives identity and ordering.
type Options struct {
	IgnorePrefix       string
	DocumentExtensions []string
	// MetadataFirst lets an index file's folder_position beat a numeric name prefix.
	MetadataFirst      bool
	PositionStep       int
	NumberFolders      bool
	InferFilePositions bool
	StrictDocIDs       bool
}

// Builder walks a vault and produces an Index.
type Builder struct {
	opts Options
	log  diagnostics.Logger
}

// NewBuilder returns a Builder. A nil logger discards output.
func NewBuilder(opts Options, log diagnostics.Logger) *Builder {
	if opts.PositionStep <= 0 {
		opts.PositionStep = 10
	}
	if len(opts.DocumentExtensions) == 0 {
		opts.DocumentExtensions = []string{".md", ".txt"}
	}
	if log == nil {
		log = diagnostics.Discard{}
	}
	return &Builder{opts: opts, log: log}
}

// Build walks root depth-first and returns the finished Index.
func (b *Builder) Build(root string) (*Index, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid source root").WithContext("path", root).Fatal().Build()
	}
	if st, statErr := os.Stat(abs); statErr != nil || !st.IsDir() {
		return nil, ferrors.NotFoundError("source root does not exist").
			WithContext("path", abs).
			WithCause(ErrSourceRootMissing).
			Build()
	}

	ix := newIndex(abs)
	if _, err := b.walk(ix, abs, "", nil, 0); err != nil {
		return nil, err
	}

	b.log.Status("Indexed source tree",
		logfields.Path(abs),
		logfields.Count(len(ix.Documents())),
		"folders", len(ix.Folders),
		"assets", len(ix.Files)-len(ix.Documents()))

	if err := b.reportCollisions(ix); err != nil {
		return nil, err
	}
	return ix, nil
}

func (b *Builder) walk(ix *Index, dir, rel string, parent *FolderRecord, suggested int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if parent == nil {
			return 0, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read source root").WithContext("path", dir).Fatal().Build()
		}
		b.log.Warning("Skipping unreadable folder", logfields.Path(dir), logfields.Error(err))
	}
	files, dirs := b.partition(dir, entries)

	folder := b.folderRecord(dir, rel, parent, files, suggested)
	if prev, dup := ix.FolderByPath[folder.DestDir]; dup {
		b.log.Warning("Two folders share a destination directory",
			logfields.Dest(folder.DestDir), logfields.Path(prev.RelPath), "other", folder.RelPath)
	}
	ix.addFolder(folder)

	for _, name := range files {
		ix.addFile(b.fileRecord(dir, rel, name, folder))
	}

	highest := 0
	for _, name := range dirs {
		pos, err := b.walk(ix, filepath.Join(dir, name), path.Join(rel, name), folder, highest+b.opts.PositionStep)
		if err != nil {
			return 0, err
		}
		highest = max(highest, pos)
	}
	return folder.SidebarPosition, nil
}

func (b *Builder) ignored(name string) bool {
	return b.opts.IgnorePrefix != "" && strings.HasPrefix(name, b.opts.IgnorePrefix)
}

// partition splits entries into file and directory names. Symlinked
// directories are not followed.
func (b *Builder) partition(dir string, entries []fs.DirEntry) (files, dirs []string) {
	for _, e := range entries {
		name := e.Name()
		if b.ignored(name) {
			continue
		}
		mode := e.Type()
		if mode&fs.ModeSymlink != 0 {
			st, err := os.Stat(filepath.Join(dir, name))
			if err != nil || st.IsDir() {
				b.log.Debug("Skipping symlink", logfields.Path(filepath.Join(dir, name)))
				continue
			}
			mode = st.Mode()
		}
		switch {
		case mode.IsDir():
			dirs = append(dirs, name)
		case mode.IsRegular():
			files = append(files, name)
		}
	}
	return files, dirs
}

func (b *Builder) isDocument(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(b.opts.DocumentExtensions, ext)
}

func (b *Builder) folderRecord(dir, rel string, parent *FolderRecord, files []string, suggested int) *FolderRecord {
	name := filepath.Base(dir)
	folder := &FolderRecord{
		SourcePath: dir,
		RelPath:    rel,
		SourceName: name,
		DestTitle:  name,
		DestSlug:   naming.Slugify(name),
	}

	var md frontmatter.Metadata
	if idx := findIndexFile(files, name); idx != "" {
		folder.IndexFile = path.Join(rel, idx)
		md = b.readMetadata(filepath.Join(dir, idx))
	}
	if md.HasTitle {
		folder.DestTitle, folder.ExplicitTitle = md.Title, true
	}
	if md.HasSlug {
		if s := naming.Slugify(lastSegment(md.Slug)); s != "" {
			folder.DestSlug = s
		}
	}

	folder.SidebarPosition, folder.PositionSource = b.folderPosition(parent == nil, name, md, suggested)

	if parent != nil {
		seg := naming.Slugify(name)
		if seg == "" {
			seg = "untitled"
		}
		if b.opts.NumberFolders {
			seg = fmt.Sprintf("%03d-%s", folder.SidebarPosition, seg)
		}
		folder.FinalDestFolder = seg
		folder.ParentDir = parent.DestDir
		folder.DestDir = naming.NormalizePath(path.Join(parent.DestDir, seg))
	}
	return folder
}

// folderPosition applies the position cascade: root, then numeric name
// prefix and index-file folder_position in the configured order, then the
// suggestion from the parent.
func (b *Builder) folderPosition(isRoot bool, name string, md frontmatter.Metadata, suggested int) (int, PositionSource) {
	if isRoot {
		return 0, PositionRoot
	}
	prefix, hasPrefix := naming.LeadingNumber(name)
	if b.opts.MetadataFirst && md.HasFolderPosition {
		return md.FolderPosition, PositionMetadata
	}
	if hasPrefix {
		return prefix, PositionPrefix
	}
	if md.HasFolderPosition {
		return md.FolderPosition, PositionMetadata
	}
	return suggested, PositionSuggested
}

// findIndexFile returns the first folder index candidate present in files.
func findIndexFile(files []string, folderName string) string {
	exact := func(candidates ...string) string {
		for _, c := range candidates {
			if slices.Contains(files, c) {
				return c
			}
		}
		return ""
	}
	if f := exact("index.md", "index.txt"); f != "" {
		return f
	}
	for _, c := range []string{"readme.md", "readme.txt"} {
		for _, f := range files {
			if strings.EqualFold(f, c) {
				return f
			}
		}
	}
	if f := exact(folderName+".md", folderName+".txt"); f != "" {
		return f
	}
	slug := naming.Slugify(folderName)
	return exact(slug+".md", slug+".txt")
}

func (b *Builder) fileRecord(dir, rel, name string, folder *FolderRecord) *FileRecord {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	f := &FileRecord{
		SourcePath:      filepath.Join(dir, name),
		SourceDir:       dir,
		RelPath:         path.Join(rel, name),
		SourceName:      base,
		SourceExt:       ext,
		IsDocument:      b.isDocument(name),
		DestDir:         folder.DestDir,
		DestTitle:       base,
		SidebarPosition: -1,
	}
	if !f.IsDocument {
		f.DestSlug = name
		f.DocID = naming.DocID(f.DestDir, f.DestSlug)
		return f
	}

	md := b.readMetadata(f.SourcePath)
	if md.HasTitle {
		f.DestTitle, f.ExplicitTitle = md.Title, true
	}

	slug := naming.Slugify(base)
	if md.HasSlug {
		if s := naming.Slugify(lastSegment(md.Slug)); s != "" {
			slug, f.ExplicitSlug = s, true
		}
	}
	if slug == "" {
		slug = "untitled"
	}
	f.DestSlug = slug + destExt(ext)
	f.DocID = naming.DocID(f.DestDir, f.DestSlug)

	switch {
	case md.HasSidebarPosition:
		f.SidebarPosition, f.ExplicitPosition = md.SidebarPosition, true
	case b.opts.InferFilePositions:
		if n, ok := naming.LeadingNumber(base); ok {
			f.SidebarPosition = n
		}
	}
	return f
}

// readMetadata never fails: unreadable or malformed front matter falls back
// to file-name defaults with a warning.
func (b *Builder) readMetadata(path string) frontmatter.Metadata {
	data, err := os.ReadFile(path)
	if err != nil {
		b.log.Warning("Cannot read file metadata; using file name defaults", logfields.Path(path), logfields.Error(err))
		return frontmatter.Metadata{}
	}
	md, err := frontmatter.Read(data)
	if err != nil {
		b.log.Warning("Malformed front matter; using file name defaults", logfields.Path(path), logfields.Error(err))
		return frontmatter.Metadata{}
	}
	return md
}

func (b *Builder) reportCollisions(ix *Index) error {
	for _, c := range ix.DuplicateNames() {
		b.log.Warning("Duplicate source filename detected for wikilink resolution",
			logfields.Key(c.Key), logfields.Count(len(c.Paths)), "paths", strings.Join(c.Paths, ", "))
	}
	dups := ix.DuplicateDocIDs()
	for _, c := range dups {
		b.log.Warning("Duplicate doc id", logfields.DocID(c.Key), "paths", strings.Join(c.Paths, ", "))
	}
	if b.opts.StrictDocIDs && len(dups) > 0 {
		return ferrors.ValidationError("duplicate doc ids").
			WithContext("doc_id", dups[0].Key).
			WithContext("count", len(dups)).
			Build()
	}
	return nil
}

// destExt maps a document extension to the one written to the output tree.
func destExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext == ".txt" {
		return ".md"
	}
	return ext
}

func lastSegment(slug string) string {
	slug = strings.Trim(strings.ReplaceAll(slug, `\`, "/"), "/")
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		return slug[i+1:]
	}
	return slug
}
