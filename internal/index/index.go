package index

import (
	"slices"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docmigrate/internal/naming"
)

// Index is the aggregate produced by Build.
type Index struct {
	Root    string
	Files   []*FileRecord
	Folders []*FolderRecord

	FileByTitle  map[string]*FileRecord
	FileBySlug   map[string]*FileRecord
	FileByName   map[string][]*FileRecord
	FolderByPath map[string]*FolderRecord

	// AssetByName maps a lowercased file name with extension to non-document files.
	AssetByName map[string][]*FileRecord

	filesByDir   map[string][]*FileRecord
	childFolders map[string][]*FolderRecord
}

func newIndex(root string) *Index {
	return &Index{
		Root:         root,
		FileByTitle:  make(map[string]*FileRecord),
		FileBySlug:   make(map[string]*FileRecord),
		FileByName:   make(map[string][]*FileRecord),
		FolderByPath: make(map[string]*FolderRecord),
		AssetByName:  make(map[string][]*FileRecord),
		filesByDir:   make(map[string][]*FileRecord),
		childFolders: make(map[string][]*FolderRecord),
	}
}

// Key folds a lookup string the way every map in the Index is keyed.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (ix *Index) addFolder(f *FolderRecord) {
	ix.Folders = append(ix.Folders, f)
	ix.FolderByPath[naming.NormalizePath(f.DestDir)] = f
	if !f.IsRoot() {
		ix.childFolders[f.ParentDir] = append(ix.childFolders[f.ParentDir], f)
	}
}

func (ix *Index) addFile(f *FileRecord) {
	ix.Files = append(ix.Files, f)
	ix.filesByDir[f.DestDir] = append(ix.filesByDir[f.DestDir], f)
	if !f.IsDocument {
		k := Key(f.SourceName + f.SourceExt)
		ix.AssetByName[k] = append(ix.AssetByName[k], f)
		return
	}
	ix.FileByName[Key(f.SourceName)] = append(ix.FileByName[Key(f.SourceName)], f)
	ix.FileByTitle[Key(f.DestTitle)] = f
	ix.FileBySlug[Key(naming.StripExt(f.DestSlug))] = f
}

// Folder returns the folder whose DestDir normalizes to dir.
func (ix *Index) Folder(dir string) (*FolderRecord, bool) {
	f, ok := ix.FolderByPath[naming.NormalizePath(dir)]
	return f, ok
}

// RootFolder returns the vault root record.
func (ix *Index) RootFolder() *FolderRecord {
	return ix.FolderByPath[""]
}

// Documents returns document records in walk order.
func (ix *Index) Documents() []*FileRecord {
	out := make([]*FileRecord, 0, len(ix.Files))
	for _, f := range ix.Files {
		if f.IsDocument {
			out = append(out, f)
		}
	}
	return out
}

// DocumentsIn returns the documents placed directly in dir.
func (ix *Index) DocumentsIn(dir string) []*FileRecord {
	var out []*FileRecord
	for _, f := range ix.filesByDir[naming.NormalizePath(dir)] {
		if f.IsDocument {
			out = append(out, f)
		}
	}
	return out
}

// Subfolders returns the immediate children of the folder at dir, in walk order.
func (ix *Index) Subfolders(dir string) []*FolderRecord {
	return slices.Clone(ix.childFolders[naming.NormalizePath(dir)])
}

// Collision groups records that share a lookup key.
type Collision struct {
	Key   string
	Paths []string
}

// DuplicateNames lists file-name keys that map to more than one document.
func (ix *Index) DuplicateNames() []Collision {
	var out []Collision
	for key, files := range ix.FileByName {
		if len(files) > 1 {
			out = append(out, Collision{Key: key, Paths: relPaths(files)})
		}
	}
	return sortCollisions(out)
}

// DuplicateDocIDs lists doc ids shared by more than one document.
func (ix *Index) DuplicateDocIDs() []Collision {
	return groupCollisions(ix.Documents(), func(f *FileRecord) string { return f.DocID })
}

// BasenameCollisions lists destination base names (slug without extension)
// used by more than one document anywhere in the tree.
func (ix *Index) BasenameCollisions() []Collision {
	return groupCollisions(ix.Documents(), func(f *FileRecord) string {
		return Key(naming.StripExt(f.DestSlug))
	})
}

func groupCollisions(files []*FileRecord, key func(*FileRecord) string) []Collision {
	groups := make(map[string][]*FileRecord)
	for _, f := range files {
		k := key(f)
		groups[k] = append(groups[k], f)
	}
	var out []Collision
	for k, g := range groups {
		if len(g) > 1 {
			out = append(out, Collision{Key: k, Paths: relPaths(g)})
		}
	}
	return sortCollisions(out)
}

func relPaths(files []*FileRecord) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	sort.Strings(out)
	return out
}

func sortCollisions(cs []Collision) []Collision {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Key < cs[j].Key })
	return cs
}
