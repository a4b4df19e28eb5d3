package index

import (
	"path"
	"sync/atomic"
)

// FileRecord describes one source file and where it lands in the output.
type FileRecord struct {
	SourcePath string // absolute
	SourceDir  string // absolute
	RelPath    string // slash-separated, relative to the source root
	SourceName string // base name without extension
	SourceExt  string

	IsDocument bool

	DestDir   string // normalized, no leading or trailing slash
	DestSlug  string // file name in DestDir, extension included
	DestTitle string
	DocID     string

	SidebarPosition int // -1 when unset

	ExplicitTitle    bool
	ExplicitSlug     bool
	ExplicitPosition bool

	refs atomic.Int64
}

// DestPath is the slash-separated output path relative to the destination root.
func (f *FileRecord) DestPath() string {
	return path.Join(f.DestDir, f.DestSlug)
}

// AddReference records an inbound link.
func (f *FileRecord) AddReference() { f.refs.Add(1) }

// References returns the number of inbound links recorded so far.
func (f *FileRecord) References() int64 { return f.refs.Load() }

// PositionSource records which rule produced a folder's sidebar position.
type PositionSource string

const (
	PositionRoot      PositionSource = "root"
	PositionPrefix    PositionSource = "prefix"
	PositionMetadata  PositionSource = "metadata"
	PositionSuggested PositionSource = "suggested"
)

// FolderRecord describes one source directory.
type FolderRecord struct {
	SourcePath string `json:"source_path"`
	RelPath    string `json:"rel_path"`
	SourceName string `json:"source_name"`

	DestDir         string         `json:"dest_dir"`
	DestSlug        string         `json:"dest_slug"`
	DestTitle       string         `json:"dest_title"`
	ExplicitTitle   bool           `json:"explicit_title"`
	SidebarPosition int            `json:"sidebar_position"`
	PositionSource  PositionSource `json:"position_source"`
	FinalDestFolder string         `json:"final_dest_folder"`

	// ParentDir is the parent's DestDir; empty for the root and its children.
	ParentDir string `json:"parent_dir"`
	// IndexFile is the RelPath of the file that supplied folder metadata, if any.
	IndexFile string `json:"index_file,omitempty"`
}

// IsRoot reports whether f is the vault root.
func (f *FolderRecord) IsRoot() bool { return f.DestDir == "" }
