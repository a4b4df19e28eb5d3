package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const snapshotComment = "Debug snapshot of the migration index. Generated on every run; not read by any tool."

// SnapshotMeta carries run details recorded alongside the index.
type SnapshotMeta struct {
	RunID       string
	Revision    string
	GeneratedAt time.Time
}

type fileSnapshot struct {
	SourcePath       string `json:"source_path"`
	RelPath          string `json:"rel_path"`
	SourceName       string `json:"source_name"`
	SourceExt        string `json:"source_ext"`
	IsDocument       bool   `json:"is_document"`
	DestDir          string `json:"dest_dir"`
	DestSlug         string `json:"dest_slug"`
	DestTitle        string `json:"dest_title"`
	DocID            string `json:"doc_id"`
	SidebarPosition  int    `json:"sidebar_position"`
	ExplicitTitle    bool   `json:"explicit_title"`
	ExplicitSlug     bool   `json:"explicit_slug"`
	ExplicitPosition bool   `json:"explicit_position"`
	References       int64  `json:"references"`
}

type snapshot struct {
	Comment      string              `json:"_comment"`
	RunID        string              `json:"run_id,omitempty"`
	Revision     string              `json:"source_revision,omitempty"`
	GeneratedAt  string              `json:"generated_at"`
	Root         string              `json:"root"`
	Files        []fileSnapshot      `json:"files"`
	Folders      []*FolderRecord     `json:"folders"`
	FileByTitle  map[string]string   `json:"file_by_title"`
	FileBySlug   map[string]string   `json:"file_by_slug"`
	FileByName   map[string][]string `json:"file_by_name"`
	FolderByPath map[string]string   `json:"folder_by_path"`
}

// Snapshot renders the index as indented JSON. Map values are reduced to
// relative source paths.
func (ix *Index) Snapshot(meta SnapshotMeta) ([]byte, error) {
	s := snapshot{
		Comment:      snapshotComment,
		RunID:        meta.RunID,
		Revision:     meta.Revision,
		GeneratedAt:  meta.GeneratedAt.UTC().Format(time.RFC3339),
		Root:         ix.Root,
		Files:        make([]fileSnapshot, 0, len(ix.Files)),
		Folders:      ix.Folders,
		FileByTitle:  make(map[string]string, len(ix.FileByTitle)),
		FileBySlug:   make(map[string]string, len(ix.FileBySlug)),
		FileByName:   make(map[string][]string, len(ix.FileByName)),
		FolderByPath: make(map[string]string, len(ix.FolderByPath)),
	}
	for _, f := range ix.Files {
		s.Files = append(s.Files, fileSnapshot{
			SourcePath:       f.SourcePath,
			RelPath:          f.RelPath,
			SourceName:       f.SourceName,
			SourceExt:        f.SourceExt,
			IsDocument:       f.IsDocument,
			DestDir:          f.DestDir,
			DestSlug:         f.DestSlug,
			DestTitle:        f.DestTitle,
			DocID:            f.DocID,
			SidebarPosition:  f.SidebarPosition,
			ExplicitTitle:    f.ExplicitTitle,
			ExplicitSlug:     f.ExplicitSlug,
			ExplicitPosition: f.ExplicitPosition,
			References:       f.References(),
		})
	}
	for k, f := range ix.FileByTitle {
		s.FileByTitle[k] = f.RelPath
	}
	for k, f := range ix.FileBySlug {
		s.FileBySlug[k] = f.RelPath
	}
	for k, fs := range ix.FileByName {
		s.FileByName[k] = relPaths(fs)
	}
	for k, f := range ix.FolderByPath {
		s.FolderByPath[k] = f.RelPath
	}
	return json.MarshalIndent(s, "", "  ")
}

// WriteSnapshot writes Snapshot output to path, creating parent directories.
func (ix *Index) WriteSnapshot(path string, meta SnapshotMeta) error {
	data, err := ix.Snapshot(meta)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
