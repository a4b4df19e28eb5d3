package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/inful/mdfp"
)

// Manifest records the fingerprint of every document written by a run, keyed
// by slash-separated destination path.
type Manifest struct {
	Comment     string            `json:"_comment"`
	RunID       string            `json:"run_id"`
	Revision    string            `json:"source_revision,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	Files       map[string]string `json:"files"`
}

const manifestComment = "Fingerprints of written documents. Used to skip unchanged writes when the destination is not cleaned."

func newManifest() *Manifest {
	return &Manifest{Comment: manifestComment, Files: make(map[string]string)}
}

// Fingerprint hashes rendered front matter and body the same way mdfp does
// for stored documents.
func Fingerprint(frontmatter, body []byte) string {
	return mdfp.CalculateFingerprintFromParts(string(frontmatter), string(body))
}

// Unchanged reports whether dest was recorded with fp and still exists on disk.
func (m *Manifest) Unchanged(destPath, fp, absDest string) bool {
	if m == nil || fp == "" || m.Files[destPath] != fp {
		return false
	}
	_, err := os.Stat(absDest)
	return err == nil
}

// ToJSON serializes the manifest to JSON.
func (m *Manifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// ManifestFromJSON deserializes a manifest from JSON.
func ManifestFromJSON(data []byte) (*Manifest, error) {
	m := newManifest()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if m.Files == nil {
		m.Files = make(map[string]string)
	}
	return m, nil
}

// LoadManifest reads a manifest from path. A missing file yields an empty
// manifest and no error.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return newManifest(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return newManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ManifestFromJSON(data)
}

// Save writes the manifest to path, creating parent directories.
func (m *Manifest) Save(path string) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
