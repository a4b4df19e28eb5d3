package diagnostics

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// AppendFile is an io.Writer over a lazily opened, append-only file. Write
// always reports success; the first failure is logged and later writes are
// dropped.
type AppendFile struct {
	path string

	mu     sync.Mutex
	f      *os.File
	broken bool
}

// NewAppendFile returns a sink for path. When truncate is set, any existing
// file is removed first so each run starts fresh.
func NewAppendFile(path string, truncate bool) *AppendFile {
	a := &AppendFile{path: path}
	if truncate {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			a.fail(err)
		}
	}
	return a
}

// Path returns the file location.
func (a *AppendFile) Path() string { return a.path }

func (a *AppendFile) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.broken {
		return len(p), nil
	}
	if a.f == nil {
		if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
			a.fail(err)
			return len(p), nil
		}
		f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			a.fail(err)
			return len(p), nil
		}
		a.f = f
	}
	if _, err := a.f.Write(p); err != nil {
		a.fail(err)
	}
	return len(p), nil
}

// WriteLine appends s followed by a newline.
func (a *AppendFile) WriteLine(s string) {
	_, _ = a.Write([]byte(s + "\n"))
}

// Close releases the file handle.
func (a *AppendFile) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f == nil {
		return nil
	}
	err := a.f.Close()
	a.f = nil
	return err
}

func (a *AppendFile) fail(err error) {
	a.broken = true
	slog.Warn("Diagnostic sink disabled", slog.String("path", a.path), slog.String("error", err.Error()))
}

// UnresolvedLink is one wikilink that matched nothing in the index.
type UnresolvedLink struct {
	Source   string
	Line     int
	Column   int
	Original string
}

func (u UnresolvedLink) String() string {
	return fmt.Sprintf("%s:%d:%d - Unresolved wikilink: %s", u.Source, u.Line, u.Column, u.Original)
}

// UnresolvedLog records unresolved wikilinks, one per line, under a header.
type UnresolvedLog struct {
	sink   *AppendFile
	once   sync.Once
	header string
}

// NewUnresolvedLog starts a fresh log at path.
func NewUnresolvedLog(path, header string) *UnresolvedLog {
	return &UnresolvedLog{sink: NewAppendFile(path, true), header: header}
}

// Append writes entries in order.
func (l *UnresolvedLog) Append(entries ...UnresolvedLink) {
	if l == nil || len(entries) == 0 {
		return
	}
	l.once.Do(func() {
		if l.header != "" {
			l.sink.WriteLine(l.header)
		}
	})
	for _, e := range entries {
		l.sink.WriteLine(e.String())
	}
}

// Close releases the underlying file.
func (l *UnresolvedLog) Close() error {
	if l == nil {
		return nil
	}
	return l.sink.Close()
}
