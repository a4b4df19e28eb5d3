// Package linkgraph stores the documents and links of each migration run in
// SQLite so link structure can be queried after the fact.
package linkgraph

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/resolver"
)

// Run identifies one migration run.
type Run struct {
	ID          string
	Revision    string
	GeneratedAt time.Time
}

// Store implements the link graph on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the database at dbPath. Use ":memory:" for an
// in-memory graph.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		revision TEXT,
		generated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS documents (
		run_id TEXT NOT NULL,
		doc_id TEXT NOT NULL,
		rel_path TEXT NOT NULL,
		title TEXT NOT NULL,
		refs INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS links (
		run_id TEXT NOT NULL,
		source TEXT NOT NULL,
		target TEXT,
		raw TEXT NOT NULL,
		strategy TEXT NOT NULL,
		line INTEGER NOT NULL,
		embed INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_run ON documents(run_id);
	CREATE INDEX IF NOT EXISTS idx_links_run ON links(run_id);
	CREATE INDEX IF NOT EXISTS idx_links_target ON links(run_id, target);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores docs and links for run in one transaction.
func (s *Store) Record(ctx context.Context, run Run, docs []*index.FileRecord, links []resolver.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, revision, generated_at) VALUES (?, ?, ?)",
		run.ID, run.Revision, run.GeneratedAt.Unix(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	docStmt, err := tx.PrepareContext(ctx, "INSERT INTO documents (run_id, doc_id, rel_path, title, refs) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare documents: %w", err)
	}
	defer docStmt.Close()
	for _, d := range docs {
		if _, err := docStmt.ExecContext(ctx, run.ID, d.DocID, d.RelPath, d.DestTitle, d.References()); err != nil {
			return fmt.Errorf("insert document %s: %w", d.DocID, err)
		}
	}

	linkStmt, err := tx.PrepareContext(ctx, "INSERT INTO links (run_id, source, target, raw, strategy, line, embed) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare links: %w", err)
	}
	defer linkStmt.Close()
	for _, l := range links {
		var target any
		if l.Target != "" {
			target = l.Target
		}
		if _, err := linkStmt.ExecContext(ctx, run.ID, l.Source, target, l.Raw, string(l.Strategy), l.Line, l.Embed); err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Orphans lists the docIds of run that no other document links to or embeds.
func (s *Store) Orphans(ctx context.Context, runID string) ([]string, error) {
	return s.strings(ctx, `
		SELECT d.doc_id FROM documents d
		WHERE d.run_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM links l
			WHERE l.run_id = d.run_id AND l.target = d.doc_id AND l.source <> d.doc_id
		  )
		ORDER BY d.doc_id`, runID)
}

// Unresolved returns the unresolved links of run ordered by source and line.
func (s *Store) Unresolved(ctx context.Context, runID string) ([]resolver.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT source, raw, strategy, line, embed FROM links WHERE run_id = ? AND target IS NULL ORDER BY source, line, rowid",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var out []resolver.Link
	for rows.Next() {
		var l resolver.Link
		var strategy string
		if err := rows.Scan(&l.Source, &l.Raw, &strategy, &l.Line, &l.Embed); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		l.Strategy = resolver.Strategy(strategy)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Runs lists recorded run ids, newest first.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	return s.strings(ctx, "SELECT run_id FROM runs ORDER BY generated_at DESC, rowid DESC")
}

func (s *Store) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
