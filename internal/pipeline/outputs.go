package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/linkgraph"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/metrics"
	"git.home.luguber.info/inful/docmigrate/internal/navigation"
)

// asciiTreeFile sits next to the plain debug tree.
const asciiTreeFile = "docs-tree-ascii.txt"

// writeNavigation writes sidebars.ts, the optional JSON twin and navbarItems.ts.
func (m *Migrator) writeNavigation(ix *index.Index, sb *navigation.Sidebars) error {
	nav := m.cfg.Navigation
	var errs []error

	if p := m.cfg.SitePath(nav.Output); p != "" {
		data, err := navigation.RenderTS(sb)
		errs = append(errs, m.writeOutput(p, data, err))
	}
	if p := m.cfg.SitePath(nav.JSONOutput); p != "" {
		data, err := navigation.RenderJSON(sb)
		errs = append(errs, m.writeOutput(p, data, err))
	}
	if p := m.cfg.SitePath(nav.NavbarOutput); p != "" {
		extra := make([]navigation.NavbarItem, 0, len(nav.NavbarItems))
		for _, it := range nav.NavbarItems {
			extra = append(extra, navigation.NavbarItem{Label: it.Label, To: it.To, Href: it.Href, Position: it.Position})
		}
		data, err := navigation.RenderNavbarTS(navigation.NavbarItems(sb, extra))
		errs = append(errs, m.writeOutput(p, data, err))
	}
	if p := m.cfg.DiagnosticPath(m.cfg.Diagnostics.DebugTree); p != "" {
		errs = append(errs,
			m.writeOutput(p, []byte(navigation.DebugTree(ix)), nil),
			m.writeOutput(filepath.Join(filepath.Dir(p), asciiTreeFile), []byte(navigation.ASCIITree(ix)), nil),
		)
	}
	m.log.Status("Navigation written", logfields.Count(len(sb.Groups)))
	return errors.Join(errs...)
}

// writeDiagnostics writes the index snapshot, manifest and link graph.
func (m *Migrator) writeDiagnostics(ctx context.Context, res *Result, manifest *Manifest, manifestPath string, start time.Time) error {
	var errs []error
	if p := m.cfg.DiagnosticPath(m.cfg.Diagnostics.IndexSnapshot); p != "" {
		meta := index.SnapshotMeta{RunID: m.runID, Revision: res.Summary.Revision, GeneratedAt: start}
		if err := res.Index.WriteSnapshot(p, meta); err != nil {
			errs = append(errs, fmt.Errorf("write index snapshot: %w", err))
		}
	}
	if manifestPath != "" {
		if err := manifest.Save(manifestPath); err != nil {
			errs = append(errs, fmt.Errorf("write manifest: %w", err))
		}
	}
	if p := m.cfg.DiagnosticPath(m.cfg.Diagnostics.LinkDB); p != "" {
		if err := m.recordLinkGraph(ctx, p, res, start); err != nil {
			errs = append(errs, fmt.Errorf("record link graph: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (m *Migrator) recordLinkGraph(ctx context.Context, path string, res *Result, start time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	store, err := linkgraph.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run := linkgraph.Run{ID: m.runID, Revision: res.Summary.Revision, GeneratedAt: start}
	if err := store.Record(ctx, run, res.Index.Documents(), res.Links); err != nil {
		return err
	}
	orphans, err := store.Orphans(ctx, m.runID)
	if err != nil {
		return err
	}
	m.log.Debug("Link graph recorded", logfields.Path(path), logfields.Count(len(res.Links)), "orphans", len(orphans))
	return nil
}

// writeMetrics exports the registry as a node-exporter textfile.
func (m *Migrator) writeMetrics() {
	p := m.cfg.DiagnosticPath(m.cfg.Diagnostics.MetricsFile)
	if p == "" || m.gatherer == nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		m.log.Warning("Failed to write metrics", logfields.Path(p), logfields.Error(err))
		return
	}
	if err := metrics.WriteTextfile(p, m.gatherer); err != nil {
		m.log.Warning("Failed to write metrics", logfields.Path(p), logfields.Error(err))
	}
}

// writeOutput writes a generated file, creating its directory. renderErr is
// the error from producing data, if any.
func (m *Migrator) writeOutput(path string, data []byte, renderErr error) error {
	if renderErr != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(path), renderErr)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	m.log.Debug("Wrote output", logfields.Path(path))
	return nil
}
