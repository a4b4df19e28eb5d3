package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	ferrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/metrics"
	"git.home.luguber.info/inful/docmigrate/internal/navigation"
	"git.home.luguber.info/inful/docmigrate/internal/resolver"
	"git.home.luguber.info/inful/docmigrate/internal/vcs"
)

// ErrDestinationRootMissing is the cause attached when the output root is absent.
var ErrDestinationRootMissing = errors.New("destination root does not exist")

// StageName identifies one step of a run.
type StageName string

const (
	StageClean       StageName = "clean"
	StageIndex       StageName = "index"
	StageTransform   StageName = "transform"
	StageNavigation  StageName = "navigation"
	StageDiagnostics StageName = "diagnostics"
)

// StageResult records the timing and outcome of one stage.
type StageResult struct {
	Name     StageName
	Duration time.Duration
	Err      error
}

// Result is everything a run produced.
type Result struct {
	Summary  Summary
	Index    *index.Index
	Sidebars *navigation.Sidebars
	Links    []resolver.Link
	Stages   []StageResult
}

// Migrator runs the full vault-to-docs migration for one configuration.
type Migrator struct {
	cfg      *config.Config
	log      diagnostics.Logger
	recorder metrics.Recorder
	gatherer prom.Gatherer
	now      func() time.Time
	runID    string
	revision string
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLogger sets the diagnostics logger.
func WithLogger(log diagnostics.Logger) Option {
	return func(m *Migrator) {
		if log != nil {
			m.log = log
		}
	}
}

// WithRecorder sets the metrics recorder. The metrics textfile is only
// written when a gatherer is also known, see WithRegistry.
func WithRecorder(rec metrics.Recorder) Option {
	return func(m *Migrator) {
		if rec != nil {
			m.recorder = rec
		}
	}
}

// WithRegistry records metrics into reg and exports it as the metrics textfile.
func WithRegistry(reg *prom.Registry) Option {
	return func(m *Migrator) {
		m.recorder = metrics.NewPrometheusRecorder(reg)
		m.gatherer = reg
	}
}

// WithClock overrides the time source used for generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Migrator) { m.now = now }
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(m *Migrator) { m.runID = id }
}

// WithRevision fixes the source revision instead of reading it from git.
func WithRevision(rev string) Option {
	return func(m *Migrator) { m.revision = rev }
}

// New returns a Migrator for cfg. Zero-valued config fields take defaults.
func New(cfg *config.Config, opts ...Option) *Migrator {
	cfg.ApplyDefaults()
	m := &Migrator{
		cfg:      cfg,
		log:      diagnostics.Discard{},
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.gatherer == nil && cfg.Diagnostics.MetricsFile != "" {
		if _, noop := m.recorder.(metrics.NoopRecorder); noop {
			WithRegistry(prom.NewRegistry())(m)
		}
	}
	if m.runID == "" {
		m.runID = uuid.NewString()
	}
	return m
}

// RunID returns the id stamped on this run's outputs.
func (m *Migrator) RunID() string { return m.runID }

// ValidateRoots checks that the source and destination directories exist.
func (m *Migrator) ValidateRoots() error {
	if !isDir(m.cfg.Source) {
		return ferrors.NotFoundError("source root not found").
			WithContext("path", m.cfg.Source).
			WithCause(index.ErrSourceRootMissing).
			Fatal().
			Build()
	}
	if !isDir(m.cfg.Destination) {
		return ferrors.NotFoundError("destination root not found").
			WithContext("path", m.cfg.Destination).
			WithCause(ErrDestinationRootMissing).
			Fatal().
			Build()
	}
	return nil
}

// BuildIndex walks the source vault.
func (m *Migrator) BuildIndex() (*index.Index, error) {
	return index.NewBuilder(IndexOptions(m.cfg), m.log).Build(m.cfg.Source)
}

// IndexOptions maps configuration onto index builder options.
func IndexOptions(cfg *config.Config) index.Options {
	return index.Options{
		IgnorePrefix:       cfg.IgnorePrefix,
		DocumentExtensions: cfg.DocumentExtensions,
		MetadataFirst:      cfg.FolderPositionPrecedence == config.MetadataFirst,
		PositionStep:       cfg.PositionStep,
		NumberFolders:      cfg.NumberFolders,
		InferFilePositions: cfg.InferFilePositions,
		StrictDocIDs:       cfg.StrictDocIDs,
	}
}

// ResolverOptions maps configuration onto resolver options.
func ResolverOptions(cfg *config.Config) resolver.Options {
	return resolver.Options{
		LinkPrefix:         cfg.LinkPrefix,
		MaxEmbedDepth:      cfg.MaxEmbedDepth,
		DocumentExtensions: cfg.DocumentExtensions,
	}
}

// NavigationOptions maps configuration onto sidebar options, loading crosslinks.
func NavigationOptions(cfg *config.Config, log diagnostics.Logger) navigation.Options {
	return navigation.Options{
		RootGroup:  cfg.Navigation.RootGroup,
		Crosslinks: navigation.LoadCrosslinks(cfg.Navigation.Crosslinks, log),
	}
}

// Run executes clean, index, transform, navigation and diagnostics in order.
// Only a missing root, an index failure or cancellation returns an error;
// per-file problems are counted in the summary.
func (m *Migrator) Run(ctx context.Context) (*Result, error) {
	start := m.now()
	res := &Result{Summary: Summary{RunID: m.runID}}

	if err := m.ValidateRoots(); err != nil {
		m.recorder.IncRunOutcome("failed")
		return res, err
	}
	res.Summary.Revision = m.sourceRevision()
	m.log.Status("Starting migration",
		logfields.RunID(m.runID), logfields.Revision(res.Summary.Revision),
		logfields.Path(m.cfg.Source), logfields.Dest(m.cfg.Destination))

	manifestPath := m.cfg.DiagnosticPath(m.cfg.Diagnostics.Manifest)
	var previous *Manifest
	if m.cfg.Clean() {
		err := m.stage(res, StageClean, func() error {
			n, err := CleanDestination(m.cfg.Destination, m.cfg.Diagnostics.Dir)
			res.Summary.FilesRemoved = n
			m.log.Debug("Cleaned destination", logfields.Path(m.cfg.Destination), logfields.Count(n))
			return err
		})
		if err != nil {
			return m.fail(res, start, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to clean destination").
				WithContext("path", m.cfg.Destination).Build())
		}
	} else {
		loaded, err := LoadManifest(manifestPath)
		if err != nil {
			m.log.Warning("Ignoring unreadable manifest", logfields.Path(manifestPath), logfields.Error(err))
		} else {
			previous = loaded
		}
	}

	err := m.stage(res, StageIndex, func() error {
		ix, err := m.BuildIndex()
		res.Index = ix
		return err
	})
	if err != nil {
		return m.fail(res, start, err)
	}
	ix := res.Index
	m.recorder.SetIndexedDocuments(len(ix.Documents()))
	m.reportBasenameCollisions(ix)
	if err := m.createDocsTree(ix); err != nil {
		return m.fail(res, start, err)
	}

	manifest := newManifest()
	manifest.RunID, manifest.Revision, manifest.GeneratedAt = m.runID, res.Summary.Revision, start
	var unresolvedLog *diagnostics.UnresolvedLog
	if p := m.cfg.DiagnosticPath(m.cfg.Diagnostics.UnresolvedLog); p != "" {
		unresolvedLog = diagnostics.NewUnresolvedLog(p, "Unresolved wikilinks (run "+m.runID+")")
		defer func() { _ = unresolvedLog.Close() }()
	}

	err = m.stage(res, StageTransform, func() error {
		t := &transformer{
			destRoot: m.cfg.Destination,
			res:      resolver.New(ix, ResolverOptions(m.cfg), m.log),
			log:      m.log,
			previous: previous,
		}
		outcomes, err := t.transformAll(ctx, ix, m.cfg.Workers)
		if err != nil {
			return err
		}
		for i, o := range outcomes {
			m.merge(res, ix.Files[i], o, manifest, unresolvedLog)
		}
		return nil
	})
	if err != nil {
		return m.fail(res, start, err)
	}

	_ = m.stage(res, StageNavigation, func() error {
		res.Sidebars = navigation.Build(ix, NavigationOptions(m.cfg, m.log), m.log)
		return m.writeNavigation(ix, res.Sidebars)
	})

	_ = m.stage(res, StageDiagnostics, func() error {
		return m.writeDiagnostics(ctx, res, manifest, manifestPath, start)
	})

	m.reportUnreferenced(ix)
	res.Summary.Duration = m.now().Sub(start)
	m.recorder.ObserveRunDuration(res.Summary.Duration)
	m.recorder.IncRunOutcome(res.Summary.Outcome())
	m.writeMetrics()
	m.log.Status("Migration complete",
		logfields.RunID(m.runID),
		"files_copied", res.Summary.FilesCopied,
		"documents", res.Summary.DocumentsWritten,
		"links_rewritten", res.Summary.LinksRewritten,
		"links_unresolved", res.Summary.LinksUnresolved,
		"files_failed", res.Summary.FilesFailed,
		logfields.DurationMS(float64(res.Summary.Duration.Microseconds())/1000))
	return res, nil
}

// stage runs fn, timing it and recording its outcome.
func (m *Migrator) stage(res *Result, name StageName, fn func() error) error {
	started := time.Now()
	err := fn()
	d := time.Since(started)
	m.recorder.ObserveStageDuration(string(name), d)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFatal
		if _, ok := navigationOrDiagnostics[name]; ok {
			result = metrics.ResultWarning
			m.log.Warning("Stage finished with errors", logfields.Stage(string(name)), logfields.Error(err))
		}
	}
	m.recorder.IncStageResult(string(name), result)
	res.Stages = append(res.Stages, StageResult{Name: name, Duration: d, Err: err})
	return err
}

// navigationOrDiagnostics lists stages whose failure does not abort the run.
var navigationOrDiagnostics = map[StageName]struct{}{
	StageNavigation:  {},
	StageDiagnostics: {},
}

func (m *Migrator) fail(res *Result, start time.Time, err error) (*Result, error) {
	m.log.Error("Migration aborted", logfields.RunID(m.runID), logfields.Error(err))
	res.Summary.Duration = m.now().Sub(start)
	m.recorder.IncRunOutcome("failed")
	m.writeMetrics()
	return res, err
}

func (m *Migrator) merge(res *Result, rec *index.FileRecord, o fileOutcome, manifest *Manifest, unresolved *diagnostics.UnresolvedLog) {
	m.recorder.IncFileResult(o.result)
	switch o.result {
	case metrics.FileCopied:
		res.Summary.FilesCopied++
	case metrics.FileWritten:
		res.Summary.DocumentsWritten++
	case metrics.FileUnchanged:
		res.Summary.FilesUnchanged++
	case metrics.FileFailed:
		res.Summary.FilesFailed++
		m.log.Error("Failed to transform file; output skipped", logfields.Path(rec.SourcePath), logfields.Error(o.err))
		return
	}
	if o.fingerprint != "" {
		manifest.Files[o.destPath] = o.fingerprint
	}
	res.Summary.addStats(o.stats)
	m.recorder.AddLinks(o.stats.LinksRewritten, o.stats.LinksUnresolved)
	m.recorder.AddEmbeds(o.stats.EmbedsExpanded, o.stats.EmbedsMissing)
	unresolved.Append(o.unresolved...)
	res.Links = append(res.Links, o.links...)
}

func (m *Migrator) sourceRevision() string {
	if m.revision != "" {
		return m.revision
	}
	rev, err := vcs.SourceRevision(m.cfg.Source)
	if errors.Is(err, vcs.ErrNotRepository) {
		m.log.Debug("Source vault is not under git; no revision recorded", logfields.Path(m.cfg.Source))
		return ""
	}
	if err != nil {
		m.log.Warning("Failed to read source revision", logfields.Path(m.cfg.Source), logfields.Error(err))
		return ""
	}
	return rev.String()
}

// reportBasenameCollisions warns once per base name shared by several files.
// Keys the index already reported as duplicate source names are skipped.
func (m *Migrator) reportBasenameCollisions(ix *index.Index) {
	reported := make(map[string]bool)
	for _, c := range ix.DuplicateNames() {
		reported[c.Key] = true
	}
	for _, c := range ix.BasenameCollisions() {
		if reported[c.Key] {
			continue
		}
		m.log.Warning("Basename collision; use a path-like target to disambiguate",
			logfields.Key(c.Key), logfields.Count(len(c.Paths)), "paths", c.Paths)
	}
}

// createDocsTree creates every destination folder, including empty ones.
func (m *Migrator) createDocsTree(ix *index.Index) error {
	for _, f := range ix.Folders {
		dir := filepath.Join(m.cfg.Destination, filepath.FromSlash(f.DestDir))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create destination folder").
				WithContext("path", dir).Build()
		}
	}
	return nil
}

func (m *Migrator) reportUnreferenced(ix *index.Index) {
	for _, d := range ix.Documents() {
		if d.References() == 0 {
			m.log.Debug("Document has no inbound links", logfields.DocID(d.DocID), logfields.Path(d.RelPath))
		}
	}
}

func isDir(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}
