package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	ferrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/frontmatter"
	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/linkgraph"
)

var vault = map[string]string{
	"guides/getting-started.md": "---\ntitle: Getting Started\n---\n# Getting Started\n\n## Quick Start\nRun it.\n",
	"home.md":                   "Go to [[Getting Started#Quick Start|Start Here]] and [[Nowhere]].\n\n![[snippet#Part]]\n",
	"snippet.md":                "# Part\nShared text.\n\n# Other\nhidden\n",
	"custom.md":                 "---\ntitle: Custom\nslug: custom\nsidebar_position: 3\n---\nBody\n",
	"img/pic.png":               "\x89PNG\x00binary",
}

type fixture struct {
	source string
	site   string
	dest   string
	debug  string
	cfg    *config.Config
	log    *diagnostics.Memory
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		source: filepath.Join(base, "vault"),
		site:   filepath.Join(base, "site"),
		log:    diagnostics.NewMemory(),
	}
	f.dest = filepath.Join(f.site, "docs")
	f.debug = filepath.Join(f.site, "debug")
	require.NoError(t, os.MkdirAll(f.source, 0o755))
	require.NoError(t, os.MkdirAll(f.dest, 0o755))
	writeTree(t, f.source, files)

	f.cfg = config.Default()
	f.cfg.Source = f.source
	f.cfg.Destination = f.dest
	f.cfg.SiteRoot = f.site
	f.cfg.Diagnostics.Dir = f.debug
	return f
}

func (f *fixture) run(t *testing.T, opts ...Option) *Result {
	t.Helper()
	opts = append([]Option{WithLogger(f.log), WithRevision("test")}, opts...)
	res, err := New(f.cfg, opts...).Run(context.Background())
	require.NoError(t, err)
	return res
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dest, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestRun_MissingSourceRoot(t *testing.T) {
	f := newFixture(t, nil)
	f.cfg.Source = filepath.Join(f.source, "absent")

	_, err := New(f.cfg).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, index.ErrSourceRootMissing))
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
	assert.Equal(t, 1, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestRun_MissingDestinationRoot(t *testing.T) {
	f := newFixture(t, vault)
	f.cfg.Destination = filepath.Join(f.site, "nope")

	_, err := New(f.cfg).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDestinationRootMissing))
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestRun_TransformsVault(t *testing.T) {
	f := newFixture(t, vault)
	res := f.run(t)

	s := res.Summary
	assert.Equal(t, 4, s.DocumentsWritten)
	assert.Equal(t, 1, s.FilesCopied)
	assert.Equal(t, 0, s.FilesFailed)
	assert.Equal(t, 1, s.LinksRewritten)
	assert.Equal(t, 1, s.LinksUnresolved)
	assert.Equal(t, 1, s.EmbedsExpanded)
	assert.Equal(t, "test", s.Revision)

	home := f.read(t, "home.md")
	assert.True(t, strings.HasPrefix(home, "---\ntitle: home\nslug: home\n---\n"), home)
	assert.Contains(t, home, "[Start Here](/guides/getting-started#quick-start)")
	assert.Contains(t, home, "[Nowhere](/nowhere)")
	assert.Contains(t, home, "Shared text.")
	assert.NotContains(t, home, "hidden")

	guide := f.read(t, "guides/getting-started.md")
	assert.Contains(t, guide, "title: Getting Started\n")
	assert.Contains(t, guide, "slug: getting-started\n")

	assert.Equal(t, "\x89PNG\x00binary", f.read(t, "img/pic.png"))

	st, err := os.Stat(filepath.Join(f.dest, "home.md"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o444), st.Mode().Perm())
}

func TestRun_KeepsAuthoredMetadata(t *testing.T) {
	f := newFixture(t, vault)
	f.run(t)

	assert.Equal(t, vault["custom.md"], f.read(t, "custom.md"))
}

func TestRun_PresentButUnusableMetadataIsNotDuplicated(t *testing.T) {
	f := newFixture(t, map[string]string{
		"empty-title.md": "---\ntitle:\n---\nbody\n",
		"list-title.md":  "---\ntitle: [a, b]\n---\nbody\n",
		"bad-slug.md":    "---\nslug: \"///\"\n---\nbody\n",
	})
	res := f.run(t)
	assert.Equal(t, 3, res.Summary.DocumentsWritten)

	for name, key := range map[string]string{"empty-title.md": "title:", "list-title.md": "title:", "bad-slug.md": "slug:"} {
		fm, _, had, _, err := frontmatter.Split([]byte(f.read(t, name)))
		require.NoError(t, err, name)
		require.True(t, had, name)
		_, err = frontmatter.ParseYAML(fm)
		require.NoError(t, err, name)
		assert.Equal(t, 1, strings.Count(string(fm), key), name)
	}
	assert.Equal(t, "---\ntitle:\nslug: empty-title\n---\nbody\n", f.read(t, "empty-title.md"))
}

func TestRun_WritesNavigationAndDiagnostics(t *testing.T) {
	f := newFixture(t, vault)
	f.cfg.Navigation.JSONOutput = "sidebars.json"
	f.cfg.Diagnostics.LinkDB = "links.db"
	f.cfg.Diagnostics.MetricsFile = "docmigrate.prom"
	res := f.run(t, WithRunID("run-1"), WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }))

	require.NotNil(t, res.Sidebars)
	assert.Equal(t, []string{"Intro", "Guides", "Img"}, res.Sidebars.Names())

	ts, err := os.ReadFile(filepath.Join(f.site, "sidebars.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(ts), "export default sidebars;")
	assert.FileExists(t, filepath.Join(f.site, "sidebars.json"))
	assert.FileExists(t, filepath.Join(f.site, "navbarItems.ts"))
	assert.FileExists(t, filepath.Join(f.debug, "docs-tree.txt"))
	assert.FileExists(t, filepath.Join(f.debug, asciiTreeFile))

	snapshot, err := os.ReadFile(filepath.Join(f.debug, "master-index.json"))
	require.NoError(t, err)
	assert.Contains(t, string(snapshot), `"run_id": "run-1"`)

	unresolved, err := os.ReadFile(filepath.Join(f.debug, "unresolvedLinks.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(unresolved)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Unresolved wikilinks (run run-1)", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], filepath.Join(f.source, "home.md")+":1:"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], " - Unresolved wikilink: [[Nowhere]]"), lines[1])

	m, err := LoadManifest(filepath.Join(f.debug, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", m.RunID)
	assert.Len(t, m.Files, 4)
	assert.Contains(t, m.Files, "guides/getting-started.md")

	prom, err := os.ReadFile(filepath.Join(f.debug, "docmigrate.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `docmigrate_files_total{result="written"} 4`)

	store, err := linkgraph.Open(filepath.Join(f.debug, "links.db"))
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()
	runs, err := store.Runs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1"}, runs)
}

func TestRun_CleansDestinationButKeepsDiagnostics(t *testing.T) {
	f := newFixture(t, vault)
	f.cfg.Diagnostics.Dir = filepath.Join(f.dest, "_debug")
	writeTree(t, f.dest, map[string]string{
		"stale.md":            "old",
		".gitkeep":            "",
		"_debug/warnings.log": "previous run\n",
	})

	res := f.run(t)
	assert.Equal(t, 1, res.Summary.FilesRemoved)
	assert.NoFileExists(t, filepath.Join(f.dest, "stale.md"))
	assert.FileExists(t, filepath.Join(f.dest, ".gitkeep"))
	assert.FileExists(t, filepath.Join(f.dest, "_debug", "warnings.log"))
	assert.FileExists(t, filepath.Join(f.dest, "_debug", "master-index.json"))
}

func TestRun_SkipsUnchangedWithoutCleaning(t *testing.T) {
	f := newFixture(t, vault)
	keep := false
	f.cfg.CleanDestination = &keep

	first := f.run(t)
	assert.Equal(t, 4, first.Summary.DocumentsWritten)

	second := f.run(t)
	assert.Equal(t, 0, second.Summary.DocumentsWritten)
	assert.Equal(t, 4, second.Summary.FilesUnchanged)
	assert.Equal(t, 1, second.Summary.FilesCopied)

	writeTree(t, f.source, map[string]string{"snippet.md": "# Part\nNew text.\n"})
	third := f.run(t)
	// snippet.md changed, and home.md embeds it.
	assert.Equal(t, 2, third.Summary.DocumentsWritten)
	assert.Contains(t, f.read(t, "home.md"), "New text.")
}

func TestRun_IsolatesFailedFile(t *testing.T) {
	f := newFixture(t, vault)
	keep := false
	f.cfg.CleanDestination = &keep
	// A non-empty directory where home.md should go cannot be replaced.
	writeTree(t, f.dest, map[string]string{"home.md/blocker": "x"})

	res := f.run(t)
	assert.Equal(t, 1, res.Summary.FilesFailed)
	assert.Equal(t, 3, res.Summary.DocumentsWritten)
	assert.Equal(t, 1, f.log.Count("error", "Failed to transform file"))
	assert.Contains(t, f.read(t, "guides/getting-started.md"), "Run it.")
}

func TestRun_WorkersMatchSequential(t *testing.T) {
	seq := newFixture(t, vault)
	seqRes := seq.run(t)

	par := newFixture(t, vault)
	par.cfg.Workers = 4
	parRes := par.run(t)

	assert.Equal(t, seqRes.Summary.DocumentsWritten, parRes.Summary.DocumentsWritten)
	assert.Equal(t, seqRes.Summary.LinksRewritten, parRes.Summary.LinksRewritten)
	assert.Equal(t, seqRes.Summary.LinksUnresolved, parRes.Summary.LinksUnresolved)
	assert.Equal(t, seqRes.Summary.EmbedsExpanded, parRes.Summary.EmbedsExpanded)
	for _, rel := range []string{"home.md", "guides/getting-started.md", "custom.md"} {
		assert.Equal(t, seq.read(t, rel), par.read(t, rel), rel)
	}
}

func TestRun_BasenameCollisionWarnsOnce(t *testing.T) {
	f := newFixture(t, map[string]string{
		"docs/guide/readme.md": "# Guide\n",
		"docs/setup/readme.md": "# Setup\n",
		"links.md":             "[[guide/readme]] and [[setup/readme]]\n",
	})
	res := f.run(t)

	assert.Equal(t, 1, f.log.Count("warning", "Duplicate source filename"))
	assert.Equal(t, 0, f.log.Count("warning", "Basename collision"))
	assert.Equal(t, 2, res.Summary.LinksRewritten)
	assert.Equal(t, 0, res.Summary.LinksUnresolved)
	links := f.read(t, "links.md")
	assert.Contains(t, links, "(/docs/guide/readme)")
	assert.Contains(t, links, "(/docs/setup/readme)")
}

func TestRun_SlugOnlyCollisionWarnsOnce(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a/Read Me.md": "one\n",
		"b/read-me.md": "two\n",
	})
	f.run(t)

	assert.Equal(t, 0, f.log.Count("warning", "Duplicate source filename"))
	assert.Equal(t, 1, f.log.Count("warning", "Basename collision"))
}

func TestRun_StrictDocIDsAbortsBeforeWriting(t *testing.T) {
	f := newFixture(t, map[string]string{
		"note.md":  "a\n",
		"note.txt": "b\n",
	})
	f.cfg.StrictDocIDs = true

	_, err := New(f.cfg, WithRevision("test")).Run(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	assert.NoFileExists(t, filepath.Join(f.dest, "note.md"))
}

func TestRun_CanceledContext(t *testing.T) {
	f := newFixture(t, vault)
	f.cfg.Workers = 2
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(f.cfg, WithRevision("test")).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMissingFields(t *testing.T) {
	rec := &index.FileRecord{DestTitle: "Intro", DestSlug: "intro.md", SidebarPosition: 0}
	fields := missingFields(rec)
	require.Len(t, fields, 3)
	assert.Equal(t, "title", fields[0].Key)
	assert.Equal(t, "Intro", fields[0].Value)
	assert.Equal(t, "slug", fields[1].Key)
	assert.Equal(t, "intro", fields[1].Value)
	assert.Equal(t, "sidebar_position", fields[2].Key)

	rec = &index.FileRecord{DestTitle: "Intro", DestSlug: "intro.md", SidebarPosition: -1, ExplicitTitle: true}
	fields = missingFields(rec)
	require.Len(t, fields, 1)
	assert.Equal(t, "slug", fields[0].Key)
}
