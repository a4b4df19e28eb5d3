package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/markdown"
)

var vaultFiles = map[string]string{
	"guides/getting-started.md": "---\ntitle: Getting Started\n---\n# Getting Started\n\n## Quick Start\nrun it\n\n## Details\nmore\n",
	"guide/readme.md":           "# Guide\n",
	"setup/readme.md":           "# Setup\n",
	"notes/Alpha Note.md":       "---\nslug: alpha\n---\nalpha body\n",
	"notes/embed-source.md":     "# A\nx\n## B\ny\n# C\nz",
	"notes/with-local.md":       "## Intro\nSee [[#Intro]] here\n",
	"loop/a.md":                 "A start\n![[b]]",
	"loop/b.md":                 "B start\n![[a]]",
	"chain/one.md":              "![[two]]",
	"chain/two.md":              "two ![[three]]",
	"chain/three.md":            "three",
	"img/Pic One.png":           "PNG",
}

func setup(t *testing.T, opts Options) (*index.Index, *Resolver, *diagnostics.Memory) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range vaultFiles {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
	ix, err := index.NewBuilder(index.Options{}, nil).Build(root)
	require.NoError(t, err)
	if opts.LinkPrefix == "" {
		opts.LinkPrefix = "/"
	}
	log := diagnostics.NewMemory()
	return ix, New(ix, opts, log), log
}

func record(t *testing.T, ix *index.Index, id string) *index.FileRecord {
	t.Helper()
	for _, f := range ix.Documents() {
		if f.DocID == id {
			return f
		}
	}
	t.Fatalf("no document %q", id)
	return nil
}

func TestResolve_FallbackOrder(t *testing.T) {
	_, r, _ := setup(t, Options{})

	tests := []struct {
		target   string
		wantID   string
		strategy Strategy
	}{
		{"Getting Started", "guides/getting-started", StrategyTitle},
		{"getting-started", "guides/getting-started", StrategyName},
		{"Alpha Note", "notes/alpha", StrategyName},
		{"ALPHA", "notes/alpha", StrategySlug},
		{"Getting_Started", "guides/getting-started", StrategySlugified},
		{"setup/readme", "setup/readme", StrategyPath},
		{"guide/readme.md", "guide/readme", StrategyPath},
		{"README", "guide/readme", StrategyName},
		{"Nowhere", "", StrategyUnresolved},
		{"   ", "", StrategyUnresolved},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec, strategy := r.Resolve(tt.target)
			assert.Equal(t, tt.strategy, strategy)
			if tt.wantID == "" {
				assert.Nil(t, rec)
				return
			}
			require.NotNil(t, rec)
			assert.Equal(t, tt.wantID, rec.DocID)
		})
	}
}

func TestProcess_HeadingAndAlias(t *testing.T) {
	ix, r, _ := setup(t, Options{})
	src := record(t, ix, "notes/embed-source")

	res, err := r.Process(src, []byte("See [[Getting Started#Quick Start|Start Here]]."), 0)
	require.NoError(t, err)
	assert.Equal(t, "See [Start Here](/guides/getting-started#quick-start).", string(res.Body))
	assert.Equal(t, 1, res.Stats.LinksRewritten)
	assert.Zero(t, res.Stats.LinksUnresolved)
	assert.EqualValues(t, 1, record(t, ix, "guides/getting-started").References())

	require.Len(t, res.Links, 1)
	assert.Equal(t, Link{
		Source:   "notes/embed-source",
		Target:   "guides/getting-started",
		Raw:      "[[Getting Started#Quick Start|Start Here]]",
		Strategy: StrategyTitle,
		Line:     1,
	}, res.Links[0])
}

func TestProcess_DisplayText(t *testing.T) {
	ix, r, _ := setup(t, Options{LinkPrefix: "/docs/"})
	src := record(t, ix, "notes/embed-source")

	tests := map[string]string{
		"[[Getting Started#Quick Start]]": "[Quick Start](/docs/guides/getting-started#quick-start)",
		"[[Getting Started]]":             "[Getting Started](/docs/guides/getting-started)",
		"[[setup/readme|Setup]]":          "[Setup](/docs/setup/readme)",
		"[[#My Heading]]":                 "[My Heading](#my-heading)",
		"[[#^block-1|jump]]":              "[jump](#^block-1)",
		"[[Getting Started#^abc]]":        "[^abc](/docs/guides/getting-started#^abc)",
	}
	for in, want := range tests {
		res, err := r.Process(src, []byte(in), 0)
		require.NoError(t, err)
		assert.Equal(t, want, string(res.Body), in)
	}
}

func TestProcess_Unresolved(t *testing.T) {
	ix, r, _ := setup(t, Options{})
	src := record(t, ix, "notes/embed-source")

	res, err := r.Process(src, []byte("line1\n[[Nowhere Land]] and [[Nowhere Land#Part|p]]"), 3)
	require.NoError(t, err)
	assert.Equal(t, "line1\n[Nowhere Land](/nowhere-land) and [p](/nowhere-land#part)", string(res.Body))
	assert.Equal(t, 2, res.Stats.LinksUnresolved)
	assert.Zero(t, res.Stats.LinksRewritten)

	require.Len(t, res.Unresolved, 2)
	first := res.Unresolved[0]
	assert.Equal(t, src.SourcePath, first.Source)
	assert.Equal(t, 5, first.Line)
	assert.Equal(t, 1, first.Column)
	assert.Equal(t, "[[Nowhere Land]]", first.Original)
	assert.Equal(t, 22, res.Unresolved[1].Column)
}

func TestProcess_ProtectedRegions(t *testing.T) {
	ix, r, _ := setup(t, Options{})
	src := record(t, ix, "notes/embed-source")

	body := "`[[Getting Started]]` and `![[embed-source]]`\n\n```\n[[Getting Started]]\n![[embed-source]]\n```\n"
	res, err := r.Process(src, []byte(body), 0)
	require.NoError(t, err)
	assert.Equal(t, body, string(res.Body))
	assert.Zero(t, res.Stats.LinksRewritten)
	assert.Zero(t, res.Stats.EmbedsExpanded)
}

func TestExpandEmbeds_Section(t *testing.T) {
	ix, r, _ := setup(t, Options{})
	src := record(t, ix, "guides/getting-started")

	out, stats := r.ExpandEmbeds(src, []byte("before\n\n![[embed-source#B]]\n\nafter"))
	assert.Equal(t, "before\n\n## B\ny\n\nafter", string(out))
	assert.Equal(t, 1, stats.EmbedsExpanded)
}

func TestExpandEmbeds_WholeFileStripsFrontMatter(t *testing.T) {
	ix, r, _ := setup(t, Options{})
	src := record(t, ix, "guides/getting-started")

	out, _ := r.ExpandEmbeds(src, []byte("![[Alpha Note]]"))
	assert.Equal(t, "alpha body", string(out))

	out, _ = r.ExpandEmbeds(src, []byte("![[embed-source]]"))
	assert.Equal(t, "# A\nx\n## B\ny\n# C\nz", string(out))
}

func TestExpandEmbeds_Missing(t *testing.T) {
	ix, r, log := setup(t, Options{})
	src := record(t, ix, "guides/getting-started")

	out, stats := r.ExpandEmbeds(src, []byte("![[ghost]]\n\n![[embed-source#Nope]]"))
	assert.Equal(t, "> **Missing embed: ghost**\n\n> **Missing embed section:** embed-source#Nope", string(out))
	assert.Equal(t, 2, stats.EmbedsMissing)
	assert.Zero(t, stats.EmbedsExpanded)
	assert.Equal(t, 1, log.Count("warning", "Embed target not found"))
	assert.Equal(t, 1, log.Count("warning", "Embed section not found"))
}

func TestProcess_EmbeddedInPageLinksPointAtOrigin(t *testing.T) {
	ix, r, _ := setup(t, Options{})
	src := record(t, ix, "guides/getting-started")

	res, err := r.Process(src, []byte("![[with-local#Intro]]"), 0)
	require.NoError(t, err)
	assert.Equal(t, "## Intro\nSee [Intro](/notes/with-local#intro) here", string(res.Body))
}

func TestExpandEmbeds_SelfEmbed(t *testing.T) {
	ix, r, _ := setup(t, Options{})
	src := record(t, ix, "notes/with-local")

	out, stats := r.ExpandEmbeds(src, []byte("top\n\n![[#Intro]]"))
	assert.Equal(t, "top\n\n## Intro\nSee [[#Intro]] here", string(out))
	assert.Equal(t, 1, stats.EmbedsExpanded)
}

func TestExpandEmbeds_Cycle(t *testing.T) {
	ix, r, log := setup(t, Options{})
	src := record(t, ix, "loop/a")

	out, stats := r.ExpandEmbeds(src, []byte("A start\n![[b]]"))
	assert.Equal(t, "A start\nB start\n> **Embed cycle: a**", string(out))
	assert.Equal(t, 1, stats.EmbedsExpanded)
	assert.Equal(t, 1, stats.EmbedsMissing)
	assert.Equal(t, 1, log.Count("warning", "Embed cycle detected"))
}

func TestExpandEmbeds_DepthLimit(t *testing.T) {
	ix, r, _ := setup(t, Options{MaxEmbedDepth: 1})
	src := record(t, ix, "chain/one")

	out, _ := r.ExpandEmbeds(src, []byte("![[two]]"))
	assert.Equal(t, "two > **Embed depth exceeded: three**", string(out))

	_, deep, _ := setup(t, Options{MaxEmbedDepth: 4})
	out, _ = deep.ExpandEmbeds(src, []byte("![[two]]"))
	assert.Equal(t, "two three", string(out))
}

func TestExpandEmbeds_Assets(t *testing.T) {
	ix, r, _ := setup(t, Options{})
	src := record(t, ix, "guides/getting-started")

	out, stats := r.ExpandEmbeds(src, []byte("![[Pic One.png|Diagram]] ![[img/pic one.png|300]]"))
	assert.Equal(t, "![Diagram](<../img/Pic One.png>) ![Pic One](<../img/Pic One.png>)", string(out))
	assert.Equal(t, 2, stats.EmbedsExpanded)
}

func TestRelativePath(t *testing.T) {
	tests := []struct{ dir, target, want string }{
		{"", "img/a.png", "./img/a.png"},
		{"img", "img/a.png", "./a.png"},
		{"guides", "img/a.png", "../img/a.png"},
		{"a/b", "a/c/x.png", "../c/x.png"},
		{"a/b", "x.png", "../../x.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relativePath(tt.dir, tt.target), "%s -> %s", tt.dir, tt.target)
	}
}

func TestProcess_EscapedSyntaxIsLiteral(t *testing.T) {
	ix, r, _ := setup(t, Options{})
	src := record(t, ix, "guides/getting-started")

	in := `keep \![[embed-source#B]] and \[[Alpha Note]] but [[Alpha Note]]`
	res, err := r.Process(src, []byte(in), 0)
	require.NoError(t, err)
	assert.Equal(t, `keep \![[embed-source#B]] and \[[Alpha Note]] but [Alpha Note](/notes/alpha)`, string(res.Body))
	assert.Zero(t, res.Stats.EmbedsExpanded)
	assert.Equal(t, 1, res.Stats.LinksRewritten)
}

func TestProcess_UnresolvedPositionsAfterEmbed(t *testing.T) {
	ix, r, _ := setup(t, Options{})
	src := record(t, ix, "guides/getting-started")

	body := "intro\n![[embed-source]] tail [[Nowhere]]\n[[Also Missing]]"
	res, err := r.Process(src, []byte(body), 3)
	require.NoError(t, err)
	assert.Equal(t, "intro\n# A\nx\n## B\ny\n# C\nz tail [Nowhere](/nowhere)\n[Also Missing](/also-missing)", string(res.Body))

	require.Len(t, res.Unresolved, 2)
	assert.Equal(t, 5, res.Unresolved[0].Line)
	assert.Equal(t, 24, res.Unresolved[0].Column)
	assert.Equal(t, 6, res.Unresolved[1].Line)
	assert.Equal(t, 1, res.Unresolved[1].Column)
}

func TestSourceMap(t *testing.T) {
	// "ab![[x]]cd" with the embed replaced by "LONG\nTEXT".
	m := newSourceMap([]markdown.Edit{{Start: 2, End: 8, Replacement: []byte("LONG\nTEXT")}})
	assert.Equal(t, 1, m.original(1))
	assert.Equal(t, 2, m.original(5), "inside the expansion")
	assert.Equal(t, 8, m.original(11))
	assert.Equal(t, 9, m.original(12))

	var none sourceMap
	assert.Equal(t, 7, none.original(7))
}
