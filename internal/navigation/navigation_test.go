package navigation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	"git.home.luguber.info/inful/docmigrate/internal/index"
)

func buildIndex(t *testing.T, files map[string]string) *index.Index {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
	ix, err := index.NewBuilder(index.Options{}, nil).Build(root)
	require.NoError(t, err)
	return ix
}

func vault(t *testing.T) *index.Index {
	return buildIndex(t, map[string]string{
		"about.md":                    "---\ntitle: About\nsidebar_position: 1\n---\n",
		"intro.md":                    "---\nsidebar_position: 2\n---\n",
		"Zeta.md":                     "z",
		"solo/index.md":               "---\ntitle: Solo Page\n---\n",
		"guides/index.md":             "---\ntitle: Overview\n---\n",
		"guides/step 10.md":           "x",
		"guides/step 2.md":            "x",
		"guides/advanced/advanced.md": "x",
		"guides/advanced/tips.md":     "x",
	})
}

func docIDs(nodes []Node) []string {
	var out []string
	for _, n := range nodes {
		switch v := n.(type) {
		case *Doc:
			out = append(out, v.ID)
		case *Ref:
			out = append(out, "ref:"+v.ID)
		case *Category:
			out = append(out, "category:"+v.Label)
		}
	}
	return out
}

func TestBuild_GroupsInOrder(t *testing.T) {
	sb := Build(vault(t), Options{}, nil)
	assert.Equal(t, []string{"Intro", "Guides", "Solo Page"}, sb.Names())
}

func TestBuild_RootGroupOrdering(t *testing.T) {
	sb := Build(vault(t), Options{
		RootGroup:  "Start",
		Crosslinks: []Crosslink{{ID: "guides/index", Label: "Guides"}},
	}, nil)

	g, ok := sb.Group("Start")
	require.True(t, ok)
	assert.Equal(t, []string{"about", "intro", "zeta", "ref:guides/index"}, docIDs(g.Items))
	assert.Equal(t, "About", g.Items[0].(*Doc).Label)
	assert.Equal(t, "intro", g.Items[1].(*Doc).Label)
}

func TestBuild_SingleIndexFolderIsOneLeaf(t *testing.T) {
	sb := Build(vault(t), Options{}, nil)

	g, ok := sb.Group("Solo Page")
	require.True(t, ok)
	require.Len(t, g.Items, 1)
	leaf, isDoc := g.Items[0].(*Doc)
	require.True(t, isDoc, "expected a leaf, got %T", g.Items[0])
	assert.Equal(t, "solo/index", leaf.ID)
	assert.Equal(t, "Solo Page", leaf.Label)
}

func TestBuild_FolderGroupLayout(t *testing.T) {
	sb := Build(vault(t), Options{}, nil)

	g, ok := sb.Group("Guides")
	require.True(t, ok)
	assert.Equal(t, []string{"guides/index", "category:Advanced", "guides/step-2", "guides/step-10"}, docIDs(g.Items))
	assert.Equal(t, "Overview", g.Items[0].(*Doc).Label)

	adv := g.Items[1].(*Category)
	assert.Equal(t, "guides/advanced/advanced", adv.Link)
	assert.Equal(t, []string{"guides/advanced/tips"}, docIDs(adv.Items))
}

func TestBuild_NestedCategoriesBeforeDocs(t *testing.T) {
	ix := buildIndex(t, map[string]string{
		"ref/a.md":          "x",
		"ref/api/b.md":      "x",
		"ref/api/deep/c.md": "x",
	})
	sb := Build(ix, Options{}, nil)

	g, ok := sb.Group("Ref")
	require.True(t, ok)
	assert.Equal(t, []string{"category:Api", "ref/a"}, docIDs(g.Items))
	api := g.Items[0].(*Category)
	assert.Empty(t, api.Link)
	assert.Equal(t, []string{"category:Deep", "ref/api/b"}, docIDs(api.Items))
}

func TestBuild_DuplicateGroupNames(t *testing.T) {
	ix := buildIndex(t, map[string]string{
		"a/index.md": "---\ntitle: Docs\n---\n",
		"a/x.md":     "x",
		"b/index.md": "---\ntitle: Docs\n---\n",
		"b/y.md":     "y",
	})
	log := diagnostics.NewMemory()
	sb := Build(ix, Options{}, log)

	assert.Equal(t, []string{"Intro", "Docs", "Docs 2"}, sb.Names())
	assert.Equal(t, 1, log.Count("warning", "Duplicate sidebar name"))
}

func TestDetectIndexDoc_Priority(t *testing.T) {
	folder := &index.FolderRecord{DestDir: "a/b", FinalDestFolder: "b", DestSlug: "b", SourceName: "B"}
	exact := &index.FileRecord{DocID: "a/b", DestSlug: "other.md"}
	named := &index.FileRecord{DocID: "a/b/b", DestSlug: "b.md"}
	readme := &index.FileRecord{DocID: "a/b/readme", DestSlug: "README.md"}
	plain := &index.FileRecord{DocID: "a/b/x", DestSlug: "x.md"}

	assert.Same(t, exact, DetectIndexDoc(folder, []*index.FileRecord{plain, readme, named, exact}))
	assert.Same(t, named, DetectIndexDoc(folder, []*index.FileRecord{plain, readme, named}))
	assert.Same(t, readme, DetectIndexDoc(folder, []*index.FileRecord{plain, readme}))
	assert.Nil(t, DetectIndexDoc(folder, []*index.FileRecord{plain}))
}

func TestParseCrosslinks(t *testing.T) {
	links, err := ParseCrosslinks([]byte(`[{"id":"a","label":"A"},{"id":1,"label":"bad"},{"label":"no id"}]`))
	require.NoError(t, err)
	assert.Equal(t, []Crosslink{{ID: "a", Label: "A"}}, links)

	links, err = ParseCrosslinks([]byte(`{"links":[{"id":"b","label":"B"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []Crosslink{{ID: "b", Label: "B"}}, links)

	_, err = ParseCrosslinks([]byte(`{not json`))
	assert.Error(t, err)
}

func TestLoadCrosslinks(t *testing.T) {
	dir := t.TempDir()
	log := diagnostics.NewMemory()

	assert.Nil(t, LoadCrosslinks(filepath.Join(dir, "missing.json"), log))
	assert.Empty(t, log.Entries("warning"))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("[{"), 0o600))
	assert.Nil(t, LoadCrosslinks(bad, log))
	assert.Equal(t, 1, log.Count("warning", "malformed crosslinks"))

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"id":"x","label":"X"}]`), 0o600))
	assert.Equal(t, []Crosslink{{ID: "x", Label: "X"}}, LoadCrosslinks(good, log))
}

func TestRenderJSON_KeepsGroupOrderAndShapes(t *testing.T) {
	sb := Build(vault(t), Options{}, nil)
	data, err := RenderJSON(sb)
	require.NoError(t, err)

	text := string(data)
	assert.Less(t, strings.Index(text, `"Intro"`), strings.Index(text, `"Guides"`))
	assert.Less(t, strings.Index(text, `"Guides"`), strings.Index(text, `"Solo Page"`))

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	guides := decoded["Guides"]
	require.Len(t, guides, 4)
	assert.Equal(t, "doc", guides[0]["type"])
	assert.Equal(t, "category", guides[1]["type"])
	assert.Equal(t, map[string]any{"type": "doc", "id": "guides/advanced/advanced"}, guides[1]["link"])
	assert.NotContains(t, guides[0], "Position")
}

func TestRenderTS(t *testing.T) {
	data, err := RenderTS(&Sidebars{Groups: []Group{{Name: "Intro"}}})
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "import type { SidebarsConfig } from '@docusaurus/plugin-content-docs';")
	assert.Contains(t, text, "const sidebars: SidebarsConfig = {\n  \"Intro\": []\n};")
	assert.True(t, strings.HasSuffix(text, "export default sidebars;\n"))
}

func TestNavbarItems(t *testing.T) {
	sb := &Sidebars{Groups: []Group{{Name: "Intro"}, {Name: "Guides"}}}
	items := NavbarItems(sb, []NavbarItem{
		{Label: "Blog", To: "/blog"},
		{Label: "GitHub", Href: "https://example.com", Position: "right"},
	})

	require.Len(t, items, 4)
	assert.Equal(t, NavbarItem{Type: "docSidebar", SidebarID: "Guides", Label: "Guides", Position: "left"}, items[1])
	assert.Equal(t, "left", items[2].Position)
	assert.Equal(t, "right", items[3].Position)

	data, err := RenderNavbarTS(items)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sidebarId": "Intro"`)
	assert.Contains(t, string(data), "export default navbarItems;")
}

func TestDebugTrees(t *testing.T) {
	ix := vault(t)

	tree := DebugTree(ix)
	assert.Contains(t, tree, "- [index] Solo Page (docId=solo/index")
	assert.Contains(t, tree, "    - [doc] tips (docId=guides/advanced/tips, pos=auto")

	ascii := ASCIITree(ix)
	assert.Contains(t, ascii, "├── About (pos=1, \"about.md\")")
	assert.Contains(t, ascii, "│   advanced (pos=10")
}
