package config

// Defaults for a migration run.
const (
	DefaultIgnorePrefix   = "."
	DefaultPositionStep   = 10
	DefaultLinkPrefix     = "/"
	DefaultMaxEmbedDepth  = 4
	DefaultWorkers        = 1
	DefaultRootGroup      = "Intro"
	DefaultSidebarsFile   = "sidebars.ts"
	DefaultNavbarFile     = "navbarItems.ts"
	DefaultDiagnosticsDir = "debug"
	DefaultFixtureDir     = "testdata/vault"
)

// DefaultDocumentExtensions lists file extensions treated as documents.
var DefaultDocumentExtensions = []string{".md", ".txt"}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.IgnorePrefix == "" {
		c.IgnorePrefix = DefaultIgnorePrefix
	}
	if len(c.DocumentExtensions) == 0 {
		c.DocumentExtensions = append([]string(nil), DefaultDocumentExtensions...)
	}
	if c.FolderPositionPrecedence == "" {
		c.FolderPositionPrecedence = PrefixFirst
	}
	if c.PositionStep == 0 {
		c.PositionStep = DefaultPositionStep
	}
	if c.LinkPrefix == "" {
		c.LinkPrefix = DefaultLinkPrefix
	}
	if c.MaxEmbedDepth == 0 {
		c.MaxEmbedDepth = DefaultMaxEmbedDepth
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.FixtureDir == "" {
		c.FixtureDir = DefaultFixtureDir
	}

	nav := &c.Navigation
	if nav.RootGroup == "" {
		nav.RootGroup = DefaultRootGroup
	}
	if nav.Output == "" {
		nav.Output = DefaultSidebarsFile
	}
	if nav.NavbarOutput == "" {
		nav.NavbarOutput = DefaultNavbarFile
	}

	d := &c.Diagnostics
	if d.Dir == "" {
		d.Dir = DefaultDiagnosticsDir
	}
	if d.IndexSnapshot == "" {
		d.IndexSnapshot = "master-index.json"
	}
	if d.UnresolvedLog == "" {
		d.UnresolvedLog = "unresolvedLinks.log"
	}
	if d.WarningsLog == "" {
		d.WarningsLog = "warnings.log"
	}
	if d.ErrorsLog == "" {
		d.ErrorsLog = "errors.log"
	}
	if d.Manifest == "" {
		d.Manifest = "manifest.json"
	}
	if d.DebugTree == "" {
		d.DebugTree = "docs-tree.txt"
	}
}
