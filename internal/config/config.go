package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
)

// DefaultFileName is looked up in the working directory when no --config is given.
const DefaultFileName = "docmigrate.yaml"

// Config is the complete migration configuration.
type Config struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	// SiteRoot receives navigation files (sidebars.ts, navbarItems.ts). Defaults
	// to the parent of Destination.
	SiteRoot   string `yaml:"site_root,omitempty"`
	FixtureDir string `yaml:"fixture_dir,omitempty"`

	IgnorePrefix             string     `yaml:"ignore_prefix"`
	DocumentExtensions       []string   `yaml:"document_extensions"`
	FolderPositionPrecedence Precedence `yaml:"folder_position_precedence"`
	PositionStep             int        `yaml:"position_step"`
	NumberFolders            bool       `yaml:"number_folders"`
	InferFilePositions       bool       `yaml:"infer_file_positions"`

	LinkPrefix       string `yaml:"link_prefix"`
	MaxEmbedDepth    int    `yaml:"max_embed_depth"`
	Workers          int    `yaml:"workers"`
	StrictDocIDs     bool   `yaml:"strict_doc_ids"`
	CleanDestination *bool  `yaml:"clean_destination,omitempty"`

	Navigation  NavigationConfig  `yaml:"navigation"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// Precedence selects which folder position source wins when both exist.
type Precedence string

const (
	PrefixFirst   Precedence = "prefix-first"
	MetadataFirst Precedence = "metadata-first"
)

// NavigationConfig controls the generated sidebar and navbar files.
type NavigationConfig struct {
	RootGroup    string       `yaml:"root_group"`
	Output       string       `yaml:"output"`
	JSONOutput   string       `yaml:"json_output,omitempty"`
	Crosslinks   string       `yaml:"crosslinks,omitempty"`
	NavbarOutput string       `yaml:"navbar_output,omitempty"`
	NavbarItems  []NavbarItem `yaml:"navbar_items,omitempty"`
}

// NavbarItem is an extra navbar entry appended after the generated sidebar items.
type NavbarItem struct {
	Label    string `yaml:"label" json:"label"`
	To       string `yaml:"to,omitempty" json:"to,omitempty"`
	Href     string `yaml:"href,omitempty" json:"href,omitempty"`
	Position string `yaml:"position,omitempty" json:"position,omitempty"`
}

// DiagnosticsConfig names the side-channel files. Empty names disable a file;
// relative names resolve inside Dir.
type DiagnosticsConfig struct {
	Dir           string `yaml:"dir"`
	IndexSnapshot string `yaml:"index_snapshot"`
	UnresolvedLog string `yaml:"unresolved_log"`
	WarningsLog   string `yaml:"warnings_log"`
	ErrorsLog     string `yaml:"errors_log"`
	Manifest      string `yaml:"manifest"`
	DebugTree     string `yaml:"debug_tree"`
	LinkDB        string `yaml:"link_db,omitempty"`
	MetricsFile   string `yaml:"metrics_file,omitempty"`
}

// Load reads a YAML config file, expanding ${VAR} references after loading
// .env files from the config's directory. Relative paths in the result are
// resolved against that directory.
func Load(path string) (*Config, error) {
	baseDir := filepath.Dir(path)
	loadEnvFiles(baseDir)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").WithContext("path", path).WithCause(err).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").WithContext("path", path).Fatal().Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").WithContext("path", path).Fatal().Build()
	}
	cfg.ResolvePaths(baseDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into a defaulted Config. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Clean reports whether the destination is emptied before writing.
func (c *Config) Clean() bool {
	return c.CleanDestination == nil || *c.CleanDestination
}

// DiagnosticPath resolves a diagnostics file name, returning "" when disabled.
func (c *Config) DiagnosticPath(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Diagnostics.Dir, name)
}

// SitePath resolves a navigation file name against SiteRoot.
func (c *Config) SitePath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.SiteRoot, name)
}

// ResolvePaths makes relative paths absolute against baseDir and fills the
// directories derived from Destination.
func (c *Config) ResolvePaths(baseDir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	c.Source = abs(c.Source)
	c.Destination = abs(c.Destination)
	c.FixtureDir = abs(c.FixtureDir)
	c.SiteRoot = abs(c.SiteRoot)
	if c.SiteRoot == "" && c.Destination != "" {
		c.SiteRoot = filepath.Dir(c.Destination)
	}
	if d := c.Diagnostics.Dir; d != "" && !filepath.IsAbs(d) {
		if c.SiteRoot != "" {
			c.Diagnostics.Dir = filepath.Join(c.SiteRoot, d)
		} else {
			c.Diagnostics.Dir = abs(d)
		}
	}
	if c.Navigation.Crosslinks != "" && !filepath.IsAbs(c.Navigation.Crosslinks) {
		c.Navigation.Crosslinks = filepath.Join(baseDir, c.Navigation.Crosslinks)
	}
}
