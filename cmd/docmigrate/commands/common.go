package commands

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
)

// Global is passed to every command's Run.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (default: ./docmigrate.yaml when present)" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging and print the title map after a migration"`
	Debug     bool             `short:"d" help:"Debug mode: source locations in logs, sidebars.json and the link graph database"`
	Test      bool             `short:"t" help:"Read the vault from the configured fixture directory"`
	Source    string           `help:"Source vault directory (overrides config)" type:"path"`
	Dest      string           `help:"Destination docs directory (overrides config)" type:"path"`
	LogFormat string           `name:"log-format" help:"Log output format" enum:"text,json" default:"text"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Migrate MigrateCmd `cmd:"" default:"withargs" help:"Migrate the vault into the docs tree (default command)"`
	Index   IndexCmd   `cmd:"" help:"Build the index and print its snapshot"`
	Resolve ResolveCmd `cmd:"" help:"Resolve a wikilink target against the index"`
	Sidebar SidebarCmd `cmd:"" help:"Print the generated sidebars"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(c.newLogger(os.Stderr))
	return nil
}

func (c *CLI) newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.Verbose || c.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: c.Debug}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoadConfig reads the configuration and applies command-line overrides.
// Without --config, ./docmigrate.yaml is used when it exists and defaults
// otherwise.
func LoadConfig(root *CLI) (*config.Config, error) {
	path := root.Config
	if path == "" {
		if _, err := os.Stat(config.DefaultFileName); err == nil {
			path = config.DefaultFileName
		}
	}

	var cfg *config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg = config.Default()
		cfg.Source, cfg.Destination = root.Source, root.Dest
		cfg.ResolvePaths(cwd)
	}

	applyOverrides(cfg, root)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, root *CLI) {
	if root.Source != "" {
		cfg.Source = root.Source
	}
	if root.Test {
		cfg.Source = cfg.FixtureDir
	}
	if root.Dest != "" {
		oldSite, derived := cfg.SiteRoot, cfg.SiteRoot == filepath.Dir(cfg.Destination)
		cfg.Destination = root.Dest
		if derived || oldSite == "" {
			cfg.SiteRoot = filepath.Dir(root.Dest)
			rebaseDiagnostics(cfg, oldSite)
		}
	}
	if root.Debug {
		if cfg.Navigation.JSONOutput == "" {
			cfg.Navigation.JSONOutput = "sidebars.json"
		}
		if cfg.Diagnostics.LinkDB == "" {
			cfg.Diagnostics.LinkDB = "links.db"
		}
	}
}

// rebaseDiagnostics moves a diagnostics dir that lived under oldSite to the
// same place under the new site root.
func rebaseDiagnostics(cfg *config.Config, oldSite string) {
	if oldSite == "" || cfg.Diagnostics.Dir == "" {
		return
	}
	rel, err := filepath.Rel(oldSite, cfg.Diagnostics.Dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return
	}
	cfg.Diagnostics.Dir = filepath.Join(cfg.SiteRoot, rel)
}

// newDiagnostics returns the run logger, teeing warnings and errors into the
// configured log files. The returned func closes the sinks.
func newDiagnostics(g *Global, cfg *config.Config) (*diagnostics.SlogLogger, func()) {
	var opts []diagnostics.Option
	var sinks []*diagnostics.AppendFile
	if p := cfg.DiagnosticPath(cfg.Diagnostics.WarningsLog); p != "" {
		s := diagnostics.NewAppendFile(p, true)
		sinks = append(sinks, s)
		opts = append(opts, diagnostics.WithWarningsSink(s))
	}
	if p := cfg.DiagnosticPath(cfg.Diagnostics.ErrorsLog); p != "" {
		s := diagnostics.NewAppendFile(p, true)
		sinks = append(sinks, s)
		opts = append(opts, diagnostics.WithErrorsSink(s))
	}
	return diagnostics.New(g.logger(), opts...), func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil && !errors.Is(err, fs.ErrClosed) {
				slog.Warn("Failed to close diagnostic log", slog.String("path", s.Path()), slog.String("error", err.Error()))
			}
		}
	}
}
