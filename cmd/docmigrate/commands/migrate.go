package commands

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/pipeline"
)

// MigrateCmd implements the 'migrate' command.
type MigrateCmd struct {
	NoClean bool `name:"no-clean" help:"Keep existing destination files and skip unchanged documents"`
	Workers int  `short:"w" help:"Number of files transformed in parallel (overrides config)"`
}

func (m *MigrateCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root)
	if err != nil {
		return err
	}
	if m.NoClean {
		keep := false
		cfg.CleanDestination = &keep
	}
	if m.Workers > 0 {
		cfg.Workers = m.Workers
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunMigrate(ctx, g, cfg, root.Verbose)
}

// RunMigrate performs one migration and prints its summary.
func RunMigrate(ctx context.Context, g *Global, cfg *config.Config, verbose bool) error {
	log, closeLogs := newDiagnostics(g, cfg)
	defer closeLogs()

	res, err := pipeline.New(cfg, pipeline.WithLogger(log)).Run(ctx)
	if err != nil {
		return err
	}

	out := g.out()
	_, _ = fmt.Fprintln(out, "Migration summary")
	for _, line := range res.Summary.Lines() {
		_, _ = fmt.Fprintln(out, "  "+line)
	}
	if verbose {
		printTitleMap(g, res.Index)
	}
	return nil
}

func printTitleMap(g *Global, ix *index.Index) {
	out := g.out()
	titles := make([]string, 0, len(ix.FileByTitle))
	for t := range ix.FileByTitle {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	_, _ = fmt.Fprintln(out, "Title map")
	for _, t := range titles {
		_, _ = fmt.Fprintf(out, "  %s -> %s\n", t, ix.FileByTitle[t].DocID)
	}
}
