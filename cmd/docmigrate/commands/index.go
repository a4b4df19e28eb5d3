package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/pipeline"
)

// IndexCmd implements the 'index' command.
type IndexCmd struct {
	Output string `short:"o" help:"Write the snapshot to this file instead of stdout"`
}

func (c *IndexCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root)
	if err != nil {
		return err
	}
	ix, err := index.NewBuilder(pipeline.IndexOptions(cfg), diagnostics.New(g.logger())).Build(cfg.Source)
	if err != nil {
		return err
	}

	meta := index.SnapshotMeta{GeneratedAt: time.Now()}
	if c.Output != "" {
		return ix.WriteSnapshot(c.Output, meta)
	}
	data, err := ix.Snapshot(meta)
	if err != nil {
		return fmt.Errorf("render snapshot: %w", err)
	}
	_, err = fmt.Fprintln(g.out(), string(data))
	return err
}
