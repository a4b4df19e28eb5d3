package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/navigation"
	"git.home.luguber.info/inful/docmigrate/internal/pipeline"
)

// SidebarCmd implements the 'sidebar' command.
type SidebarCmd struct {
	Format string `short:"f" help:"Output format: ts, json, tree" default:"ts" enum:"ts,json,tree"`
}

func (c *SidebarCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root)
	if err != nil {
		return err
	}
	log := diagnostics.New(g.logger())
	ix, err := index.NewBuilder(pipeline.IndexOptions(cfg), log).Build(cfg.Source)
	if err != nil {
		return err
	}

	var data []byte
	switch c.Format {
	case "tree":
		data = []byte(navigation.ASCIITree(ix))
	case "json":
		data, err = navigation.RenderJSON(navigation.Build(ix, pipeline.NavigationOptions(cfg, log), log))
	default:
		data, err = navigation.RenderTS(navigation.Build(ix, pipeline.NavigationOptions(cfg, log), log))
	}
	if err != nil {
		return fmt.Errorf("render sidebars: %w", err)
	}
	_, err = g.out().Write(data)
	return err
}
