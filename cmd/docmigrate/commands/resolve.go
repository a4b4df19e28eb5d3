package commands

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/pipeline"
	"git.home.luguber.info/inful/docmigrate/internal/resolver"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	Targets []string `arg:"" help:"Wikilink targets, optionally with #Heading"`
}

func (c *ResolveCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root)
	if err != nil {
		return err
	}
	log := diagnostics.New(g.logger())
	ix, err := index.NewBuilder(pipeline.IndexOptions(cfg), log).Build(cfg.Source)
	if err != nil {
		return err
	}
	r := resolver.New(ix, pipeline.ResolverOptions(cfg), log)

	out := g.out()
	for _, t := range c.Targets {
		target, heading, _ := strings.Cut(t, "#")
		rec, strategy := r.Resolve(target)
		if rec == nil {
			_, _ = fmt.Fprintf(out, "%s\tunresolved\t%s\n", t, r.FallbackURL(target, heading))
			continue
		}
		_, _ = fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", t, strategy, r.URL(rec, heading), rec.RelPath)
	}
	return nil
}
