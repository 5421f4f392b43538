package main

import (
	"fmt"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/pipeline"
)

// Run executes the discover command. Explicit rules in the configuration
// are ignored; only the layout options apply.
func (c *DiscoverCmd) Run(deps *Dependencies) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	cfg.Groups = nil
	cfg.Computed = nil
	cfg.Link = nil
	cfg.Markdown = nil
	cfg.Auto.Disable = false
	cfg.Auto.Fallback = pagestem.FallbackNone

	pdeps, err := newDependencies(cfg, deps)
	if err != nil {
		return err
	}

	in, err := c.open(deps)
	if err != nil {
		return err
	}
	defer in.Close()

	stage := &pipeline.AutoStage{
		Discoverer: pdeps.Discoverer,
		Config:     cfg,
		Progress:   pdeps.Progress,
	}
	for range stage.Process(in.Records) {
	}
	if err := in.Err(); err != nil {
		return err
	}

	templates := stage.Templates()
	if len(templates) == 0 {
		return pagestem.Errorf(pagestem.ENOMATCH, "no layout found in %d pages", stage.Stats().Seen)
	}
	for i, t := range templates {
		if i > 0 {
			fmt.Fprintln(deps.Stdout)
		}
		fmt.Fprint(deps.Stdout, t.String())
	}

	st := stage.Stats()
	fmt.Fprintf(deps.Stderr, "Discovered %d layouts; %d of %d pages matched\n", len(templates), st.Extracted, st.Seen)
	return nil
}
