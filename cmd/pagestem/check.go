package main

import (
	"fmt"

	"github.com/fwojciec/pagestem/pipeline"
)

// Run executes the check command.
func (c *CheckCmd) Run(deps *Dependencies) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}

	pdeps, err := newDependencies(cfg, deps)
	if err != nil {
		return err
	}
	chain, err := pipeline.New(cfg, pdeps)
	if err != nil {
		return err
	}

	for _, g := range cfg.Groups {
		fmt.Fprintf(deps.Stdout, "group %d:", g.Rank)
		for _, fr := range g.Fields {
			fmt.Fprintf(deps.Stdout, " %s", fr.Field)
		}
		fmt.Fprintln(deps.Stdout)
	}
	for _, cr := range cfg.Computed {
		fmt.Fprintf(deps.Stdout, "computed: %s\n", cr.Field)
	}

	fmt.Fprint(deps.Stdout, "stages:")
	for _, s := range chain.Stages() {
		fmt.Fprintf(deps.Stdout, " %s", s.Name())
	}
	fmt.Fprintln(deps.Stdout)
	fmt.Fprintln(deps.Stdout, "configuration ok")
	return nil
}
