package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/pagestem"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Verbose  bool
	Fetcher  pagestem.Fetcher
	Sitemaps pagestem.SitemapService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log debug output and trace every service call"`

	Extract  ExtractCmd  `cmd:"" help:"Extract fields from pages and write the enriched records"`
	Discover DiscoverCmd `cmd:"" help:"Discover page layouts and print them as rules"`
	Check    CheckCmd    `cmd:"" help:"Validate configuration and compile rules"`
}

// ConfigFlags select the extraction configuration.
type ConfigFlags struct {
	Config string   `short:"c" env:"PAGESTEM_CONFIG" help:"YAML configuration file"`
	Rule   []string `short:"r" help:"Rule line 'field = mode expression'; replaces configured rules (repeatable)"`
}

// InputFlags select where records come from. Exactly one source is used.
type InputFlags struct {
	Input       string   `short:"i" help:"JSON Lines record file ('-' for stdin)"`
	Dir         string   `help:"Directory of saved pages"`
	SiteURL     string   `name:"site-url" help:"Site URL of pages read from --dir or fetched"`
	URL         []string `name:"url" help:"Page URL to fetch (repeatable)"`
	Sitemap     string   `help:"Site whose sitemap lists the pages to fetch"`
	Filter      []string `short:"F" help:"Only fetch sitemap URLs matching regex (repeatable)"`
	Concurrency int      `default:"10" help:"Concurrent fetch limit"`
	RateLimit   float64  `name:"rate-limit" default:"1" help:"Requests per second per domain (0 disables)"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	ConfigFlags `embed:""`
	InputFlags  `embed:""`

	Output string `short:"o" help:"JSON Lines output file ('-' for stdout, the default when no other output is set)"`
	DB     string `env:"PAGESTEM_DB" help:"SQLite database to store records in"`
	OutDir string `name:"out-dir" help:"Directory to write Markdown files to"`
}

// DiscoverCmd is the "discover" subcommand.
type DiscoverCmd struct {
	ConfigFlags `embed:""`
	InputFlags  `embed:""`
}

// CheckCmd is the "check" subcommand.
type CheckCmd struct {
	ConfigFlags `embed:""`
}
