package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fwojciec/pagestem"
	pagestemfs "github.com/fwojciec/pagestem/fs"
	"github.com/fwojciec/pagestem/jsonl"
	"github.com/fwojciec/pagestem/pipeline"
	pagestemslog "github.com/fwojciec/pagestem/slog"
	"github.com/fwojciec/pagestem/sqlite"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) (err error) {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	// Files are written from the Markdown rendition of the text field.
	if c.OutDir != "" && len(cfg.Markdown) == 0 {
		cfg.Markdown = []string{pagestem.FieldText}
	}

	pdeps, err := newDependencies(cfg, deps)
	if err != nil {
		return err
	}
	chain, err := pipeline.New(cfg, pdeps)
	if err != nil {
		return err
	}

	out, err := c.openOutputs(deps)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	in, err := c.open(deps)
	if err != nil {
		return err
	}
	defer in.Close()

	store := out.store
	var saved int
	for rec := range chain.Process(in.Records) {
		if err := store.Save(deps.Ctx, rec); err != nil {
			_ = store.Abort()
			return err
		}
		saved++
	}
	if err := in.Err(); err != nil {
		_ = store.Abort()
		return err
	}
	if err := store.Commit(); err != nil {
		return err
	}

	printStats(deps.Stderr, chain)
	if out.db != nil {
		counts := out.db.Counts()
		fmt.Fprintf(deps.Stderr, "Database: %d inserted, %d updated, %d unchanged\n",
			counts.Inserted, counts.Updated, counts.Unchanged)
	}
	fmt.Fprintf(deps.Stderr, "Saved %d records\n", saved)
	return nil
}

// outputs are the open record stores of an extract run.
type outputs struct {
	store   pagestem.RecordStore
	db      *sqlite.RecordStore
	closers []func() error
}

// Close releases files and databases held by the outputs.
func (o *outputs) Close() error {
	var errs []error
	for _, fn := range o.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// openOutputs opens every selected output. JSON Lines go to stdout unless
// another output is chosen.
func (c *ExtractCmd) openOutputs(deps *Dependencies) (*outputs, error) {
	out := &outputs{}
	var stores multiStore

	switch {
	case c.Output == "-" || (c.Output == "" && c.DB == "" && c.OutDir == ""):
		stores = append(stores, jsonl.NewWriter(deps.Stdout))
	case c.Output != "":
		f, err := os.Create(c.Output)
		if err != nil {
			return nil, pagestem.Errorf(pagestem.EINVALID, "cannot create output: %v", err)
		}
		out.closers = append(out.closers, f.Close)
		stores = append(stores, jsonl.NewWriter(f))
	}

	if c.DB != "" {
		db := sqlite.NewDB(c.DB)
		if err := db.Open(); err != nil {
			_ = out.Close()
			return nil, fmt.Errorf("open database: %w", err)
		}
		out.closers = append(out.closers, db.Close)
		out.db = sqlite.NewRecordStore(db)
		stores = append(stores, out.db)
	}

	if c.OutDir != "" {
		dir := filepath.Clean(c.OutDir)
		stores = append(stores, pagestemfs.NewFileStore(filepath.Dir(dir), filepath.Base(dir)))
	}

	out.store = stores
	if deps.Verbose {
		out.store = pagestemslog.NewLoggingRecordStore(stores, deps.Logger)
	}
	return out, nil
}

func printStats(w io.Writer, chain *pipeline.Chain) {
	for _, s := range chain.Stages() {
		st := s.Stats()
		fmt.Fprintf(w, "%s: seen=%d skipped=%d already_matched=%d extracted=%d unextracted=%d",
			s.Name(), st.Seen, st.Skipped, st.AlreadyMatched, st.Extracted, st.Unextracted)
		if st.Redirected > 0 || st.Synthesized > 0 || st.Unresolved > 0 {
			fmt.Fprintf(w, " redirected=%d synthesized=%d unresolved=%d", st.Redirected, st.Synthesized, st.Unresolved)
		}
		fmt.Fprintln(w)
	}
}
