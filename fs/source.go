package fs

import (
	iofs "io/fs"
	"iter"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/pagestem"
)

// DirSource reads every file below a directory as a record. The record
// path is the file's slash-separated path relative to the directory, with
// a leading slash. Only HTML files have their content loaded.
type DirSource struct {
	root    string
	siteURL string
	err     error
}

// NewDirSource creates a DirSource for files below root, published under
// siteURL.
func NewDirSource(root, siteURL string) *DirSource {
	return &DirSource{root: root, siteURL: siteURL}
}

// Records walks the directory in lexical order.
func (s *DirSource) Records() iter.Seq[pagestem.Record] {
	return func(yield func(pagestem.Record) bool) {
		s.err = filepath.WalkDir(s.root, func(path string, d iofs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			rel, err := filepath.Rel(s.root, path)
			if err != nil {
				return err
			}
			rec := pagestem.Record{
				pagestem.FieldSiteURL: s.siteURL,
				pagestem.FieldPath:    "/" + filepath.ToSlash(rel),
			}
			if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
				rec[pagestem.FieldMimetype] = mt
			}
			if mt, ok := rec[pagestem.FieldMimetype].(string); ok && pagestem.IsHTMLMimetype(mt) {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				rec[pagestem.FieldContent] = string(data)
			}
			if !yield(rec) {
				return iofs.SkipAll
			}
			return nil
		})
	}
}

// Err returns the error that stopped the walk, if any.
func (s *DirSource) Err() error {
	return s.err
}
