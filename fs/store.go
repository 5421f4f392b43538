package fs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/pagestem"
)

// Ensure FileStore implements pagestem.RecordStore at compile time.
var _ pagestem.RecordStore = (*FileStore)(nil)

// DefaultBodyFields are the record fields a FileStore writes as the file
// body, in order of preference.
var DefaultBodyFields = []string{"text_markdown", pagestem.FieldText}

// FileStore implements pagestem.RecordStore with atomic update semantics.
// Records are saved to a temporary directory, then moved atomically on Commit.
type FileStore struct {
	baseDir string
	name    string

	// BodyFields overrides DefaultBodyFields.
	BodyFields []string

	// Now returns the date written to the frontmatter.
	Now func() time.Time
}

// NewFileStore creates a new FileStore.
// baseDir is the parent directory, name is the output directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewFileStore(baseDir, name string) *FileStore {
	return &FileStore{
		baseDir:    baseDir,
		name:       name,
		BodyFields: DefaultBodyFields,
		Now:        time.Now,
	}
}

func (s *FileStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *FileStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Save writes one record. Records without a path are rejected.
func (s *FileStore) Save(ctx context.Context, rec pagestem.Record) error {
	if rec.Path() == "" {
		return pagestem.Errorf(pagestem.EINVALID, "record has no path")
	}
	relPath, err := URLToPath(rec.URL())
	if err != nil {
		return err
	}

	fullPath := filepath.Join(s.tempDir(), relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	content := FormatRecord(rec, s.BodyFields, s.Now())
	return os.WriteFile(fullPath, []byte(content), 0644)
}

func (s *FileStore) Commit() error {
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}

	// Nothing saved: leave no empty output behind.
	if _, err := os.Stat(s.tempDir()); os.IsNotExist(err) {
		return nil
	}

	return os.Rename(s.tempDir(), s.finalDir())
}

func (s *FileStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}
