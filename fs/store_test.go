package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Story: Atomic File Storage
// The store uses temp directory for atomic updates

func newStore(base string) *fs.FileStore {
	store := fs.NewFileStore(base, "output")
	store.Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return store
}

func TestFileStore_SaveWritesToTempDirectory(t *testing.T) {
	t.Parallel()

	// Given a store targeting a directory
	base := t.TempDir()
	store := newStore(base)

	// When I save a record
	err := store.Save(context.Background(), pagestem.Record{
		"_site_url":     "https://example.com",
		"_path":         "/docs/api",
		"title":         "API Reference",
		"text_markdown": "# API\n\nWelcome to the API.",
	})

	// Then no error occurs
	require.NoError(t, err)

	// And the file exists in the temp directory (not final)
	tempPath := filepath.Join(base, "output.tmp", "docs", "api.md")
	_, err = os.Stat(tempPath)
	require.NoError(t, err, "file should exist in temp directory")

	// And final directory does not exist yet
	finalPath := filepath.Join(base, "output", "docs", "api.md")
	_, err = os.Stat(finalPath)
	assert.True(t, os.IsNotExist(err), "final directory should not exist until commit")
}

func TestFileStore_SaveWritesFrontmatterAndBody(t *testing.T) {
	t.Parallel()

	// Given a store
	base := t.TempDir()
	store := newStore(base)

	// When I save an extracted record with a converted body
	err := store.Save(context.Background(), pagestem.Record{
		"_site_url":     "https://example.com",
		"_path":         "/guide/",
		"title":         "Guide: Basics",
		"text":          "<div><p>ignored</p></div>",
		"text_markdown": "Basics.",
	})
	require.NoError(t, err)
	require.NoError(t, store.Commit())

	// Then the index file holds frontmatter and the markdown body
	content, err := os.ReadFile(filepath.Join(base, "output", "guide", "index.md"))
	require.NoError(t, err)
	assert.Equal(t, "---\nsource: https://example.com/guide/\ntitle: \"Guide: Basics\"\nextracted: 2026-03-01\n---\n\nBasics.", string(content))
}

func TestFileStore_SaveFallsBackToText(t *testing.T) {
	t.Parallel()

	// Given a store
	base := t.TempDir()
	store := newStore(base)

	// When I save a record without a markdown field
	err := store.Save(context.Background(), pagestem.Record{
		"_site_url": "https://example.com",
		"_path":     "/a.html",
		"text":      "<div>A</div>",
	})
	require.NoError(t, err)

	// Then the text field is the body
	content, err := os.ReadFile(filepath.Join(base, "output.tmp", "a.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "---\n\n<div>A</div>")
}

func TestFileStore_SaveRejectsRecordWithoutPath(t *testing.T) {
	t.Parallel()

	// Given a store
	store := newStore(t.TempDir())

	// When I save a record that has no path
	err := store.Save(context.Background(), pagestem.Record{"text": "x"})

	// Then it is rejected as invalid
	require.Error(t, err)
	assert.Equal(t, pagestem.EINVALID, pagestem.ErrorCode(err))
}

func TestFileStore_CommitMovesFromTempToFinal(t *testing.T) {
	t.Parallel()

	// Given a store with saved records
	base := t.TempDir()
	store := newStore(base)
	err := store.Save(context.Background(), pagestem.Record{
		"_site_url": "https://example.com",
		"_path":     "/a",
		"text":      "A",
	})
	require.NoError(t, err)

	// When I commit
	err = store.Commit()

	// Then no error occurs
	require.NoError(t, err)

	// And final directory exists with content
	finalPath := filepath.Join(base, "output", "a.md")
	_, err = os.Stat(finalPath)
	require.NoError(t, err, "file should exist in final directory after commit")

	// And temp directory is gone
	tempDir := filepath.Join(base, "output.tmp")
	_, err = os.Stat(tempDir)
	assert.True(t, os.IsNotExist(err), "temp directory should be removed after commit")
}

func TestFileStore_CommitReplacesPreviousOutput(t *testing.T) {
	t.Parallel()

	// Given a final directory from a previous run
	base := t.TempDir()
	stale := filepath.Join(base, "output", "stale.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	// When a new run saves and commits
	store := newStore(base)
	require.NoError(t, store.Save(context.Background(), pagestem.Record{"_path": "/fresh", "text": "new"}))
	require.NoError(t, store.Commit())

	// Then only the new output remains
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale file should be removed")
	_, err = os.Stat(filepath.Join(base, "output", "fresh.md"))
	assert.NoError(t, err)
}

func TestFileStore_AbortCleansUpTempDirectory(t *testing.T) {
	t.Parallel()

	// Given a store with saved records
	base := t.TempDir()
	store := newStore(base)
	require.NoError(t, store.Save(context.Background(), pagestem.Record{"_path": "/a", "text": "A"}))

	// When I abort
	err := store.Abort()

	// Then no error occurs
	require.NoError(t, err)

	// And nothing was written
	_, err = os.Stat(filepath.Join(base, "output.tmp"))
	assert.True(t, os.IsNotExist(err), "temp directory should be removed after abort")
	_, err = os.Stat(filepath.Join(base, "output"))
	assert.True(t, os.IsNotExist(err), "final directory should not exist after abort")
}
