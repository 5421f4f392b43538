package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/fwojciec/pagestem"
	"github.com/fwojciec/pagestem/sqlite"
	"github.com/stretchr/testify/require"
)

// BenchmarkRecordStore_Run saves a batch of extracted records in one run,
// into an empty database and into one already holding the same records.
func BenchmarkRecordStore_Run(b *testing.B) {
	const recordsPerRun = 100

	b.Run("fresh", func(b *testing.B) {
		benchmarkRun(b, recordsPerRun, false)
	})

	b.Run("unchanged", func(b *testing.B) {
		benchmarkRun(b, recordsPerRun, true)
	})
}

func benchRecord(i int) pagestem.Record {
	return pagestem.Record{
		"_site_url": "https://example.com",
		"_path":     fmt.Sprintf("/docs/page%d", i),
		"_template": "1",
		"title":     fmt.Sprintf("Page %d", i),
		"text":      fmt.Sprintf("<div><p>Content for page %d. Lorem ipsum dolor sit amet.</p></div>", i),
	}
}

func benchmarkRun(b *testing.B, n int, seed bool) {
	b.Helper()

	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		b.StopTimer()

		db := sqlite.NewDB(filepath.Join(b.TempDir(), fmt.Sprintf("bench%d.db", i)))
		require.NoError(b, db.Open())
		store := sqlite.NewRecordStore(db)

		if seed {
			for j := 0; j < n; j++ {
				require.NoError(b, store.Save(ctx, benchRecord(j)))
			}
			require.NoError(b, store.Commit())
		}

		b.StartTimer()

		for j := 0; j < n; j++ {
			if err := store.Save(ctx, benchRecord(j)); err != nil {
				b.Fatal(err)
			}
		}
		if err := store.Commit(); err != nil {
			b.Fatal(err)
		}

		b.StopTimer()
		db.Close()
	}
}
