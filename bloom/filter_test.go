package bloom_test

import (
	"testing"

	"github.com/fwojciec/pagestem/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_AddAndTest(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.Test("https://example.com/page1"))

	assert.False(t, f.Add("https://example.com/page1"))

	assert.True(t, f.Test("https://example.com/page1"))
	assert.True(t, f.Add("https://example.com/page1"))
	assert.False(t, f.Test("https://example.com/page2"))
}

func TestFilter_IgnoresFragments(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(10, 0.01)
	f.Add("https://example.com/docs#intro")

	assert.True(t, f.Test("https://example.com/docs"))
	assert.True(t, f.Test("https://example.com/docs#usage"))
}

func TestFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)
	assert.Equal(t, uint(0), f.EstimatedCount())

	f.Add("https://example.com/page1")
	f.Add("https://example.com/page2")
	f.Add("https://example.com/page3")

	count := f.EstimatedCount()
	assert.True(t, count >= 2 && count <= 4, "expected count near 3, got %d", count)
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	t.Run("keeps the first occurrence of each page in order", func(t *testing.T) {
		t.Parallel()

		got := bloom.Dedupe([]string{
			"https://example.com/b",
			"https://example.com/a",
			"https://example.com/b#top",
			"https://example.com/c",
			"https://example.com/a",
		})

		assert.Equal(t, []string{
			"https://example.com/b",
			"https://example.com/a",
			"https://example.com/c",
		}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, bloom.Dedupe(nil))
	})
}
