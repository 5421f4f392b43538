// Package bloom removes repeated page URLs from fetch lists using Bloom
// filters.
package bloom

import (
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
)

// DefaultFalsePositiveRate is the rate used by Dedupe.
const DefaultFalsePositiveRate = 0.0001

// Filter records the page URLs seen so far. URLs differing only by fragment
// are the same page.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected URLs
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	if n == 0 {
		n = 1
	}
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add marks the page of url as seen. It reports whether the page was
// possibly seen before.
func (f *Filter) Add(url string) bool {
	return f.f.TestAndAddString(page(url))
}

// Test returns true if the page of url might have been seen.
// False positives are possible; false negatives are not.
func (f *Filter) Test(url string) bool {
	return f.f.TestString(page(url))
}

// EstimatedCount returns the approximate number of pages in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}

// Dedupe returns urls without repeated pages, keeping the first occurrence
// and its order. A false positive drops a page, at DefaultFalsePositiveRate.
func Dedupe(urls []string) []string {
	f := NewFilter(uint(len(urls)), DefaultFalsePositiveRate)
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !f.Add(u) {
			out = append(out, u)
		}
	}
	return out
}

func page(url string) string {
	if i := strings.IndexByte(url, '#'); i != -1 {
		return url[:i]
	}
	return url
}
