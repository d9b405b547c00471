package benchmark

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/oklog/ulid/v2"
)

// KeyCounts defines the preloaded key counts for map and cache benchmarks.
var KeyCounts = []int{1000, 10000, 100000}

// newKeys returns count distinct ULID keys.
func newKeys(count int) []string {
	keys := make([]string, count)
	for i := range keys {
		keys[i] = ulid.Make().String()
	}
	return keys
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithKeyCounts runs a benchmark function with each key count.
func runWithKeyCounts(b *testing.B, counts []int, benchFn func(b *testing.B, keys []string)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, newKeys(count))
		})
	}
}
