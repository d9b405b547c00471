// Package benchmark compares the synckit primitives under contention.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Run one family across core counts:
//
//	go test -bench=BenchmarkMap -cpu=1,4,16 ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
