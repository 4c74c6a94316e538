// Package benchmark provides performance benchmarks for the tokgate hot
// paths: the security tables, token helpers, routing and the worker pool.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Run with larger tables:
//
//	go test -bench=BenchmarkSession -benchmem -benchtime=10s ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
