// Package metric provides Prometheus metrics for tokgate.
//
//   - prometheus.go: the registry, application counters and /metrics handler
//   - collector.go: scrape-time gauges for the worker pool and the
//     security tables
package metric
