// Package metric provides Prometheus metrics for synckit.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: event metrics fed by the primitives' observer hooks
//   - collector.go: gauges sampled from live primitives at scrape time
//
// Metrics include:
//
//   - Permit wait and hold histograms, in-use gauge, timeout counters
//   - Map insert outcomes and cache operation counters
//   - Account operation outcomes and singleton constructions
//
// Metrics are exposed at /metrics in Prometheus format when the stress
// command is given a metrics address.
package metric
